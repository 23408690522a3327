package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// testDB connects to MONGO_TEST_URI and returns a throwaway database dropped on cleanup.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("repo_test_" + bson.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestCourseRosterGuards(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewCourseRepository(db)

	course := &model.Course{Name: "Algebra", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, course))
	sam := model.StudentRef{ID: bson.NewObjectID(), Name: "Sam"}

	got, err := repo.AddStudent(ctx, course.ID, sam)
	require.NoError(t, err)
	assert.True(t, got.HasStudent(sam.ID))

	_, err = repo.AddStudent(ctx, course.ID, sam)
	assert.ErrorIs(t, err, ErrNoMatch)

	got, err = repo.RemoveStudent(ctx, course.ID, sam.ID)
	require.NoError(t, err)
	assert.False(t, got.HasStudent(sam.ID))

	_, err = repo.RemoveStudent(ctx, course.ID, sam.ID)
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = repo.AddStudent(ctx, bson.NewObjectID(), sam)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestCourseAddStudentConcurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewCourseRepository(db)

	course := &model.Course{Name: "Algebra", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, course))
	sam := model.StudentRef{ID: bson.NewObjectID(), Name: "Sam"}

	var added atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AddStudent(ctx, course.ID, sam); err == nil {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), added.Load())
	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, got.Students, 1)
}

func TestAssignmentCompletionGuard(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewAssignmentRepository(db)

	a := &model.Assignment{Title: "Homework 1", CourseID: bson.NewObjectID(), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, a))
	sam := bson.NewObjectID()

	got, err := repo.AddCompletion(ctx, a.ID, model.Completion{StudentID: sam, StudentName: "Sam", CompletedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, got.HasCompleted(sam))

	_, err = repo.AddCompletion(ctx, a.ID, model.Completion{StudentID: sam, StudentName: "Sam", CompletedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrNoMatch)

	other := bson.NewObjectID()
	got, err = repo.AddCompletion(ctx, a.ID, model.Completion{StudentID: other, StudentName: "Sue", CompletedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.Len(t, got.StudentsCompleted, 2)
}
