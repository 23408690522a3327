package repository

import (
	"context"
	"time"

	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// AssignmentRepository handles assignment documents.
type AssignmentRepository struct {
	coll *mongo.Collection
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{coll: db.Collection(database.CollectionAssignments)}
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	if a.StudentsCompleted == nil {
		a.StudentsCompleted = []model.Completion{}
	}
	_, err := r.coll.InsertOne(ctx, a)
	return mapErr(err)
}

// GetByID retrieves an assignment by ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Assignment, error) {
	a := &model.Assignment{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(a); err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// ListByCourse retrieves every assignment of a course, oldest first.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID bson.ObjectID) ([]model.Assignment, error) {
	items, _, err := findPage[model.Assignment](ctx, r.coll, bson.M{"course_id": courseID}, bson.D{{Key: "created_at", Value: 1}}, 0, 0)
	return items, err
}

// Update applies the non-nil fields of upd.
func (r *AssignmentRepository) Update(ctx context.Context, id bson.ObjectID, upd model.AssignmentUpdate) (*model.Assignment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Deadline != nil {
		set["deadline"] = *upd.Deadline
	}
	return findOneAndSet[model.Assignment](ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": set})
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCompletion appends c unless the student already has a completion record.
// It returns ErrNoMatch when the guard excludes the update.
func (r *AssignmentRepository) AddCompletion(ctx context.Context, id bson.ObjectID, c model.Completion) (*model.Assignment, error) {
	filter := bson.M{"_id": id, "students_completed.student_id": bson.M{"$ne": c.StudentID}}
	update := bson.M{"$push": bson.M{"students_completed": c}}
	return guarded[model.Assignment](findOneAndSet[model.Assignment](ctx, r.coll, filter, update))
}
