package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CourseRepository handles course documents and their embedded rosters.
type CourseRepository struct {
	coll *mongo.Collection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{coll: db.Collection(database.CollectionCourses)}
}

// Create inserts a course. Nil embedded lists are stored as empty arrays so $push works on them.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	if c.Teachers == nil {
		c.Teachers = []model.UserSnapshot{}
	}
	if c.Students == nil {
		c.Students = []model.StudentRef{}
	}
	if c.Assignments == nil {
		c.Assignments = []model.AssignmentSummary{}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return mapErr(err)
}

// GetByID retrieves a course by ID, archived or not.
func (r *CourseRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Course, error) {
	c := &model.Course{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(c); err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// List retrieves courses newest first. Archived courses are skipped unless includeArchived.
func (r *CourseRepository) List(ctx context.Context, includeArchived bool, limit, offset int) ([]model.Course, int, error) {
	filter := bson.M{}
	if !includeArchived {
		filter["archived"] = false
	}
	return findPage[model.Course](ctx, r.coll, filter, bson.D{{Key: "created_at", Value: -1}}, limit, offset)
}

// Update applies the non-nil fields of upd.
func (r *CourseRepository) Update(ctx context.Context, id bson.ObjectID, upd model.CourseUpdate) (*model.Course, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Teachers != nil {
		set["teachers"] = *upd.Teachers
	}
	return findOneAndSet[model.Course](ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": set})
}

// SetArchived flips the archived flag.
func (r *CourseRepository) SetArchived(ctx context.Context, id bson.ObjectID, archived bool) (*model.Course, error) {
	update := bson.M{"$set": bson.M{"archived": archived, "updated_at": time.Now().UTC()}}
	return findOneAndSet[model.Course](ctx, r.coll, bson.M{"_id": id}, update)
}

// AddStudent appends ref to the roster unless the student is already on it.
// It returns ErrNoMatch when the guard excludes the update.
func (r *CourseRepository) AddStudent(ctx context.Context, id bson.ObjectID, ref model.StudentRef) (*model.Course, error) {
	filter := bson.M{"_id": id, "students._id": bson.M{"$ne": ref.ID}}
	update := bson.M{
		"$push": bson.M{"students": ref},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return guarded[model.Course](findOneAndSet[model.Course](ctx, r.coll, filter, update))
}

// RemoveStudent pulls studentID from the roster. It returns ErrNoMatch when the student is not on it.
func (r *CourseRepository) RemoveStudent(ctx context.Context, id, studentID bson.ObjectID) (*model.Course, error) {
	filter := bson.M{"_id": id, "students._id": studentID}
	update := bson.M{
		"$pull": bson.M{"students": bson.M{"_id": studentID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return guarded[model.Course](findOneAndSet[model.Course](ctx, r.coll, filter, update))
}

// PushAssignment embeds a new assignment summary.
func (r *CourseRepository) PushAssignment(ctx context.Context, id bson.ObjectID, s model.AssignmentSummary) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"assignments": s}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAssignment overwrites the embedded summary with the same ID.
func (r *CourseRepository) ReplaceAssignment(ctx context.Context, id bson.ObjectID, s model.AssignmentSummary) error {
	filter := bson.M{"_id": id, "assignments._id": s.ID}
	_, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"assignments.$": s}})
	return err
}

// PullAssignment removes the embedded summary of assignmentID.
func (r *CourseRepository) PullAssignment(ctx context.Context, id, assignmentID bson.ObjectID) error {
	update := bson.M{"$pull": bson.M{"assignments": bson.M{"_id": assignmentID}}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// guarded turns a missing document into ErrNoMatch for guarded updates.
func guarded[T any](v *T, err error) (*T, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoMatch
	}
	return v, err
}
