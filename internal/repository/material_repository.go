package repository

import (
	"context"
	"time"

	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MaterialRepository handles material metadata records.
type MaterialRepository struct {
	coll *mongo.Collection
}

// NewMaterialRepository creates a new MaterialRepository.
func NewMaterialRepository(db *mongo.Database) *MaterialRepository {
	return &MaterialRepository{coll: db.Collection(database.CollectionMaterials)}
}

// Create inserts a material record.
func (r *MaterialRepository) Create(ctx context.Context, m *model.Material) error {
	if m.ID.IsZero() {
		m.ID = bson.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, m)
	return mapErr(err)
}

// GetByID retrieves a material by ID.
func (r *MaterialRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Material, error) {
	m := &model.Material{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(m); err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListByCourse retrieves a course's materials, newest first.
func (r *MaterialRepository) ListByCourse(ctx context.Context, courseID bson.ObjectID) ([]model.Material, error) {
	items, _, err := findPage[model.Material](ctx, r.coll, bson.M{"course_id": courseID}, bson.D{{Key: "uploaded_at", Value: -1}}, 0, 0)
	return items, err
}

// Update applies the non-nil fields of upd.
func (r *MaterialRepository) Update(ctx context.Context, id bson.ObjectID, upd model.MaterialUpdate) (*model.Material, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	return findOneAndSet[model.Material](ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": set})
}

// Delete removes a material record.
func (r *MaterialRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
