package repository

import (
	"context"

	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// RefreshTokenRepository persists issued refresh tokens.
type RefreshTokenRepository struct {
	coll *mongo.Collection
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(database.CollectionRefreshTokens)}
}

// Create stores a refresh token record.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *model.RefreshToken) error {
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, t)
	return mapErr(err)
}

// GetByToken retrieves the record keyed by the token value.
func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	t := &model.RefreshToken{}
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(t); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// DeleteByUser removes every refresh token issued to userID.
func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
