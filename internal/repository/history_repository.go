package repository

import (
	"context"
	"strings"

	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var newestFirst = bson.D{{Key: "sent_at", Value: -1}}

// NotificationRepository stores notification dispatch history.
type NotificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{coll: db.Collection(database.CollectionNotificationHistory)}
}

// Create appends a history record.
func (r *NotificationRepository) Create(ctx context.Context, n *model.NotificationHistory) error {
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, n)
	return mapErr(err)
}

// GetByID retrieves a history record by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.NotificationHistory, error) {
	n := &model.NotificationHistory{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(n); err != nil {
		return nil, mapErr(err)
	}
	return n, nil
}

// ListByRecipient pages through the notifications addressed to email.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, email string, limit, offset int) ([]model.NotificationHistory, int, error) {
	filter := bson.M{"recipient_email": strings.ToLower(email)}
	return findPage[model.NotificationHistory](ctx, r.coll, filter, newestFirst, limit, offset)
}

// MarkRead sets the read flag. It is the only mutation a history record allows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id bson.ObjectID) (*model.NotificationHistory, error) {
	return findOneAndSet[model.NotificationHistory](ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_read": true}})
}

// EmailHistoryRepository stores email dispatch history.
type EmailHistoryRepository struct {
	coll *mongo.Collection
}

// NewEmailHistoryRepository creates a new EmailHistoryRepository.
func NewEmailHistoryRepository(db *mongo.Database) *EmailHistoryRepository {
	return &EmailHistoryRepository{coll: db.Collection(database.CollectionEmailHistory)}
}

// Create appends a history record.
func (r *EmailHistoryRepository) Create(ctx context.Context, e *model.EmailHistory) error {
	if e.ID.IsZero() {
		e.ID = bson.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, e)
	return mapErr(err)
}

// ListByRecipient pages through the emails sent to address.
func (r *EmailHistoryRepository) ListByRecipient(ctx context.Context, address string, limit, offset int) ([]model.EmailHistory, int, error) {
	filter := bson.M{"recipient": strings.ToLower(address)}
	return findPage[model.EmailHistory](ctx, r.coll, filter, newestFirst, limit, offset)
}
