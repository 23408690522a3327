package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotificationRepository is an in-memory notification history store.
type NotificationRepository struct {
	mu      sync.RWMutex
	records []model.NotificationHistory
	// FailWrites makes Create fail, for exercising the persistence error path.
	FailWrites error
}

// NewNotificationRepository creates an empty NotificationRepository.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(_ context.Context, n *model.NotificationHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites != nil {
		return r.FailWrites
	}
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	r.records = append(r.records, *n)
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id bson.ObjectID) (*model.NotificationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.records {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *NotificationRepository) ListByRecipient(_ context.Context, email string, limit, offset int) ([]model.NotificationHistory, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	var out []model.NotificationHistory
	for _, n := range r.records {
		if n.RecipientEmail == email {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return page(out, limit, offset), len(out), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id bson.ObjectID) (*model.NotificationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].IsRead = true
			n := r.records[i]
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

// EmailHistoryRepository is an in-memory email history store.
type EmailHistoryRepository struct {
	mu      sync.RWMutex
	records []model.EmailHistory
	// FailWrites makes Create fail, for exercising the persistence error path.
	FailWrites error
}

// NewEmailHistoryRepository creates an empty EmailHistoryRepository.
func NewEmailHistoryRepository() *EmailHistoryRepository {
	return &EmailHistoryRepository{}
}

func (r *EmailHistoryRepository) Create(_ context.Context, e *model.EmailHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites != nil {
		return r.FailWrites
	}
	if e.ID.IsZero() {
		e.ID = bson.NewObjectID()
	}
	r.records = append(r.records, *e)
	return nil
}

func (r *EmailHistoryRepository) ListByRecipient(_ context.Context, address string, limit, offset int) ([]model.EmailHistory, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address = strings.ToLower(address)
	var out []model.EmailHistory
	for _, e := range r.records {
		if e.Recipient == address {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return page(out, limit, offset), len(out), nil
}
