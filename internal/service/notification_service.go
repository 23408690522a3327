package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/response"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Publisher pushes a notification to the recipient's live stream.
type Publisher interface {
	Publish(ctx context.Context, userID bson.ObjectID, n *model.NotificationHistory) error
}

// NotificationService dispatches in-app notifications and keeps one history record per attempt.
type NotificationService struct {
	history NotificationStore
	users   UserStore
	pub     Publisher
	log     zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(history NotificationStore, users UserStore, pub Publisher, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		history: history,
		users:   users,
		pub:     pub,
		log:     log.With().Str("component", "notifications").Logger(),
	}
}

// Send attempts delivery and records the outcome. Delivery failure is reported in the
// returned record; only a failed history write is returned as an error.
func (s *NotificationService) Send(ctx context.Context, sub policy.Subject, req model.CreateNotificationRequest) (*model.NotificationHistory, error) {
	if err := policy.Authorize(sub, policy.ActionNotificationSend, policy.Resource{}); err != nil {
		return nil, err
	}

	rec := &model.NotificationHistory{
		Title:          strings.TrimSpace(req.Title),
		Message:        req.Message,
		RecipientEmail: strings.ToLower(strings.TrimSpace(req.RecipientEmail)),
		SenderID:       sub.ID,
		SentAt:         time.Now().UTC(),
		Status:         model.DeliveryPending,
	}

	if err := s.deliver(ctx, rec); err != nil {
		rec.Status = model.DeliveryFailed
		rec.ErrorMessage = err.Error()
		s.log.Warn().Err(err).Str("recipient", rec.RecipientEmail).Msg("Notification not delivered")
	} else {
		rec.Status = model.DeliverySent
	}

	if err := s.history.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("record notification: %w", err)
	}
	return rec, nil
}

func (s *NotificationService) deliver(ctx context.Context, rec *model.NotificationHistory) error {
	u, err := s.users.GetByIdentifier(ctx, rec.RecipientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errors.New("recipient not found")
		}
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if !strings.EqualFold(u.Email, rec.RecipientEmail) {
		return errors.New("recipient not found")
	}
	rec.RecipientID = u.ID

	if s.pub == nil {
		return nil
	}
	return s.pub.Publish(ctx, u.ID, rec)
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, sub policy.Subject, page, perPage int) ([]model.NotificationHistory, *response.Pagination, error) {
	page, perPage, offset := pageWindow(page, perPage, defaultPerPage)
	list, total, err := s.history.ListByRecipient(ctx, sub.Email, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, response.NewPagination(page, perPage, total), nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, sub policy.Subject, id bson.ObjectID) (*model.NotificationHistory, error) {
	rec, err := s.history.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionNotificationRead, policy.Resource{OwnerID: rec.RecipientID}); err != nil {
		return nil, err
	}
	updated, err := s.history.MarkRead(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}
