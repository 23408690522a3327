package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/mailer"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/response"
)

// EmailService sends email and keeps one history record per attempt.
type EmailService struct {
	history EmailHistoryStore
	sender  mailer.Sender
	log     zerolog.Logger
}

// NewEmailService creates a new EmailService.
func NewEmailService(history EmailHistoryStore, sender mailer.Sender, log zerolog.Logger) *EmailService {
	return &EmailService{
		history: history,
		sender:  sender,
		log:     log.With().Str("component", "email").Logger(),
	}
}

// Send delivers the message and records the outcome. A delivery failure is reported
// in the returned record.
func (s *EmailService) Send(ctx context.Context, sub policy.Subject, req model.SendEmailRequest) (*model.EmailHistory, error) {
	if err := policy.Authorize(sub, policy.ActionEmailSend, policy.Resource{}); err != nil {
		return nil, err
	}

	rec := &model.EmailHistory{
		Recipient: strings.ToLower(strings.TrimSpace(req.Recipient)),
		Subject:   strings.TrimSpace(req.Subject),
		Body:      req.Body,
		SenderID:  sub.ID,
		SentAt:    time.Now().UTC(),
		Status:    model.DeliveryPending,
	}

	err := s.sender.Send(ctx, mailer.Message{
		To:          rec.Recipient,
		Subject:     rec.Subject,
		TextContent: rec.Body,
		HTMLContent: htmlBody(rec.Body),
	})
	if err != nil {
		rec.Status = model.DeliveryFailed
		rec.ErrorMessage = err.Error()
		s.log.Warn().Err(err).Str("recipient", rec.Recipient).Msg("Email not delivered")
	} else {
		rec.Status = model.DeliverySent
	}

	if err := s.history.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("record email: %w", err)
	}
	return rec, nil
}

// List returns the mail sent to the caller's address.
func (s *EmailService) List(ctx context.Context, sub policy.Subject, page, perPage int) ([]model.EmailHistory, *response.Pagination, error) {
	page, perPage, offset := pageWindow(page, perPage, defaultPerPage)
	list, total, err := s.history.ListByRecipient(ctx, sub.Email, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list email: %w", err)
	}
	return list, response.NewPagination(page, perPage, total), nil
}

func htmlBody(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}
