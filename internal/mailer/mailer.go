// Package mailer delivers outbound email through a configured transport.
package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
)

// Message is a plain email to one recipient.
type Message struct {
	To          string
	Subject     string
	TextContent string
	HTMLContent string
}

// Sender delivers a message synchronously and reports the outcome.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the sender selected by cfg.MailDriver.
func New(cfg *config.Config, log zerolog.Logger) (Sender, error) {
	switch cfg.MailDriver {
	case config.MailConsole, "":
		return NewConsoleSender(log), nil
	case config.MailSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
		}
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress), nil
	}
	return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
}
