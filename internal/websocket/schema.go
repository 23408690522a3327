package websocket

import (
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client frame.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady        Event = "ready"
	EventNotification Event = "notification"
	EventError        Event = "error"
	EventPong         Event = "pong"
)

// ReadyResponse is sent once the stream is subscribed.
type ReadyResponse struct {
	Event  Event  `json:"event"`
	UserID string `json:"user_id"`
}

// NotificationEvent carries one delivered notification.
type NotificationEvent struct {
	Event    Event     `json:"event"`
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	SenderID string    `json:"sender_id"`
	SentAt   time.Time `json:"sent_at"`
}

// NewNotificationEvent builds the stream frame for n.
func NewNotificationEvent(n *model.NotificationHistory) NotificationEvent {
	return NotificationEvent{
		Event:    EventNotification,
		ID:       n.ID.Hex(),
		Title:    n.Title,
		Message:  n.Message,
		SenderID: n.SenderID.Hex(),
		SentAt:   n.SentAt,
	}
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
