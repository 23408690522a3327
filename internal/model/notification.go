package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DeliveryStatus is the outcome of a dispatch attempt.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// NotificationHistory records one in-app notification attempt.
type NotificationHistory struct {
	ID             bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title          string         `bson:"title" json:"title"`
	Message        string         `bson:"message" json:"message"`
	RecipientEmail string         `bson:"recipient_email" json:"recipient_email"`
	RecipientID    bson.ObjectID  `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	SenderID       bson.ObjectID  `bson:"sender_id" json:"sender_id"`
	SentAt         time.Time      `bson:"sent_at" json:"sent_at"`
	Status         DeliveryStatus `bson:"status" json:"status"`
	ErrorMessage   string         `bson:"error_message,omitempty" json:"error_message,omitempty"`
	IsRead         bool           `bson:"is_read" json:"is_read"`
}

// EmailHistory records one outbound email attempt.
type EmailHistory struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Recipient    string         `bson:"recipient" json:"recipient"`
	Subject      string         `bson:"subject" json:"subject"`
	Body         string         `bson:"body" json:"body"`
	SenderID     bson.ObjectID  `bson:"sender_id" json:"sender_id"`
	SentAt       time.Time      `bson:"sent_at" json:"sent_at"`
	Status       DeliveryStatus `bson:"status" json:"status"`
	ErrorMessage string         `bson:"error_message,omitempty" json:"error_message,omitempty"`
}

// CreateNotificationRequest is the payload for sending a notification.
type CreateNotificationRequest struct {
	Title          string `json:"title" binding:"required,min=1,max=200"`
	Message        string `json:"message" binding:"required,min=1,max=5000"`
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
}

// SendEmailRequest is the payload for sending an email.
type SendEmailRequest struct {
	Recipient string `json:"recipient" binding:"required,email"`
	Subject   string `json:"subject" binding:"required,min=1,max=255"`
	Body      string `json:"body" binding:"required,min=1"`
}
