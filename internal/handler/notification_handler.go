package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

// NotificationHandler handles in-app notification and email dispatch endpoints.
type NotificationHandler struct {
	notificationService *service.NotificationService
	emailService        *service.EmailService
	log                 zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(
	notificationService *service.NotificationService,
	emailService *service.EmailService,
	log zerolog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		emailService:        emailService,
		log:                 log.With().Str("component", "notification_handler").Logger(),
	}
}

// CreateNotification godoc
// POST /api/v1/create-notification
// Delivers a notification and records the attempt. A failed delivery still returns 200
// with status "failed" on the history record.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req model.CreateNotificationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	notification, err := h.notificationService.Send(c.Request.Context(), subject(c), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notification": notification})
}

// ListNotifications godoc
// GET /api/v1/notifications?page=&per_page=
// Lists the caller's received notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	notifications, pagination, err := h.notificationService.List(c.Request.Context(), subject(c), q.Page, q.PerPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"notifications": notifications}, pagination)
}

// MarkRead godoc
// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notification": notification})
}

// SendEmail godoc
// POST /api/v1/send-email
// Sends an email through the configured mailer and records the attempt.
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req model.SendEmailRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	email, err := h.emailService.Send(c.Request.Context(), subject(c), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"email": email})
}

// ListEmails godoc
// GET /api/v1/mail?page=&per_page=
// Lists the mail sent to the caller's address.
func (h *NotificationHandler) ListEmails(c *gin.Context) {
	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	emails, pagination, err := h.emailService.List(c.Request.Context(), subject(c), q.Page, q.PerPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"emails": emails}, pagination)
}
