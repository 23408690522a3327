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

// UserHandler handles account management and profile endpoints.
type UserHandler struct {
	userService    *service.UserService
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, maxUploadBytes int64, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService:    userService,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "user_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/register
// Creates an account. Teachers may only create students.
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), subject(c), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// ListUsers godoc
// GET /api/v1/users?search=&role=&page=&per_page=
// Lists accounts visible to the caller.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q model.ListUsersQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	filter := model.UserFilter{Search: q.Search, Role: q.Role}
	users, pagination, err := h.userService.List(c.Request.Context(), subject(c), filter, q.Page, q.PerPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, pagination)
}

// Me godoc
// GET /api/v1/users/me
// Returns the currently authenticated account.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), subject(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// GetUser godoc
// GET /api/v1/users/:id
// Returns a single account.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateUser godoc
// PUT /api/v1/users/:id
// Partially edits an account. Only admins may change roles.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), subject(c), id, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// DisableUser godoc
// POST /api/v1/users/:id/disable
// Deactivates an account and revokes its refresh tokens.
func (h *UserHandler) DisableUser(c *gin.Context) {
	h.setActive(c, false)
}

// EnableUser godoc
// POST /api/v1/users/:id/enable
// Reactivates an account.
func (h *UserHandler) EnableUser(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), subject(c), id, active)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ResetPassword godoc
// POST /api/v1/users/:id/reset-password
// Sets the given password, or a generated one when the body is empty.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	var req model.ResetPasswordRequest
	if fields := bindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	password, err := h.userService.ResetPassword(c.Request.Context(), subject(c), id, req.NewPassword)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.ResetPasswordResponse{TemporaryPassword: password})
}

// GetProfile godoc
// GET /api/v1/users/:id/profile
// Returns the caller's own profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Profile(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProfile godoc
// PUT /api/v1/users/:id/profile
// Multipart edit of names and an optional "profile_picture" image.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	if !parseMultipart(c, h.maxUploadBytes) {
		return
	}

	var form model.UpdateProfileForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	picture, file, err := formFile(c, "profile_picture")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if file != nil {
		defer file.Close()
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), subject(c), id, form, picture)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
