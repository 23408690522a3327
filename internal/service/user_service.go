package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Allowed profile picture MIME types.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UserService manages accounts and profiles.
type UserService struct {
	users    UserStore
	tokens   RefreshTokenStore
	auth     *AuthService
	blobs    storage.BlobStore
	maxBytes int64
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, tokens RefreshTokenStore, auth *AuthService, blobs storage.BlobStore, maxBytes int64, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		tokens:   tokens,
		auth:     auth,
		blobs:    blobs,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "users").Logger(),
	}
}

// Register creates an account. Teachers may only create students.
func (s *UserService) Register(ctx context.Context, sub policy.Subject, req model.RegisterRequest) (*model.User, error) {
	if err := policy.Authorize(sub, policy.ActionUserCreate, policy.Resource{}); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" || sub.Role != model.RoleAdmin {
		role = model.RoleStudent
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, username, email, bson.ObjectID{})
	if err != nil {
		return nil, fmt.Errorf("check uniqueness: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &model.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().
		Str("user_id", u.ID.Hex()).
		Str("role", string(u.Role)).
		Str("created_by", sub.ID.Hex()).
		Msg("User registered")
	return u, nil
}

// List searches users. Teachers only see students.
func (s *UserService) List(ctx context.Context, sub policy.Subject, filter model.UserFilter, page, perPage int) ([]model.User, *response.Pagination, error) {
	if err := policy.Authorize(sub, policy.ActionUserList, policy.Resource{}); err != nil {
		return nil, nil, err
	}
	if sub.Role != model.RoleAdmin {
		filter.Role = model.RoleStudent
	}

	page, perPage, offset := pageWindow(page, perPage, defaultPerPage)
	users, total, err := s.users.List(ctx, filter, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}
	return users, response.NewPagination(page, perPage, total), nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, sub policy.Subject) (*model.User, error) {
	u, err := s.users.GetByID(ctx, sub.ID)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Get returns a managed user's account.
func (s *UserService) Get(ctx context.Context, sub policy.Subject, id bson.ObjectID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionUserView, policy.Resource{TargetID: id, TargetRole: u.Role}); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies a partial edit. Role changes are honored for admins only,
// and nobody may change their own role.
func (s *UserService) Update(ctx context.Context, sub policy.Subject, id bson.ObjectID, req model.UpdateUserRequest) (*model.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionUserEdit, policy.Resource{TargetID: id, TargetRole: target.Role}); err != nil {
		return nil, err
	}

	var upd model.UserUpdate
	if req.Role != nil && sub.Role == model.RoleAdmin && *req.Role != target.Role {
		if id == sub.ID {
			return nil, ErrSelfModification
		}
		upd.Role = req.Role
	}
	if req.Username != nil {
		v := strings.TrimSpace(*req.Username)
		upd.Username = &v
	}
	if req.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Email))
		upd.Email = &v
	}
	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		upd.FirstName = &v
	}
	if req.LastName != nil {
		v := strings.TrimSpace(*req.LastName)
		upd.LastName = &v
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}

	if upd.Username != nil || upd.Email != nil {
		taken, err := s.users.ExistsByUsernameOrEmail(ctx, deref(upd.Username), deref(upd.Email), id)
		if err != nil {
			return nil, fmt.Errorf("check uniqueness: %w", err)
		}
		if taken {
			return nil, ErrUserExists
		}
	}

	u, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, notFound(err)
	}
	return u, nil
}

// SetActive disables or re-enables an account. Disabling revokes stored refresh tokens.
func (s *UserService) SetActive(ctx context.Context, sub policy.Subject, id bson.ObjectID, active bool) (*model.User, error) {
	if id == sub.ID {
		return nil, ErrSelfModification
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionUserDisable, policy.Resource{TargetID: id, TargetRole: target.Role}); err != nil {
		return nil, err
	}

	u, err := s.users.Update(ctx, id, model.UserUpdate{IsActive: &active})
	if err != nil {
		return nil, notFound(err)
	}
	if !active {
		if err := s.tokens.DeleteByUser(ctx, id); err != nil {
			return nil, fmt.Errorf("revoke refresh tokens: %w", err)
		}
	}

	s.log.Info().Str("user_id", id.Hex()).Bool("active", active).Str("by", sub.ID.Hex()).Msg("User status changed")
	return u, nil
}

// ResetPassword sets newPassword, or a generated one when empty, and returns it.
func (s *UserService) ResetPassword(ctx context.Context, sub policy.Subject, id bson.ObjectID, newPassword string) (string, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionUserResetPassword, policy.Resource{TargetID: id, TargetRole: target.Role}); err != nil {
		return "", err
	}

	if newPassword == "" {
		newPassword = temporaryPassword()
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.users.Update(ctx, id, model.UserUpdate{PasswordHash: &hash}); err != nil {
		return "", notFound(err)
	}
	if err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return "", fmt.Errorf("revoke refresh tokens: %w", err)
	}

	s.log.Info().Str("user_id", id.Hex()).Str("by", sub.ID.Hex()).Msg("Password reset")
	return newPassword, nil
}

// Profile returns the profile of id. Only the owner and admins may read it.
func (s *UserService) Profile(ctx context.Context, sub policy.Subject, id bson.ObjectID) (*model.User, error) {
	if err := policy.Authorize(sub, policy.ActionProfileView, policy.Resource{TargetID: id}); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateProfile edits names and optionally replaces the profile picture.
func (s *UserService) UpdateProfile(ctx context.Context, sub policy.Subject, id bson.ObjectID, form model.UpdateProfileForm, picture *Upload) (*model.User, error) {
	if err := policy.Authorize(sub, policy.ActionProfileEdit, policy.Resource{TargetID: id}); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, notFound(err)
	}

	upd := model.UserUpdate{FirstName: form.FirstName, LastName: form.LastName}
	if picture != nil {
		if !allowedImageTypes[picture.ContentType] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, picture.ContentType)
		}
		if picture.Size > s.maxBytes {
			return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, picture.Size, s.maxBytes)
		}
		key := storage.ObjectKey("profile_pictures/"+id.Hex(), picture.Filename)
		url, err := s.blobs.Put(ctx, key, picture.Body, picture.Size, picture.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store profile picture: %w", err)
		}
		upd.ProfilePicture = &url
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}

	u, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func temporaryPassword() string {
	return rand.Text()[:16]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
