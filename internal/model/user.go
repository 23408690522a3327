package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is an account of any role.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string        `bson:"username" json:"username"`
	Email          string        `bson:"email" json:"email"`
	FirstName      string        `bson:"first_name" json:"first_name"`
	LastName       string        `bson:"last_name" json:"last_name"`
	PasswordHash   string        `bson:"password_hash" json:"-"`
	Role           Role          `bson:"role" json:"role"`
	IsActive       bool          `bson:"is_active" json:"is_active"`
	ProfilePicture string        `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// DisplayName is the full name, or the username when no name is set.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Snapshot copies the identifying fields for embedding in other documents.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{ID: u.ID, Name: u.DisplayName(), Role: u.Role}
}

// UserSnapshot is a denormalized copy of a user taken at write time.
type UserSnapshot struct {
	ID   bson.ObjectID `bson:"_id" json:"id"`
	Name string        `bson:"name" json:"name"`
	Role Role          `bson:"role,omitempty" json:"role,omitempty"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Search string
	Role   Role
}

// UserUpdate carries the fields of a partial user update. Nil fields are left untouched.
type UserUpdate struct {
	Username       *string
	Email          *string
	FirstName      *string
	LastName       *string
	Role           *Role
	PasswordHash   *string
	IsActive       *bool
	ProfilePicture *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.FirstName == nil && u.LastName == nil &&
		u.Role == nil && u.PasswordHash == nil && u.IsActive == nil && u.ProfilePicture == nil
}

// LoginRequest authenticates by username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,max=255"`
	Password   string `json:"password" binding:"required,max=128"`
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	TokenType      string `json:"token_type"`
	ExpiresIn      int64  `json:"expires_in"`
	Role           Role   `json:"role"`
	ID             string `json:"id"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse carries the new access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        Role   `json:"role"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=255"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	Role      Role   `json:"role" binding:"omitempty,oneof=admin teacher student"`
}

// UpdateUserRequest is a partial edit of another user's account.
type UpdateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Role      *Role   `json:"role" binding:"omitempty,oneof=admin teacher student"`
}

// ResetPasswordRequest optionally sets an explicit new password.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"omitempty,min=6,max=128"`
}

// ResetPasswordResponse returns the password that is now in effect.
type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}
