package service

import "errors"

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrRefreshInvalid     = errors.New("refresh token invalid")
	ErrRefreshExpired     = errors.New("refresh token expired")
)

// Resource and state errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrUserExists       = errors.New("username or email already taken")
	ErrSelfModification = errors.New("cannot change own role or status")
	ErrInvalidMember    = errors.New("user cannot take that place in the course")
	ErrNoChanges        = errors.New("no fields to update")

	ErrCourseArchived  = errors.New("course is archived")
	ErrAlreadyEnrolled = errors.New("student already enrolled")
	// ErrNotEnrolled is returned when removing a student who is not on the roster.
	ErrNotEnrolled = errors.New("student not enrolled")
	// ErrCompletionNotEnrolled is returned when a student outside the roster is marked complete.
	ErrCompletionNotEnrolled = errors.New("student not enrolled in the assignment's course")
	ErrAlreadyCompleted      = errors.New("assignment already completed")

	ErrFileRequired        = errors.New("file required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)
