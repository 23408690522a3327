package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/repository/memory"
	"github.com/stemsi/classroom-backend/internal/storage"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

type fixture struct {
	cfg           *config.Config
	users         *memory.UserRepository
	tokens        *memory.RefreshTokenRepository
	courses       *memory.CourseRepository
	assignments   *memory.AssignmentRepository
	materials     *memory.MaterialRepository
	notifications *memory.NotificationRepository
	emails        *memory.EmailHistoryRepository
	blobs         *storage.LocalStore

	auth        *AuthService
	userSvc     *UserService
	courseSvc   *CourseService
	assignSvc   *AssignmentService
	materialSvc *MaterialService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:        "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		BcryptCost:       4,
		MaxUploadBytes:   1024,
	}
	log := zerolog.Nop()

	f := &fixture{
		cfg:           cfg,
		users:         memory.NewUserRepository(),
		tokens:        memory.NewRefreshTokenRepository(),
		courses:       memory.NewCourseRepository(),
		assignments:   memory.NewAssignmentRepository(),
		materials:     memory.NewMaterialRepository(),
		notifications: memory.NewNotificationRepository(),
		emails:        memory.NewEmailHistoryRepository(),
		blobs:         storage.NewLocalStore(t.TempDir(), "/uploads"),
	}
	f.auth = NewAuthService(cfg, f.users, f.tokens, nil, log)
	f.userSvc = NewUserService(f.users, f.tokens, f.auth, f.blobs, cfg.MaxUploadBytes, log)
	f.courseSvc = NewCourseService(f.courses, f.users, log)
	f.assignSvc = NewAssignmentService(f.assignments, f.courses, f.users, log)
	f.materialSvc = NewMaterialService(f.materials, f.courses, f.users, f.blobs, cfg.MaxUploadBytes, log)
	return f
}

// addUser stores an active user with testPassword and returns it with its subject.
func (f *fixture) addUser(t *testing.T, username string, role model.Role) (*model.User, policy.Subject) {
	t.Helper()

	hash, err := f.auth.HashPassword(testPassword)
	require.NoError(t, err)

	u := &model.User{
		Username:     username,
		Email:        username + "@school.test",
		FirstName:    username,
		LastName:     "Test",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u, policy.Subject{ID: u.ID, Email: u.Email, Role: role}
}

func (f *fixture) addCourse(t *testing.T, owner policy.Subject) *model.Course {
	t.Helper()
	c, err := f.courseSvc.Create(context.Background(), owner, model.CreateCourseRequest{Name: "Algebra", Description: "Linear equations"})
	require.NoError(t, err)
	return c
}
