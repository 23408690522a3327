package service

import (
	"context"
	"errors"
	"io"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string, exclude bson.ObjectID) (bool, error)
	List(ctx context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error)
	Update(ctx context.Context, id bson.ObjectID, upd model.UserUpdate) (*model.User, error)
}

// RefreshTokenStore persists issued refresh tokens.
type RefreshTokenStore interface {
	Create(ctx context.Context, t *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteByUser(ctx context.Context, userID bson.ObjectID) error
}

// CourseStore persists courses. AddStudent, RemoveStudent return repository.ErrNoMatch
// when the roster already is in the requested state.
type CourseStore interface {
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Course, error)
	List(ctx context.Context, includeArchived bool, limit, offset int) ([]model.Course, int, error)
	Update(ctx context.Context, id bson.ObjectID, upd model.CourseUpdate) (*model.Course, error)
	SetArchived(ctx context.Context, id bson.ObjectID, archived bool) (*model.Course, error)
	AddStudent(ctx context.Context, id bson.ObjectID, ref model.StudentRef) (*model.Course, error)
	RemoveStudent(ctx context.Context, id, studentID bson.ObjectID) (*model.Course, error)
	PushAssignment(ctx context.Context, id bson.ObjectID, s model.AssignmentSummary) error
	ReplaceAssignment(ctx context.Context, id bson.ObjectID, s model.AssignmentSummary) error
	PullAssignment(ctx context.Context, id, assignmentID bson.ObjectID) error
}

// AssignmentStore persists assignments.
type AssignmentStore interface {
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Assignment, error)
	ListByCourse(ctx context.Context, courseID bson.ObjectID) ([]model.Assignment, error)
	Update(ctx context.Context, id bson.ObjectID, upd model.AssignmentUpdate) (*model.Assignment, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	AddCompletion(ctx context.Context, id bson.ObjectID, c model.Completion) (*model.Assignment, error)
}

// MaterialStore persists material metadata.
type MaterialStore interface {
	Create(ctx context.Context, m *model.Material) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Material, error)
	ListByCourse(ctx context.Context, courseID bson.ObjectID) ([]model.Material, error)
	Update(ctx context.Context, id bson.ObjectID, upd model.MaterialUpdate) (*model.Material, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// NotificationStore persists notification history.
type NotificationStore interface {
	Create(ctx context.Context, n *model.NotificationHistory) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.NotificationHistory, error)
	ListByRecipient(ctx context.Context, email string, limit, offset int) ([]model.NotificationHistory, int, error)
	MarkRead(ctx context.Context, id bson.ObjectID) (*model.NotificationHistory, error)
}

// EmailHistoryStore persists email history.
type EmailHistoryStore interface {
	Create(ctx context.Context, e *model.EmailHistory) error
	ListByRecipient(ctx context.Context, address string, limit, offset int) ([]model.EmailHistory, int, error)
}

// Upload is a file received in a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// pageWindow normalizes page and perPage and returns the matching offset.
func pageWindow(page, perPage, fallback int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = fallback
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
