package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/response"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CoursePerPage is the default page size of course listings.
const CoursePerPage = 8

// CourseService manages the course lifecycle and roster.
type CourseService struct {
	courses CourseStore
	users   UserStore
	log     zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses CourseStore, users UserStore, log zerolog.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		users:   users,
		log:     log.With().Str("component", "courses").Logger(),
	}
}

// Create adds a course owned by the caller.
func (s *CourseService) Create(ctx context.Context, sub policy.Subject, req model.CreateCourseRequest) (*model.Course, error) {
	if err := policy.Authorize(sub, policy.ActionCourseCreate, policy.Resource{}); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, sub.ID)
	if err != nil {
		return nil, notFound(err)
	}
	teachers, err := s.resolveTeachers(ctx, req.TeacherIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &model.Course{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Owner:       owner.Snapshot(),
		Teachers:    teachers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.log.Info().Str("course_id", c.ID.Hex()).Str("owner", sub.ID.Hex()).Msg("Course created")
	return c, nil
}

// List returns a page of courses. Archived courses are listed only on request,
// and never for students.
func (s *CourseService) List(ctx context.Context, sub policy.Subject, includeArchived bool, page, perPage int) ([]model.Course, *response.Pagination, error) {
	if err := policy.Authorize(sub, policy.ActionCourseView, policy.Resource{}); err != nil {
		return nil, nil, err
	}
	if sub.Role == model.RoleStudent {
		includeArchived = false
	}

	page, perPage, offset := pageWindow(page, perPage, CoursePerPage)
	courses, total, err := s.courses.List(ctx, includeArchived, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, response.NewPagination(page, perPage, total), nil
}

// Get returns one course, archived or not.
func (s *CourseService) Get(ctx context.Context, sub policy.Subject, id bson.ObjectID) (*model.Course, error) {
	if err := policy.Authorize(sub, policy.ActionCourseView, policy.Resource{}); err != nil {
		return nil, err
	}
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Update merges the non-nil fields of req into the course.
func (s *CourseService) Update(ctx context.Context, sub policy.Subject, id bson.ObjectID, req model.UpdateCourseRequest) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionCourseEdit, policy.Resource{OwnerID: c.Owner.ID}); err != nil {
		return nil, err
	}

	upd := model.CourseUpdate{Description: req.Description}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		upd.Name = &name
	}
	if req.TeacherIDs != nil {
		teachers, err := s.resolveTeachers(ctx, *req.TeacherIDs)
		if err != nil {
			return nil, err
		}
		upd.Teachers = &teachers
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}

	updated, err := s.courses.Update(ctx, id, upd)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

// SetArchived archives or restores a course.
func (s *CourseService) SetArchived(ctx context.Context, sub policy.Subject, id bson.ObjectID, archived bool) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionCourseArchive, policy.Resource{OwnerID: c.Owner.ID}); err != nil {
		return nil, err
	}

	updated, err := s.courses.SetArchived(ctx, id, archived)
	if err != nil {
		return nil, notFound(err)
	}
	s.log.Info().Str("course_id", id.Hex()).Bool("archived", archived).Msg("Course archive state changed")
	return updated, nil
}

// Enroll adds studentID to the roster. A zero studentID means the caller.
func (s *CourseService) Enroll(ctx context.Context, sub policy.Subject, courseID, studentID bson.ObjectID) (*model.Course, error) {
	if studentID.IsZero() {
		studentID = sub.ID
	}

	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionCourseEnroll, policy.Resource{OwnerID: c.Owner.ID, TargetID: studentID}); err != nil {
		return nil, err
	}
	if c.Archived {
		return nil, ErrCourseArchived
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, notFound(err)
	}
	if student.Role != model.RoleStudent || !student.IsActive {
		return nil, ErrInvalidMember
	}
	if c.HasStudent(studentID) {
		return nil, ErrAlreadyEnrolled
	}

	updated, err := s.courses.AddStudent(ctx, courseID, model.StudentRef{ID: studentID, Name: student.DisplayName()})
	if err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, notFound(err)
	}

	s.log.Info().Str("course_id", courseID.Hex()).Str("student_id", studentID.Hex()).Msg("Student enrolled")
	return updated, nil
}

// OptOut removes studentID from the roster. A zero studentID means the caller.
func (s *CourseService) OptOut(ctx context.Context, sub policy.Subject, courseID, studentID bson.ObjectID) (*model.Course, error) {
	if studentID.IsZero() {
		studentID = sub.ID
	}

	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionCourseOptOut, policy.Resource{OwnerID: c.Owner.ID, TargetID: studentID}); err != nil {
		return nil, err
	}
	if !c.HasStudent(studentID) {
		return nil, ErrNotEnrolled
	}

	updated, err := s.courses.RemoveStudent(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return nil, ErrNotEnrolled
		}
		return nil, notFound(err)
	}

	s.log.Info().Str("course_id", courseID.Hex()).Str("student_id", studentID.Hex()).Msg("Student opted out")
	return updated, nil
}

// resolveTeachers loads co-teacher snapshots. Every ID must be a teacher or admin.
func (s *CourseService) resolveTeachers(ctx context.Context, ids []string) ([]model.UserSnapshot, error) {
	teachers := make([]model.UserSnapshot, 0, len(ids))
	seen := make(map[bson.ObjectID]bool, len(ids))
	for _, raw := range ids {
		id, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMember, raw)
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidMember, raw)
			}
			return nil, fmt.Errorf("load teacher: %w", err)
		}
		if !u.Role.CanOwnCourses() {
			return nil, fmt.Errorf("%w: %s is a %s", ErrInvalidMember, raw, u.Role)
		}
		teachers = append(teachers, u.Snapshot())
	}
	return teachers, nil
}
