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
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AssignmentService manages assignments and their completion records.
// Each assignment is mirrored as a summary on its course.
type AssignmentService struct {
	assignments AssignmentStore
	courses     CourseStore
	users       UserStore
	log         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(assignments AssignmentStore, courses CourseStore, users UserStore, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		courses:     courses,
		users:       users,
		log:         log.With().Str("component", "assignments").Logger(),
	}
}

// Create adds an assignment to an active course.
func (s *AssignmentService) Create(ctx context.Context, sub policy.Subject, req model.CreateAssignmentRequest) (*model.Assignment, error) {
	if err := policy.Authorize(sub, policy.ActionAssignmentCreate, policy.Resource{}); err != nil {
		return nil, err
	}

	courseID, err := bson.ObjectIDFromHex(req.CourseID)
	if err != nil {
		return nil, ErrNotFound
	}
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err)
	}
	if c.Archived {
		return nil, ErrCourseArchived
	}

	teacher, err := s.users.GetByID(ctx, sub.ID)
	if err != nil {
		return nil, notFound(err)
	}

	now := time.Now().UTC()
	a := &model.Assignment{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Deadline:    req.Deadline,
		Teacher:     teacher.Snapshot(),
		CourseID:    courseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	if err := s.courses.PushAssignment(ctx, courseID, a.Summary()); err != nil {
		if derr := s.assignments.Delete(ctx, a.ID); derr != nil {
			s.log.Error().Err(derr).Str("assignment_id", a.ID.Hex()).Msg("Failed to roll back assignment")
		}
		return nil, fmt.Errorf("link assignment to course: %w", err)
	}

	s.log.Info().Str("assignment_id", a.ID.Hex()).Str("course_id", courseID.Hex()).Msg("Assignment created")
	return a, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, sub policy.Subject, id bson.ObjectID) (*model.Assignment, error) {
	if err := policy.Authorize(sub, policy.ActionAssignmentView, policy.Resource{}); err != nil {
		return nil, err
	}
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListByCourse returns every assignment of a course.
func (s *AssignmentService) ListByCourse(ctx context.Context, sub policy.Subject, courseID bson.ObjectID) ([]model.Assignment, error) {
	if err := policy.Authorize(sub, policy.ActionAssignmentView, policy.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFound(err)
	}
	list, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return list, nil
}

// Update edits an assignment and refreshes its course summary.
func (s *AssignmentService) Update(ctx context.Context, sub policy.Subject, id bson.ObjectID, req model.UpdateAssignmentRequest) (*model.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionAssignmentUpdate, policy.Resource{OwnerID: a.Teacher.ID}); err != nil {
		return nil, err
	}

	upd := model.AssignmentUpdate{Description: req.Description, Deadline: req.Deadline}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		upd.Title = &title
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}

	updated, err := s.assignments.Update(ctx, id, upd)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.courses.ReplaceAssignment(ctx, updated.CourseID, updated.Summary()); err != nil {
		s.log.Warn().Err(err).Str("assignment_id", id.Hex()).Msg("Course summary not refreshed")
	}
	return updated, nil
}

// Delete removes an assignment and its course summary.
func (s *AssignmentService) Delete(ctx context.Context, sub policy.Subject, id bson.ObjectID) error {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionAssignmentDelete, policy.Resource{OwnerID: a.Teacher.ID}); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	if err := s.courses.PullAssignment(ctx, a.CourseID, id); err != nil {
		s.log.Warn().Err(err).Str("assignment_id", id.Hex()).Msg("Course summary not removed")
	}

	s.log.Info().Str("assignment_id", id.Hex()).Str("by", sub.ID.Hex()).Msg("Assignment deleted")
	return nil
}

// Complete records that studentID finished the assignment. A zero studentID means the caller.
func (s *AssignmentService) Complete(ctx context.Context, sub policy.Subject, id, studentID bson.ObjectID) (*model.Assignment, error) {
	if studentID.IsZero() {
		studentID = sub.ID
	}

	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := policy.Authorize(sub, policy.ActionAssignmentComplete, policy.Resource{OwnerID: a.Teacher.ID, TargetID: studentID}); err != nil {
		return nil, err
	}

	c, err := s.courses.GetByID(ctx, a.CourseID)
	if err != nil {
		return nil, notFound(err)
	}
	var ref *model.StudentRef
	for i := range c.Students {
		if c.Students[i].ID == studentID {
			ref = &c.Students[i]
			break
		}
	}
	if ref == nil {
		return nil, ErrCompletionNotEnrolled
	}
	if a.HasCompleted(studentID) {
		return nil, ErrAlreadyCompleted
	}

	updated, err := s.assignments.AddCompletion(ctx, id, model.Completion{
		StudentID:   studentID,
		StudentName: ref.Name,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return nil, ErrAlreadyCompleted
		}
		return nil, notFound(err)
	}
	return updated, nil
}
