package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AssignmentRepository is an in-memory assignment store.
type AssignmentRepository struct {
	mu          sync.RWMutex
	assignments map[bson.ObjectID]model.Assignment
}

// NewAssignmentRepository creates an empty AssignmentRepository.
func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{assignments: make(map[bson.ObjectID]model.Assignment)}
}

func cloneAssignment(a model.Assignment) model.Assignment {
	a.StudentsCompleted = slices.Clone(a.StudentsCompleted)
	if a.StudentsCompleted == nil {
		a.StudentsCompleted = []model.Completion{}
	}
	return a
}

func (r *AssignmentRepository) Create(_ context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	*a = cloneAssignment(*a)
	r.assignments[a.ID] = cloneAssignment(*a)
	return nil
}

func (r *AssignmentRepository) GetByID(_ context.Context, id bson.ObjectID) (*model.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = cloneAssignment(a)
	return &a, nil
}

func (r *AssignmentRepository) ListByCourse(_ context.Context, courseID bson.ObjectID) ([]model.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Assignment{}
	for _, a := range r.assignments {
		if a.CourseID == courseID {
			out = append(out, cloneAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AssignmentRepository) Update(_ context.Context, id bson.ObjectID, upd model.AssignmentUpdate) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = cloneAssignment(a)
	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.Deadline != nil {
		d := *upd.Deadline
		a.Deadline = &d
	}
	a.UpdatedAt = time.Now().UTC()
	r.assignments[id] = a

	out := cloneAssignment(a)
	return &out, nil
}

func (r *AssignmentRepository) Delete(_ context.Context, id bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.assignments, id)
	return nil
}

func (r *AssignmentRepository) AddCompletion(_ context.Context, id bson.ObjectID, c model.Completion) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNoMatch
	}
	if a.HasCompleted(c.StudentID) {
		return nil, repository.ErrNoMatch
	}
	a = cloneAssignment(a)
	a.StudentsCompleted = append(a.StudentsCompleted, c)
	r.assignments[id] = a

	out := cloneAssignment(a)
	return &out, nil
}
