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

// CourseRepository is an in-memory course store.
type CourseRepository struct {
	mu      sync.RWMutex
	courses map[bson.ObjectID]model.Course
}

// NewCourseRepository creates an empty CourseRepository.
func NewCourseRepository() *CourseRepository {
	return &CourseRepository{courses: make(map[bson.ObjectID]model.Course)}
}

func cloneCourse(c model.Course) model.Course {
	c.Teachers = slices.Clone(c.Teachers)
	c.Students = slices.Clone(c.Students)
	c.Assignments = slices.Clone(c.Assignments)
	if c.Teachers == nil {
		c.Teachers = []model.UserSnapshot{}
	}
	if c.Students == nil {
		c.Students = []model.StudentRef{}
	}
	if c.Assignments == nil {
		c.Assignments = []model.AssignmentSummary{}
	}
	return c
}

func (r *CourseRepository) Create(_ context.Context, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	*c = cloneCourse(*c)
	r.courses[c.ID] = cloneCourse(*c)
	return nil
}

func (r *CourseRepository) GetByID(_ context.Context, id bson.ObjectID) (*model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = cloneCourse(c)
	return &c, nil
}

func (r *CourseRepository) List(_ context.Context, includeArchived bool, limit, offset int) ([]model.Course, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Course
	for _, c := range r.courses {
		if c.Archived && !includeArchived {
			continue
		}
		out = append(out, cloneCourse(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), len(out), nil
}

// mutate applies fn to the stored course under the write lock and returns a copy.
// fn returns false to signal that its guard excluded the update.
func (r *CourseRepository) mutate(id bson.ObjectID, fn func(c *model.Course) bool) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = cloneCourse(c)
	if !fn(&c) {
		return nil, repository.ErrNoMatch
	}
	c.UpdatedAt = time.Now().UTC()
	r.courses[id] = c

	out := cloneCourse(c)
	return &out, nil
}

func (r *CourseRepository) Update(_ context.Context, id bson.ObjectID, upd model.CourseUpdate) (*model.Course, error) {
	return r.mutate(id, func(c *model.Course) bool {
		if upd.Name != nil {
			c.Name = *upd.Name
		}
		if upd.Description != nil {
			c.Description = *upd.Description
		}
		if upd.Teachers != nil {
			c.Teachers = slices.Clone(*upd.Teachers)
		}
		return true
	})
}

func (r *CourseRepository) SetArchived(_ context.Context, id bson.ObjectID, archived bool) (*model.Course, error) {
	return r.mutate(id, func(c *model.Course) bool {
		c.Archived = archived
		return true
	})
}

func (r *CourseRepository) AddStudent(_ context.Context, id bson.ObjectID, ref model.StudentRef) (*model.Course, error) {
	return r.mutate(id, func(c *model.Course) bool {
		if c.HasStudent(ref.ID) {
			return false
		}
		c.Students = append(c.Students, ref)
		return true
	})
}

func (r *CourseRepository) RemoveStudent(_ context.Context, id, studentID bson.ObjectID) (*model.Course, error) {
	return r.mutate(id, func(c *model.Course) bool {
		before := len(c.Students)
		c.Students = slices.DeleteFunc(c.Students, func(s model.StudentRef) bool { return s.ID == studentID })
		return len(c.Students) != before
	})
}

func (r *CourseRepository) PushAssignment(_ context.Context, id bson.ObjectID, s model.AssignmentSummary) error {
	_, err := r.mutate(id, func(c *model.Course) bool {
		c.Assignments = append(c.Assignments, s)
		return true
	})
	return err
}

func (r *CourseRepository) ReplaceAssignment(_ context.Context, id bson.ObjectID, s model.AssignmentSummary) error {
	_, err := r.mutate(id, func(c *model.Course) bool {
		for i := range c.Assignments {
			if c.Assignments[i].ID == s.ID {
				c.Assignments[i] = s
			}
		}
		return true
	})
	return err
}

func (r *CourseRepository) PullAssignment(_ context.Context, id, assignmentID bson.ObjectID) error {
	_, err := r.mutate(id, func(c *model.Course) bool {
		c.Assignments = slices.DeleteFunc(c.Assignments, func(s model.AssignmentSummary) bool { return s.ID == assignmentID })
		return true
	})
	return err
}
