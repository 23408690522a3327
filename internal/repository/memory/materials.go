package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaterialRepository is an in-memory material store.
type MaterialRepository struct {
	mu        sync.RWMutex
	materials map[bson.ObjectID]model.Material
}

// NewMaterialRepository creates an empty MaterialRepository.
func NewMaterialRepository() *MaterialRepository {
	return &MaterialRepository{materials: make(map[bson.ObjectID]model.Material)}
}

func (r *MaterialRepository) Create(_ context.Context, m *model.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID.IsZero() {
		m.ID = bson.NewObjectID()
	}
	r.materials[m.ID] = *m
	return nil
}

func (r *MaterialRepository) GetByID(_ context.Context, id bson.ObjectID) (*model.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.materials[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *MaterialRepository) ListByCourse(_ context.Context, courseID bson.ObjectID) ([]model.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Material{}
	for _, m := range r.materials {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r *MaterialRepository) Update(_ context.Context, id bson.ObjectID, upd model.MaterialUpdate) (*model.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.materials[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Title != nil {
		m.Title = *upd.Title
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	m.UpdatedAt = time.Now().UTC()
	r.materials[id] = m
	return &m, nil
}

func (r *MaterialRepository) Delete(_ context.Context, id bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.materials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.materials, id)
	return nil
}
