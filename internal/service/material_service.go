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
	"github.com/stemsi/classroom-backend/internal/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaterialService stores study files and their metadata.
type MaterialService struct {
	materials MaterialStore
	courses   CourseStore
	users     UserStore
	blobs     storage.BlobStore
	maxBytes  int64
	log       zerolog.Logger
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(materials MaterialStore, courses CourseStore, users UserStore, blobs storage.BlobStore, maxBytes int64, log zerolog.Logger) *MaterialService {
	return &MaterialService{
		materials: materials,
		courses:   courses,
		users:     users,
		blobs:     blobs,
		maxBytes:  maxBytes,
		log:       log.With().Str("component", "materials").Logger(),
	}
}

// Upload stores file under the course and records its metadata.
// The declared content type and size are recorded as received.
func (s *MaterialService) Upload(ctx context.Context, sub policy.Subject, form model.UploadMaterialForm, file *Upload) (*model.Material, error) {
	if err := policy.Authorize(sub, policy.ActionMaterialUpload, policy.Resource{}); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileRequired
	}
	if file.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, file.Size, s.maxBytes)
	}

	courseID, err := bson.ObjectIDFromHex(form.CourseID)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFound(err)
	}
	uploader, err := s.users.GetByID(ctx, sub.ID)
	if err != nil {
		return nil, notFound(err)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ObjectKey("materials/"+courseID.Hex(), file.Filename)
	url, err := s.blobs.Put(ctx, key, file.Body, file.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store material: %w", err)
	}

	now := time.Now().UTC()
	m := &model.Material{
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		FileURL:     url,
		ObjectKey:   key,
		FileName:    file.Filename,
		FileType:    contentType,
		FileSize:    file.Size,
		CourseID:    courseID,
		UploadedBy:  uploader.Snapshot(),
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		s.removeBlob(ctx, key)
		return nil, fmt.Errorf("create material: %w", err)
	}

	s.log.Info().
		Str("material_id", m.ID.Hex()).
		Str("course_id", courseID.Hex()).
		Int64("size", m.FileSize).
		Msg("Material uploaded")
	return m, nil
}

// Get returns one material.
func (s *MaterialService) Get(ctx context.Context, sub policy.Subject, id bson.ObjectID) (*model.Material, error) {
	if err := policy.Authorize(sub, policy.ActionMaterialView, policy.Resource{}); err != nil {
		return nil, err
	}
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListByCourse returns the materials of a course.
func (s *MaterialService) ListByCourse(ctx context.Context, sub policy.Subject, courseID bson.ObjectID) ([]model.Material, error) {
	if err := policy.Authorize(sub, policy.ActionMaterialView, policy.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFound(err)
	}
	list, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

// Update edits title and description. Only the course owner or an admin may edit.
func (s *MaterialService) Update(ctx context.Context, sub policy.Subject, id bson.ObjectID, req model.UpdateMaterialRequest) (*model.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	owner, err := s.ownerOf(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(sub, policy.ActionMaterialEdit, policy.Resource{OwnerID: owner}); err != nil {
		return nil, err
	}

	upd := model.MaterialUpdate{Description: req.Description}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		upd.Title = &title
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}

	updated, err := s.materials.Update(ctx, id, upd)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

// Delete removes the record, then the stored file on a best-effort basis.
func (s *MaterialService) Delete(ctx context.Context, sub policy.Subject, id bson.ObjectID) error {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	owner, err := s.ownerOf(ctx, m)
	if err != nil {
		return err
	}
	if err := policy.Authorize(sub, policy.ActionMaterialDelete, policy.Resource{OwnerID: owner}); err != nil {
		return err
	}

	if err := s.materials.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.removeBlob(ctx, m.ObjectKey)

	s.log.Info().Str("material_id", id.Hex()).Str("by", sub.ID.Hex()).Msg("Material deleted")
	return nil
}

// ownerOf returns the owner of the material's course, or the uploader if the course is gone.
func (s *MaterialService) ownerOf(ctx context.Context, m *model.Material) (bson.ObjectID, error) {
	c, err := s.courses.GetByID(ctx, m.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return m.UploadedBy.ID, nil
		}
		return bson.ObjectID{}, fmt.Errorf("load course: %w", err)
	}
	return c.Owner.ID, nil
}

func (s *MaterialService) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to delete stored file")
	}
}
