package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func pdf(size int64) *Upload {
	return &Upload{
		Filename:    "Week 1 Notes.pdf",
		ContentType: "application/pdf",
		Size:        size,
		Body:        strings.NewReader(strings.Repeat("x", int(size))),
	}
}

func TestUploadMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, teacher := f.addUser(t, "tina", model.RoleTeacher)
	c := f.addCourse(t, teacher)

	m, err := f.materialSvc.Upload(ctx, teacher, model.UploadMaterialForm{Title: "Notes", CourseID: c.ID.Hex()}, pdf(10))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", m.FileType)
	assert.Equal(t, int64(10), m.FileSize)
	assert.Equal(t, "Week 1 Notes.pdf", m.FileName)
	assert.Equal(t, teacher.ID, m.UploadedBy.ID)
	assert.True(t, strings.HasPrefix(m.ObjectKey, "materials/"+c.ID.Hex()+"/"))
	assert.Equal(t, "/uploads/"+m.ObjectKey, m.FileURL)

	stored := filepath.Join(f.blobs.Dir(), filepath.FromSlash(m.ObjectKey))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Len(t, data, 10)

	list, err := f.materialSvc.ListByCourse(ctx, teacher, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := f.materialSvc.Update(ctx, teacher, m.ID, model.UpdateMaterialRequest{Description: ptr("Read before class")})
	require.NoError(t, err)
	assert.Equal(t, "Read before class", updated.Description)

	require.NoError(t, f.materialSvc.Delete(ctx, teacher, m.ID))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
	_, err = f.materialSvc.Get(ctx, teacher, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadMaterialRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, teacher := f.addUser(t, "tina", model.RoleTeacher)
	_, student := f.addUser(t, "sam", model.RoleStudent)
	c := f.addCourse(t, teacher)
	form := model.UploadMaterialForm{Title: "Notes", CourseID: c.ID.Hex()}

	_, err := f.materialSvc.Upload(ctx, student, form, pdf(10))
	var denial *policy.Denial
	require.ErrorAs(t, err, &denial)

	_, err = f.materialSvc.Upload(ctx, teacher, form, nil)
	assert.ErrorIs(t, err, ErrFileRequired)

	_, err = f.materialSvc.Upload(ctx, teacher, form, pdf(f.cfg.MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = f.materialSvc.Upload(ctx, teacher, model.UploadMaterialForm{Title: "Notes", CourseID: bson.NewObjectID().Hex()}, pdf(10))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaterialEditRequiresCourseOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, owner := f.addUser(t, "tina", model.RoleTeacher)
	_, other := f.addUser(t, "tom", model.RoleTeacher)
	_, admin := f.addUser(t, "root", model.RoleAdmin)
	c := f.addCourse(t, owner)

	m, err := f.materialSvc.Upload(ctx, other, model.UploadMaterialForm{Title: "Slides", CourseID: c.ID.Hex()}, pdf(3))
	require.NoError(t, err)

	_, err = f.materialSvc.Update(ctx, other, m.ID, model.UpdateMaterialRequest{Title: ptr("Mine")})
	var denial *policy.Denial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, policy.ReasonNotOwner, denial.Reason)

	_, err = f.materialSvc.Update(ctx, owner, m.ID, model.UpdateMaterialRequest{})
	assert.ErrorIs(t, err, ErrNoChanges)

	require.NoError(t, f.materialSvc.Delete(ctx, admin, m.ID))
}
