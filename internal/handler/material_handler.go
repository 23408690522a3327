package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
)

// MaterialHandler handles study material endpoints.
type MaterialHandler struct {
	materialService *service.MaterialService
	maxUploadBytes  int64
	log             zerolog.Logger
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(materialService *service.MaterialService, maxUploadBytes int64, log zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		materialService: materialService,
		maxUploadBytes:  maxUploadBytes,
		log:             log.With().Str("component", "material_handler").Logger(),
	}
}

// UploadMaterial godoc
// POST /api/v1/materials
// Multipart upload of a "file" part plus title, description and course_id fields.
func (h *MaterialHandler) UploadMaterial(c *gin.Context) {
	if !parseMultipart(c, h.maxUploadBytes) {
		return
	}

	var form model.UploadMaterialForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	upload, file, err := formFile(c, "file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if file != nil {
		defer file.Close()
	}

	material, err := h.materialService.Upload(c.Request.Context(), subject(c), form, upload)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"material": material})
}

// GetMaterial godoc
// GET /api/v1/materials/:id
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	material, err := h.materialService.Get(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"material": material})
}

// UpdateMaterial godoc
// PUT /api/v1/materials/:id
// Edits title and description. The file itself is immutable.
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateMaterialRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	material, err := h.materialService.Update(c.Request.Context(), subject(c), id, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"material": material})
}

// DeleteMaterial godoc
// DELETE /api/v1/materials/:id
// Deletes the metadata record and the stored file.
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	if err := h.materialService.Delete(c.Request.Context(), subject(c), id); err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Material deleted."})
}
