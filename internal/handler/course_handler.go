package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CourseHandler handles course and roster endpoints.
type CourseHandler struct {
	courseService     *service.CourseService
	assignmentService *service.AssignmentService
	materialService   *service.MaterialService
	log               zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(
	courseService *service.CourseService,
	assignmentService *service.AssignmentService,
	materialService *service.MaterialService,
	log zerolog.Logger,
) *CourseHandler {
	return &CourseHandler{
		courseService:     courseService,
		assignmentService: assignmentService,
		materialService:   materialService,
		log:               log.With().Str("component", "course_handler").Logger(),
	}
}

// CreateCourse godoc
// POST /api/v1/courses
// Creates a course owned by the caller.
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), subject(c), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// ListCourses godoc
// GET /api/v1/courses?include_archived=&page=&per_page=
// Lists courses. Archived courses are hidden from students.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var q model.ListCoursesQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	courses, pagination, err := h.courseService.List(c.Request.Context(), subject(c), q.IncludeArchived, q.Page, q.PerPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"courses": courses}, pagination)
}

// GetCourse godoc
// GET /api/v1/courses/:id
// Returns a single course with its roster and assignment summaries.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Get(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// UpdateCourse godoc
// PATCH /api/v1/courses/:id
// Partially edits a course. Owner or admin only.
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), subject(c), id, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// ArchiveCourse godoc
// PATCH /api/v1/courses/:id/archive
// Sets or clears the archived flag.
func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	var req model.ArchiveCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.SetArchived(c.Request.Context(), subject(c), id, *req.Archived)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Enroll godoc
// POST /api/v1/courses/:id/enroll
// Adds a student to the roster. Students enroll themselves with an empty body.
func (h *CourseHandler) Enroll(c *gin.Context) {
	h.roster(c, h.courseService.Enroll)
}

// OptOut godoc
// POST /api/v1/courses/:id/opt-out
// Removes a student from the roster.
func (h *CourseHandler) OptOut(c *gin.Context) {
	h.roster(c, h.courseService.OptOut)
}

type rosterFunc func(ctx context.Context, sub policy.Subject, courseID, studentID bson.ObjectID) (*model.Course, error)

func (h *CourseHandler) roster(c *gin.Context, change rosterFunc) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	var req model.RosterRequest
	if fields := bindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	studentID, err := optionalObjectID(req.StudentID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	course, err := change(c.Request.Context(), subject(c), id, studentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// ListAssignments godoc
// GET /api/v1/courses/:id/assignments
// Lists the full assignment documents of a course.
func (h *CourseHandler) ListAssignments(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListByCourse(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

// ListMaterials godoc
// GET /api/v1/courses/:id/materials
// Lists the study materials uploaded to a course.
func (h *CourseHandler) ListMaterials(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}

	materials, err := h.materialService.ListByCourse(c.Request.Context(), subject(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"materials": materials})
}
