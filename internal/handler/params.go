package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// multipartOverhead is the allowance for form fields and boundaries on top of the file limit.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

// subject returns the authenticated caller. Unauthenticated contexts yield a zero
// subject, which the policy rejects.
func subject(c *gin.Context) policy.Subject {
	sub, _ := middleware.GetSubject(c)
	return sub
}

// objectID parses the named path parameter, writing a 400 response on failure.
func objectID(c *gin.Context, param string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(param))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return bson.ObjectID{}, false
	}
	return id, true
}

// optionalObjectID parses raw when present. An empty string yields the zero ID.
func optionalObjectID(raw string) (bson.ObjectID, error) {
	if raw == "" {
		return bson.ObjectID{}, nil
	}
	return bson.ObjectIDFromHex(raw)
}

// bindOptional binds a JSON body that callers may omit entirely.
// An empty body of unknown length reads as EOF and counts as omitted.
func bindOptional(c *gin.Context, dst any) map[string]string {
	if c.Request.ContentLength == 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return validator.TranslateErrors(err)
	}
	return nil
}

// parseMultipart caps the body at maxBytes plus form overhead and parses it.
// It writes the error response and returns false when the body is unusable.
// Non-multipart bodies are left for the form binder.
func parseMultipart(c *gin.Context, maxBytes int64) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	err := c.Request.ParseMultipartForm(multipartMemory)
	var mbe *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return true
	case errors.As(err, &mbe):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	}
	return false
}

// formFile opens the named multipart file. It returns nil when the part is absent.
// The caller closes the returned file.
func formFile(c *gin.Context, field string) (*service.Upload, multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, f, nil
}
