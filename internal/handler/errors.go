package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
)

type errorMapping struct {
	status int
	code   response.ErrCode
}

// serviceErrors maps service sentinels to their HTTP status and error code.
var serviceErrors = map[error]errorMapping{
	service.ErrInvalidCredentials: {http.StatusUnauthorized, response.ErrInvalidCredentials},
	service.ErrAccountLocked:      {http.StatusForbidden, response.ErrAccountLocked},
	service.ErrTokenInvalid:       {http.StatusUnauthorized, response.ErrTokenInvalid},
	service.ErrTokenExpired:       {http.StatusUnauthorized, response.ErrTokenExpired},
	service.ErrRefreshInvalid:     {http.StatusUnauthorized, response.ErrRefreshInvalid},
	service.ErrRefreshExpired:     {http.StatusUnauthorized, response.ErrRefreshExpired},

	service.ErrNotFound:         {http.StatusNotFound, response.ErrNotFound},
	service.ErrUserExists:       {http.StatusConflict, response.ErrUserExists},
	service.ErrSelfModification: {http.StatusForbidden, response.ErrSelfModification},
	service.ErrInvalidMember:    {http.StatusBadRequest, response.ErrInvalidMember},
	service.ErrNoChanges:        {http.StatusBadRequest, response.ErrNoChanges},

	service.ErrCourseArchived:        {http.StatusConflict, response.ErrCourseArchived},
	service.ErrAlreadyEnrolled:       {http.StatusConflict, response.ErrAlreadyEnrolled},
	service.ErrNotEnrolled:           {http.StatusBadRequest, response.ErrNotEnrolled},
	service.ErrCompletionNotEnrolled: {http.StatusForbidden, response.ErrNotEnrolled},
	service.ErrAlreadyCompleted:      {http.StatusConflict, response.ErrAlreadyCompleted},

	service.ErrFileRequired:        {http.StatusBadRequest, response.ErrFileRequired},
	service.ErrUnsupportedFileType: {http.StatusBadRequest, response.ErrUnsupportedFile},
	service.ErrFileTooLarge:        {http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
}

// fail writes the error response for err. Unknown errors are logged and reported as 500.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var denial *policy.Denial
	if errors.As(err, &denial) {
		code := response.ErrRoleMismatch
		if denial.Reason == policy.ReasonNotOwner {
			code = response.ErrNotOwner
		}
		response.Fail(c, http.StatusForbidden, code)
		return
	}

	for target, m := range serviceErrors {
		if errors.Is(err, target) {
			response.Fail(c, m.status, m.code)
			return
		}
	}

	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Str("request_id", response.RequestID(c)).
		Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
