package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/policy"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailMapsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"role denial", &policy.Denial{Role: model.RoleStudent, Reason: policy.ReasonRoleMismatch}, http.StatusForbidden, response.ErrRoleMismatch},
		{"owner denial", &policy.Denial{Role: model.RoleTeacher, Reason: policy.ReasonNotOwner}, http.StatusForbidden, response.ErrNotOwner},
		{"wrapped sentinel", fmt.Errorf("upload: %w", service.ErrFileTooLarge), http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
		{"opt-out not enrolled", service.ErrNotEnrolled, http.StatusBadRequest, response.ErrNotEnrolled},
		{"completion not enrolled", service.ErrCompletionNotEnrolled, http.StatusForbidden, response.ErrNotEnrolled},
		{"locked", service.ErrAccountLocked, http.StatusForbidden, response.ErrAccountLocked},
		{"unknown", errors.New("mongo exploded"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			fail(c, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 42s", formatDuration(42*time.Second))
	assert.Equal(t, "2h 3m 4s", formatDuration(2*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "1d 1h 0m 0s", formatDuration(25*time.Hour))
}
