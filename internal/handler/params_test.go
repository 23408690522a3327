package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/validator"
	"github.com/stretchr/testify/assert"
)

func TestBindOptional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator.Setup()

	studentID := "65f1a2b3c4d5e6f7a8b9c0d1"
	tests := []struct {
		name    string
		body    string
		length  int64
		want    string
		invalid bool
	}{
		{"no body", "", 0, "", false},
		{"empty chunked body", "", -1, "", false},
		{"chunked body", `{"student_id":"` + studentID + `"}`, -1, studentID, false},
		{"sized body", `{"student_id":"` + studentID + `"}`, int64(len(studentID) + 17), studentID, false},
		{"bad id", `{"student_id":"nope"}`, -1, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			req := httptest.NewRequest(http.MethodPost, "/courses/x/enroll", io.NopCloser(strings.NewReader(tc.body)))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = tc.length
			c.Request = req

			var dst model.RosterRequest
			fields := bindOptional(c, &dst)
			if tc.invalid {
				assert.NotEmpty(t, fields)
				return
			}
			assert.Nil(t, fields)
			assert.Equal(t, tc.want, dst.StudentID)
		})
	}
}
