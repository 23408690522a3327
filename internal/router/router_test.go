package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/handler"
	"github.com/stemsi/classroom-backend/internal/mailer"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository/memory"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/storage"
	"github.com/stemsi/classroom-backend/internal/validator"
	ws "github.com/stemsi/classroom-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		Page       int `json:"page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

func (e envelope) code() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

type testServer struct {
	srv   *httptest.Server
	users *memory.UserRepository
	auth  *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:             "test",
		JWTSecret:           "access-secret",
		JWTRefreshSecret:    "refresh-secret",
		AccessTokenTTL:      time.Hour,
		RefreshTokenTTL:     24 * time.Hour,
		BcryptCost:          4,
		MaxUploadBytes:      1024,
		AuthRateLimitPerMin: 1000,
	}
	log := zerolog.Nop()

	users := memory.NewUserRepository()
	tokens := memory.NewRefreshTokenRepository()
	courses := memory.NewCourseRepository()
	assignments := memory.NewAssignmentRepository()
	materials := memory.NewMaterialRepository()
	blobs := storage.NewLocalStore(t.TempDir(), "/uploads")
	broker := ws.NewLocalBroker()

	authSvc := service.NewAuthService(cfg, users, tokens, nil, log)
	userSvc := service.NewUserService(users, tokens, authSvc, blobs, cfg.MaxUploadBytes, log)
	courseSvc := service.NewCourseService(courses, users, log)
	assignSvc := service.NewAssignmentService(assignments, courses, users, log)
	materialSvc := service.NewMaterialService(materials, courses, users, blobs, cfg.MaxUploadBytes, log)
	notifySvc := service.NewNotificationService(memory.NewNotificationRepository(), users, broker, log)
	emailSvc := service.NewEmailService(memory.NewEmailHistoryRepository(), mailer.NewConsoleSender(log), log)

	handlers := &Handlers{
		Auth:         handler.NewAuthHandler(authSvc, log),
		User:         handler.NewUserHandler(userSvc, cfg.MaxUploadBytes, log),
		Course:       handler.NewCourseHandler(courseSvc, assignSvc, materialSvc, log),
		Assignment:   handler.NewAssignmentHandler(assignSvc, log),
		Material:     handler.NewMaterialHandler(materialSvc, cfg.MaxUploadBytes, log),
		Notification: handler.NewNotificationHandler(notifySvc, emailSvc, log),
		WS:           handler.NewWSHandler(broker, log, nil),
		System:       handler.NewSystemHandler(map[string]handler.Pinger{}, log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(SetupRouter(ctx, cfg, authSvc, users, blobs, handlers, log))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, users: users, auth: authSvc}
}

func (ts *testServer) addUser(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()

	hash, err := ts.auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &model.User{
		Username:     username,
		Email:        username + "@school.test",
		FirstName:    username,
		LastName:     "Test",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, ts.users.Create(context.Background(), u))
	return u
}

func (ts *testServer) login(t *testing.T, identifier string) model.LoginResponse {
	t.Helper()

	status, env := ts.do(t, http.MethodPost, "/api/v1/login", "", model.LoginRequest{Identifier: identifier, Password: testPassword})
	require.Equal(t, http.StatusOK, status, env.code())

	var res model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func (ts *testServer) token(t *testing.T, identifier string) string {
	t.Helper()
	return ts.login(t, identifier).AccessToken
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(t, req, token)
}

func (ts *testServer) send(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func decode[T any](t *testing.T, env envelope, key string) T {
	t.Helper()

	var wrapper map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &wrapper))
	var out T
	require.NoError(t, json.Unmarshal(wrapper[key], &out))
	return out
}

func (ts *testServer) createCourse(t *testing.T, token, name string) model.Course {
	t.Helper()

	status, env := ts.do(t, http.MethodPost, "/api/v1/courses", token, model.CreateCourseRequest{Name: name})
	require.Equal(t, http.StatusCreated, status, env.code())
	return decode[model.Course](t, env, "course")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	var report struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "ok", report.Status)
	assert.NotEmpty(t, env.Metadata.RequestID)
}

func TestLoginAndRefresh(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)

	res := ts.login(t, "TINA@school.test")
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, model.RoleTeacher, res.Role)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	status, env := ts.do(t, http.MethodPost, "/api/v1/refresh", "", model.RefreshRequest{RefreshToken: res.RefreshToken})
	require.Equal(t, http.StatusOK, status, env.code())
	var refreshed model.RefreshResponse
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)

	status, env = ts.do(t, http.MethodGet, "/api/v1/users/me", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tina", decode[model.User](t, env, "user").Username)

	// An access token is not a refresh token.
	status, env = ts.do(t, http.MethodPost, "/api/v1/refresh", "", model.RefreshRequest{RefreshToken: res.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "REFRESH_TOKEN_INVALID", env.code())

	status, _ = ts.do(t, http.MethodPost, "/api/v1/logout", res.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)

	status, env := ts.do(t, http.MethodPost, "/api/v1/login", "", model.LoginRequest{Identifier: "tina", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.code())

	status, env = ts.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"identifier": "tina"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.code())
	assert.Contains(t, env.Error.Fields, "password")
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/api/v1/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_REQUIRED", env.code())

	status, env = ts.do(t, http.MethodGet, "/api/v1/courses", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", env.code())
}

func TestDisabledUserTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada", model.RoleAdmin)
	student := ts.addUser(t, "sam", model.RoleStudent)
	adminToken := ts.token(t, "ada")
	studentToken := ts.token(t, "sam")

	status, _ := ts.do(t, http.MethodPost, "/api/v1/users/"+student.ID.Hex()+"/disable", adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodGet, "/api/v1/users/me", studentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", env.code())
}

func TestDemotedTeacherLosesRights(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada", model.RoleAdmin)
	teacher := ts.addUser(t, "tina", model.RoleTeacher)
	adminToken := ts.token(t, "ada")
	teacherToken := ts.token(t, "tina")

	role := model.RoleStudent
	status, env := ts.do(t, http.MethodPut, "/api/v1/users/"+teacher.ID.Hex(), adminToken, model.UpdateUserRequest{Role: &role})
	require.Equal(t, http.StatusOK, status, env.code())

	status, env = ts.do(t, http.MethodPost, "/api/v1/courses", teacherToken, model.CreateCourseRequest{Name: "Algebra"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_MISMATCH", env.code())

	status, env = ts.do(t, http.MethodPost, "/api/v1/register", teacherToken, model.RegisterRequest{
		Username:  "newbie",
		Email:     "newbie@school.test",
		FirstName: "New",
		LastName:  "Student",
		Password:  "secret123",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_MISMATCH", env.code())
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "sam", model.RoleStudent)
	teacherToken := ts.token(t, "tina")

	req := model.RegisterRequest{
		Username:  "newbie",
		Email:     "newbie@school.test",
		FirstName: "New",
		LastName:  "Student",
		Password:  "secret123",
		Role:      model.RoleAdmin,
	}
	status, env := ts.do(t, http.MethodPost, "/api/v1/register", teacherToken, req)
	require.Equal(t, http.StatusCreated, status, env.code())
	assert.Equal(t, model.RoleStudent, decode[model.User](t, env, "user").Role)

	status, env = ts.do(t, http.MethodPost, "/api/v1/register", teacherToken, req)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "USER_ALREADY_EXISTS", env.code())

	status, env = ts.do(t, http.MethodPost, "/api/v1/register", ts.token(t, "sam"), req)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_MISMATCH", env.code())
}

func TestListUsersPagination(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada", model.RoleAdmin)
	for _, name := range []string{"sam", "sue", "sid"} {
		ts.addUser(t, name, model.RoleStudent)
	}

	status, env := ts.do(t, http.MethodGet, "/api/v1/users?role=student&per_page=2", ts.token(t, "ada"), nil)
	require.Equal(t, http.StatusOK, status, env.code())
	assert.Len(t, decode[[]model.User](t, env, "users"), 2)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalItems)

	status, env = ts.do(t, http.MethodGet, "/api/v1/users?role=janitor", ts.token(t, "ada"), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.code())
}

func TestCourseOwnership(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada", model.RoleAdmin)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "tom", model.RoleTeacher)

	course := ts.createCourse(t, ts.token(t, "tina"), "Algebra")
	path := "/api/v1/courses/" + course.ID.Hex() + "/archive"

	status, env := ts.do(t, http.MethodPatch, path, ts.token(t, "tom"), model.ArchiveCourseRequest{Archived: ptr(true)})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_RESOURCE_OWNER", env.code())

	status, env = ts.do(t, http.MethodPatch, path, ts.token(t, "ada"), model.ArchiveCourseRequest{Archived: ptr(true)})
	require.Equal(t, http.StatusOK, status, env.code())
	assert.True(t, decode[model.Course](t, env, "course").Archived)

	status, env = ts.do(t, http.MethodPatch, path, ts.token(t, "ada"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.code())
}

func TestEnrollFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "sam", model.RoleStudent)
	studentToken := ts.token(t, "sam")

	course := ts.createCourse(t, ts.token(t, "tina"), "Algebra")
	base := "/api/v1/courses/" + course.ID.Hex()

	status, env := ts.do(t, http.MethodPost, base+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusOK, status, env.code())
	assert.Len(t, decode[model.Course](t, env, "course").Students, 1)

	status, env = ts.do(t, http.MethodPost, base+"/enroll", studentToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_ENROLLED", env.code())

	status, env = ts.do(t, http.MethodPost, base+"/opt-out", studentToken, nil)
	require.Equal(t, http.StatusOK, status, env.code())
	assert.Empty(t, decode[model.Course](t, env, "course").Students)

	status, env = ts.do(t, http.MethodPost, base+"/opt-out", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_ENROLLED", env.code())
}

func TestInvalidIDs(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	token := ts.token(t, "tina")

	status, env := ts.do(t, http.MethodGet, "/api/v1/courses/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ID", env.code())

	status, env = ts.do(t, http.MethodGet, "/api/v1/courses/000000000000000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.code())
}

func TestAssignmentFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "sam", model.RoleStudent)
	ts.addUser(t, "sue", model.RoleStudent)
	teacherToken := ts.token(t, "tina")
	studentToken := ts.token(t, "sam")

	course := ts.createCourse(t, teacherToken, "Algebra")
	status, _ := ts.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.Hex()+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodPost, "/api/v1/assignments", teacherToken, model.CreateAssignmentRequest{
		Title:    "Worksheet 1",
		CourseID: course.ID.Hex(),
	})
	require.Equal(t, http.StatusCreated, status, env.code())
	assignment := decode[model.Assignment](t, env, "assignment")
	path := "/api/v1/assignments/" + assignment.ID.Hex()

	status, env = ts.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.Hex(), studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[model.Course](t, env, "course").Assignments, 1)

	status, env = ts.do(t, http.MethodPatch, path+"/complete", studentToken, nil)
	require.Equal(t, http.StatusOK, status, env.code())
	assert.Len(t, decode[model.Assignment](t, env, "assignment").StudentsCompleted, 1)

	status, env = ts.do(t, http.MethodPatch, path+"/complete", studentToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_COMPLETED", env.code())

	status, env = ts.do(t, http.MethodPatch, path+"/complete", ts.token(t, "sue"), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_ENROLLED", env.code())

	status, env = ts.do(t, http.MethodPut, path, teacherToken, map[string]string{"title": "Worksheet 1b"})
	require.Equal(t, http.StatusOK, status, env.code())
	assert.Equal(t, "Worksheet 1b", decode[model.Assignment](t, env, "assignment").Title)

	status, env = ts.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.Hex()+"/assignments", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Assignment](t, env, "assignments"), 1)

	status, _ = ts.do(t, http.MethodDelete, path, teacherToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.Hex(), studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[model.Course](t, env, "course").Assignments)
}

func multipartRequest(t *testing.T, method, url string, fields map[string]string, fileField, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + fileField + `"; filename="` + filename + `"`}
		h["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMaterialUpload(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "sam", model.RoleStudent)
	teacherToken := ts.token(t, "tina")
	course := ts.createCourse(t, teacherToken, "Algebra")
	fields := map[string]string{"title": "Week 1 notes", "course_id": course.ID.Hex()}

	req := multipartRequest(t, http.MethodPost, ts.srv.URL+"/api/v1/materials", fields, "file", "notes.pdf", "application/pdf", []byte("%PDF-1.4 notes"))
	status, env := ts.send(t, req, teacherToken)
	require.Equal(t, http.StatusCreated, status, env.code())
	material := decode[model.Material](t, env, "material")
	assert.Equal(t, "notes.pdf", material.FileName)
	require.True(t, strings.HasPrefix(material.FileURL, "/uploads/materials/"), material.FileURL)

	res, err := http.Get(ts.srv.URL + material.FileURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "%PDF-1.4 notes", string(body))
	assert.Contains(t, res.Header.Get("Cache-Control"), "immutable")

	status, env = ts.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.Hex()+"/materials", ts.token(t, "sam"), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Material](t, env, "materials"), 1)

	req = multipartRequest(t, http.MethodPost, ts.srv.URL+"/api/v1/materials", fields, "", "", "", nil)
	status, env = ts.send(t, req, teacherToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "FILE_REQUIRED", env.code())

	req = multipartRequest(t, http.MethodPost, ts.srv.URL+"/api/v1/materials", fields, "file", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2048))
	status, env = ts.send(t, req, teacherToken)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "FILE_TOO_LARGE", env.code())

	req = multipartRequest(t, http.MethodPost, ts.srv.URL+"/api/v1/materials", fields, "file", "notes.pdf", "application/pdf", []byte("x"))
	status, env = ts.send(t, req, ts.token(t, "sam"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_MISMATCH", env.code())

	status, _ = ts.do(t, http.MethodDelete, "/api/v1/materials/"+material.ID.Hex(), teacherToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/materials/"+material.ID.Hex(), teacherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.code())
}

func TestNotificationStream(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "sam", model.RoleStudent)
	teacherToken := ts.token(t, "tina")
	studentToken := ts.token(t, "sam")

	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/v1/notifications/stream?token=" + studentToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ready ws.ReadyResponse
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, ws.EventReady, ready.Event)

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)

	status, env := ts.do(t, http.MethodPost, "/api/v1/create-notification", teacherToken, model.CreateNotificationRequest{
		Title:          "Quiz tomorrow",
		Message:        "Bring a pencil",
		RecipientEmail: "sam@school.test",
	})
	require.Equal(t, http.StatusOK, status, env.code())
	sent := decode[model.NotificationHistory](t, env, "notification")
	assert.Equal(t, model.DeliverySent, sent.Status)

	var event ws.NotificationEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, ws.EventNotification, event.Event)
	assert.Equal(t, "Quiz tomorrow", event.Title)
	assert.Equal(t, sent.ID.Hex(), event.ID)

	status, env = ts.do(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.NotificationHistory](t, env, "notifications"), 1)

	status, env = ts.do(t, http.MethodPatch, "/api/v1/notifications/"+sent.ID.Hex()+"/read", teacherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_RESOURCE_OWNER", env.code())

	status, env = ts.do(t, http.MethodPatch, "/api/v1/notifications/"+sent.ID.Hex()+"/read", studentToken, nil)
	require.Equal(t, http.StatusOK, status, env.code())
	assert.True(t, decode[model.NotificationHistory](t, env, "notification").IsRead)
}

func TestNotificationStreamRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/v1/notifications/stream"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestSendEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "tina", model.RoleTeacher)
	ts.addUser(t, "sam", model.RoleStudent)

	status, env := ts.do(t, http.MethodPost, "/api/v1/send-email", ts.token(t, "tina"), model.SendEmailRequest{
		Recipient: "sam@school.test",
		Subject:   "Welcome",
		Body:      "Hello\nSee you in class",
	})
	require.Equal(t, http.StatusOK, status, env.code())
	assert.Equal(t, model.DeliverySent, decode[model.EmailHistory](t, env, "email").Status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/mail", ts.token(t, "sam"), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.EmailHistory](t, env, "emails"), 1)

	status, env = ts.do(t, http.MethodPost, "/api/v1/send-email", ts.token(t, "sam"), model.SendEmailRequest{
		Recipient: "tina@school.test",
		Subject:   "Hi",
		Body:      "Hi",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_MISMATCH", env.code())
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.code())
}

func ptr[T any](v T) *T { return &v }
