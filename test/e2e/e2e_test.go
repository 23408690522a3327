//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultBaseURL  = "http://localhost:8080/api/v1"
	defaultMongoURI = "mongodb://localhost:27017"
	defaultDatabase = "lms_e2e"
	adminUsername   = "e2e_admin"
	teacherUsername = "e2e_teacher"
	studentUsername = "e2e_student"
	password        = "password123"
)

var (
	baseURL      string
	adminToken   string
	teacherToken string
	studentToken string
	courseID     string
	assignmentID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = envOr("BASE_URL", defaultBaseURL)

	if err := seedUsers(); err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedUsers wipes the e2e database and inserts one account per role.
func seedUsers() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(envOr("MONGODB_URI", defaultMongoURI)))
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(envOr("MONGODB_DATABASE", defaultDatabase))

	for _, coll := range []string{"users", "refresh_tokens", "courses", "assignments", "materials", "notification_history", "email_history"} {
		if _, err := db.Collection(coll).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("cleanup %s: %w", coll, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for username, role := range map[string]model.Role{
		adminUsername:   model.RoleAdmin,
		teacherUsername: model.RoleTeacher,
		studentUsername: model.RoleStudent,
	} {
		u := model.User{
			ID:           bson.NewObjectID(),
			Username:     username,
			Email:        username + "@example.com",
			FirstName:    "E2E",
			LastName:     string(role),
			PasswordHash: string(hash),
			Role:         role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := db.Collection("users").InsertOne(ctx, u); err != nil {
			return fmt.Errorf("insert %s: %w", username, err)
		}
	}
	return nil
}

func TestE2EFlow(t *testing.T) {
	// Step 1: Login every role
	t.Run("Login", func(t *testing.T) {
		adminToken = login(t, adminUsername)
		teacherToken = login(t, teacherUsername)
		studentToken = login(t, studentUsername + "@example.com")
	})

	// Step 2: Teacher creates a course
	t.Run("CreateCourse", func(t *testing.T) {
		resp, err := do(http.MethodPost, "/courses", model.CreateCourseRequest{Name: "E2E Algebra"}, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Course struct {
					ID string `json:"id"`
				} `json:"course"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		courseID = body.Data.Course.ID
	})

	// Step 3: Student enrolls, second attempt is a conflict
	t.Run("Enroll", func(t *testing.T) {
		expectStatus(t, http.MethodPost, "/courses/"+courseID+"/enroll", nil, studentToken, http.StatusOK)
		expectStatus(t, http.MethodPost, "/courses/"+courseID+"/enroll", nil, studentToken, http.StatusConflict)
	})

	// Step 4: Teacher posts an assignment
	t.Run("CreateAssignment", func(t *testing.T) {
		deadline := time.Now().Add(48 * time.Hour).UTC()
		resp, err := do(http.MethodPost, "/assignments", model.CreateAssignmentRequest{
			Title:    "E2E Worksheet",
			Deadline: &deadline,
			CourseID: courseID,
		}, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Assignment struct {
					ID string `json:"id"`
				} `json:"assignment"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		assignmentID = body.Data.Assignment.ID
	})

	// Step 5: Student completes it exactly once
	t.Run("CompleteAssignment", func(t *testing.T) {
		expectStatus(t, http.MethodPatch, "/assignments/"+assignmentID+"/complete", nil, studentToken, http.StatusOK)
		expectStatus(t, http.MethodPatch, "/assignments/"+assignmentID+"/complete", nil, studentToken, http.StatusConflict)
	})

	// Step 6: Only the owner or an admin may archive
	t.Run("ArchiveCourse", func(t *testing.T) {
		archived := true
		req := model.ArchiveCourseRequest{Archived: &archived}
		expectStatus(t, http.MethodPatch, "/courses/"+courseID+"/archive", req, studentToken, http.StatusForbidden)
		expectStatus(t, http.MethodPatch, "/courses/"+courseID+"/archive", req, adminToken, http.StatusOK)
		expectStatus(t, http.MethodPost, "/courses/"+courseID+"/enroll", nil, studentToken, http.StatusConflict)
	})

	// Step 7: Notification lands in the student's history
	t.Run("Notification", func(t *testing.T) {
		expectStatus(t, http.MethodPost, "/create-notification", model.CreateNotificationRequest{
			Title:          "E2E",
			Message:        "Course archived",
			RecipientEmail: studentUsername + "@example.com",
		}, teacherToken, http.StatusOK)

		resp, err := do(http.MethodGet, "/notifications", nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Data struct {
				Notifications []model.NotificationHistory `json:"notifications"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		if len(body.Data.Notifications) != 1 {
			t.Errorf("Expected 1 notification, got %d", len(body.Data.Notifications))
		}
	})
}

// Helpers

func login(t *testing.T, identifier string) string {
	t.Helper()

	resp, err := do(http.MethodPost, "/login", model.LoginRequest{Identifier: identifier, Password: password}, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
	}

	var body struct {
		Data model.LoginResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	if body.Data.AccessToken == "" {
		t.Fatal("token missing")
	}
	return body.Data.AccessToken
}

func expectStatus(t *testing.T, method, path string, body any, token string, want int) {
	t.Helper()

	resp, err := do(method, path, body, token)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Errorf("%s %s: expected %d, got %d. Body: %s", method, path, want, resp.StatusCode, readBody(resp))
	}
}

func do(method, path string, body any, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
