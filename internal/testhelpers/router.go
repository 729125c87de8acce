package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodshare/backend/internal/api"
	"github.com/foodshare/backend/internal/service"
)

// TestJWTSecret signs tokens in tests.
const TestJWTSecret = "test-secret"

// TestEnv bundles everything an HTTP-level test needs.
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	Auth   *service.AuthService
	Images *service.ImageService
}

// NewTestEnv builds a router with the full route table backed by an
// in-memory database and a temp media directory. Rate limiting is off.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := NewTestDB(t)
	auth := service.NewAuthService(db, TestJWTSecret)
	images := service.NewImageService(t.TempDir(), "/media", nil)

	router := gin.New()
	api.RegisterRoutes(router, db, auth, images, nil)

	return &TestEnv{DB: db, Router: router, Auth: auth, Images: images}
}

// TokenFor logs the fixture user in and returns a bearer token.
func (e *TestEnv) TokenFor(t *testing.T, email string) string {
	t.Helper()

	token, err := e.Auth.Login(email, TestPassword)
	if err != nil {
		t.Fatalf("failed to log in %s: %v", email, err)
	}
	return token
}

// Request performs an HTTP request against the test router. A non-nil body
// is JSON encoded; a non-empty token is sent as a bearer credential.
func (e *TestEnv) Request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
