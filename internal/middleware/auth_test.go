package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodshare/backend/internal/types"
)

type stubValidator struct {
	claims *types.TokenClaims
	err    error
}

func (s *stubValidator) ValidateToken(string) (*types.TokenClaims, error) {
	return s.claims, s.err
}

func run(t *testing.T, handler gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var viewer *uuid.UUID
	router := gin.New()
	router.GET("/probe", handler, func(c *gin.Context) {
		viewer = ViewerID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, viewer
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "cook"}}
	invalid := &stubValidator{err: errors.New("bad token")}

	t.Run("valid token", func(t *testing.T) {
		w, viewer := run(t, AuthMiddleware(valid), "Bearer token")
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, viewer)
		assert.Equal(t, userID, *viewer)
	})

	t.Run("missing header", func(t *testing.T) {
		w, _ := run(t, AuthMiddleware(valid), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w, _ := run(t, AuthMiddleware(valid), "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w, _ := run(t, AuthMiddleware(invalid), "Bearer token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID}}
	invalid := &stubValidator{err: errors.New("bad token")}

	t.Run("valid token resolves the viewer", func(t *testing.T) {
		w, viewer := run(t, OptionalAuthMiddleware(valid), "Bearer token")
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, viewer)
		assert.Equal(t, userID, *viewer)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		w, viewer := run(t, OptionalAuthMiddleware(valid), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, viewer)
	})

	t.Run("invalid token treated as anonymous", func(t *testing.T) {
		w, viewer := run(t, OptionalAuthMiddleware(invalid), "Bearer token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, viewer)
	})
}
