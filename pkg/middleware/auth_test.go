package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tasklight/tasklight/internal/models"
)

type stubVerifier struct {
	user models.AuthUser
	err  error
}

func (s *stubVerifier) VerifyAccess(string) (models.AuthUser, error) {
	return s.user, s.err
}

func protectedRouter(ver AccessVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware(ver)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	r.GET("/p", chain...)
	return r
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	r := protectedRouter(&stubVerifier{})

	req := httptest.NewRequest("GET", "/p", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareBadScheme(t *testing.T) {
	r := protectedRouter(&stubVerifier{})

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	r := protectedRouter(&stubVerifier{err: errors.New("bad token")})

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	ver := &stubVerifier{user: models.AuthUser{ID: 7, Email: "a@b.c", Role: models.RoleUser}}
	r := protectedRouter(ver)

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":7`)
}

func TestRequireAdmin(t *testing.T) {
	asUser := &stubVerifier{user: models.AuthUser{ID: 1, Role: models.RoleUser}}
	r := protectedRouter(asUser, RequireAdmin())

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	asAdmin := &stubVerifier{user: models.AuthUser{ID: 2, Role: models.RoleAdmin}}
	r = protectedRouter(asAdmin, RequireAdmin())

	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
