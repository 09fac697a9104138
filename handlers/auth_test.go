package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tasklight/tasklight/internal/audit"
	"github.com/tasklight/tasklight/internal/auth"
	"github.com/tasklight/tasklight/internal/ratelimit"
	"github.com/tasklight/tasklight/internal/sessions"
	"github.com/tasklight/tasklight/internal/todos"
	"github.com/tasklight/tasklight/internal/tokens"
	"github.com/tasklight/tasklight/internal/users"
	"github.com/tasklight/tasklight/pkg/middleware"
)

func newTestRouter(t *testing.T, loginMax int) (*gin.Engine, *auth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := tokens.NewCodec("test-secret-0123456789abcdef", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	authSvc := auth.NewService(users.NewMemoryRepository(), sessions.NewMemoryRepository(), codec, audit.NoOpSink{})
	todoSvc := todos.NewService(todos.NewMemoryRepository())

	loginLimiter := middleware.RateLimitMiddleware(ratelimit.New(loginMax, time.Minute), "login")
	refreshLimiter := middleware.RateLimitMiddleware(ratelimit.New(100, time.Minute), "refresh")

	r := gin.New()
	NewAuthHandler(authSvc, loginLimiter, refreshLimiter).Register(r.Group("/"), codec)
	NewTodoHandler(todoSvc).Register(r.Group("/api"), codec)
	return r, authSvc
}

func doJSON(r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerUser(t *testing.T, r *gin.Engine, email string) (access, refresh string) {
	t.Helper()
	w := doJSON(r, "POST", "/auth/register", gin.H{"email": email, "password": "password123"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	return body["accessToken"].(string), body["refreshToken"].(string)
}

func TestRegisterLoginFlow(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	w := doJSON(r, "POST", "/auth/register", gin.H{"email": "alice@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]interface{})
	require.Equal(t, "alice@example.com", user["email"])
	require.Equal(t, "user", user["role"])

	// duplicate email
	w = doJSON(r, "POST", "/auth/register", gin.H{"email": "alice@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// short password rejected by binding
	w = doJSON(r, "POST", "/auth/register", gin.H{"email": "bob@example.com", "password": "short"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "POST", "/auth/login", gin.H{"email": "alice@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", "/auth/login", gin.H{"email": "alice@example.com", "password": "wrongpass"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterIgnoresClientSuppliedRole(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	w := doJSON(r, "POST", "/auth/register",
		gin.H{"email": "mallory@example.com", "password": "password123", "role": "admin"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	user := body["user"].(map[string]interface{})
	require.Equal(t, "user", user["role"])

	// the issued token carries no admin privileges either
	access := body["accessToken"].(string)
	w = doJSON(r, "GET", "/api/admin/todos", nil, authHeader(access))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshRotationAndReplay(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	_, refreshA := registerUser(t, r, "alice@example.com")

	w := doJSON(r, "POST", "/auth/refresh", gin.H{"refreshToken": refreshA}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	refreshB := decode(t, w)["refreshToken"].(string)
	require.NotEqual(t, refreshA, refreshB)

	// replaying the consumed token kills the family
	w = doJSON(r, "POST", "/auth/refresh", gin.H{"refreshToken": refreshA}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, "POST", "/auth/refresh", gin.H{"refreshToken": refreshB}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutFlow(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	_, refresh := registerUser(t, r, "alice@example.com")

	w := doJSON(r, "POST", "/auth/logout", gin.H{"refreshToken": refresh}, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, "POST", "/auth/refresh", gin.H{"refreshToken": refresh}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	access, _ := registerUser(t, r, "alice@example.com")

	w := doJSON(r, "GET", "/auth/me", nil, map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	require.Equal(t, "alice@example.com", user["email"])

	w = doJSON(r, "GET", "/auth/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := doJSON(r, "POST", "/auth/login", gin.H{"email": "x@example.com", "password": "whatever1"}, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := doJSON(r, "POST", "/auth/login", gin.H{"email": "x@example.com", "password": "whatever1"}, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestDeviceMismatchOnRefresh(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	w := doJSON(r, "POST", "/auth/register",
		gin.H{"email": "alice@example.com", "password": "password123"},
		map[string]string{"X-Device-Id": "phone"})
	require.Equal(t, http.StatusCreated, w.Code)
	refresh := decode(t, w)["refreshToken"].(string)

	w = doJSON(r, "POST", "/auth/refresh", gin.H{"refreshToken": refresh},
		map[string]string{"X-Device-Id": "laptop"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// family was revoked, the original device is locked out too
	w = doJSON(r, "POST", "/auth/refresh", gin.H{"refreshToken": refresh},
		map[string]string{"X-Device-Id": "phone"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
