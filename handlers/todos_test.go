package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tasklight/tasklight/internal/models"
)

func authHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestTodosRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	w := doJSON(r, "GET", "/api/todos", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTodoCRUD(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	access, _ := registerUser(t, r, "alice@example.com")

	w := doJSON(r, "POST", "/api/todos", gin.H{"title": "buy milk"}, authHeader(access))
	require.Equal(t, http.StatusCreated, w.Code)
	todo := decode(t, w)["todo"].(map[string]interface{})
	id := int64(todo["id"].(float64))
	require.Equal(t, "buy milk", todo["title"])
	require.Equal(t, false, todo["completed"])

	w = doJSON(r, "GET", "/api/todos", nil, authHeader(access))
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["todos"].([]interface{})
	require.Len(t, list, 1)

	// PUT replaces both fields
	w = doJSON(r, "PUT", fmt.Sprintf("/api/todos/%d", id),
		gin.H{"title": "buy oat milk", "completed": true}, authHeader(access))
	require.Equal(t, http.StatusOK, w.Code)
	todo = decode(t, w)["todo"].(map[string]interface{})
	require.Equal(t, "buy oat milk", todo["title"])
	require.Equal(t, true, todo["completed"])

	// PATCH changes only what is sent
	w = doJSON(r, "PATCH", fmt.Sprintf("/api/todos/%d", id),
		gin.H{"completed": false}, authHeader(access))
	require.Equal(t, http.StatusOK, w.Code)
	todo = decode(t, w)["todo"].(map[string]interface{})
	require.Equal(t, "buy oat milk", todo["title"])
	require.Equal(t, false, todo["completed"])

	w = doJSON(r, "DELETE", fmt.Sprintf("/api/todos/%d", id), nil, authHeader(access))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, "GET", fmt.Sprintf("/api/todos/%d", id), nil, authHeader(access))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTodosAreTenantIsolated(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	aliceTok, _ := registerUser(t, r, "alice@example.com")
	bobTok, _ := registerUser(t, r, "bob@example.com")

	w := doJSON(r, "POST", "/api/todos", gin.H{"title": "alice's task"}, authHeader(aliceTok))
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decode(t, w)["todo"].(map[string]interface{})["id"].(float64))

	// bob sees an empty list and cannot touch alice's todo
	w = doJSON(r, "GET", "/api/todos", nil, authHeader(bobTok))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decode(t, w)["todos"])

	w = doJSON(r, "GET", fmt.Sprintf("/api/todos/%d", id), nil, authHeader(bobTok))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, "DELETE", fmt.Sprintf("/api/todos/%d", id), nil, authHeader(bobTok))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminTodoListing(t *testing.T) {
	r, svc := newTestRouter(t, 100)
	aliceTok, _ := registerUser(t, r, "alice@example.com")
	bobTok, _ := registerUser(t, r, "bob@example.com")

	// admins are provisioned through the service, not the public endpoint
	_, adminPair, err := svc.Register(context.Background(), "root@example.com", "password123", models.RoleAdmin, "unknown")
	require.NoError(t, err)
	adminTok := adminPair.AccessToken

	w := doJSON(r, "POST", "/api/todos", gin.H{"title": "alice's task"}, authHeader(aliceTok))
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(r, "POST", "/api/todos", gin.H{"title": "bob's task"}, authHeader(bobTok))
	require.Equal(t, http.StatusCreated, w.Code)

	// a plain user is forbidden
	w = doJSON(r, "GET", "/api/admin/todos", nil, authHeader(aliceTok))
	require.Equal(t, http.StatusForbidden, w.Code)

	// the admin sees both tenants
	w = doJSON(r, "GET", "/api/admin/todos", nil, authHeader(adminTok))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode(t, w)["todos"], 2)
}

func TestTodoValidation(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	access, _ := registerUser(t, r, "alice@example.com")

	w := doJSON(r, "POST", "/api/todos", gin.H{"title": "   "}, authHeader(access))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "GET", "/api/todos/not-a-number", nil, authHeader(access))
	require.Equal(t, http.StatusBadRequest, w.Code)

	// PUT without completed is rejected by binding
	w = doJSON(r, "PUT", "/api/todos/1", gin.H{"title": "x"}, authHeader(access))
	require.Equal(t, http.StatusBadRequest, w.Code)

	// PATCH with no fields at all
	created := doJSON(r, "POST", "/api/todos", gin.H{"title": "ok"}, authHeader(access))
	require.Equal(t, http.StatusCreated, created.Code)
	id := int64(decode(t, created)["todo"].(map[string]interface{})["id"].(float64))
	w = doJSON(r, "PATCH", fmt.Sprintf("/api/todos/%d", id), gin.H{}, authHeader(access))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
