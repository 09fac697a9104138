package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tasklight/tasklight/internal/apierr"
	"github.com/tasklight/tasklight/internal/todos"
	"github.com/tasklight/tasklight/pkg/middleware"
)

type CreateTodoRequest struct {
	Title string `json:"title" binding:"required"`
}

type FullTodoRequest struct {
	Title     string `json:"title" binding:"required"`
	Completed *bool  `json:"completed" binding:"required"`
}

type PartialTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// TodoHandler holds dependencies
type TodoHandler struct {
	svc *todos.Service
}

func NewTodoHandler(svc *todos.Service) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// Register routes under /todos; the whole group requires authentication.
// The /admin subtree additionally requires the admin role.
func (h *TodoHandler) Register(rg *gin.RouterGroup, verifier middleware.AccessVerifier) {
	t := rg.Group("/todos", middleware.AuthMiddleware(verifier))
	t.GET("", h.List)
	t.POST("", h.Create)
	t.GET("/:id", h.Get)
	t.PUT("/:id", h.Replace)
	t.PATCH("/:id", h.Patch)
	t.DELETE("/:id", h.Delete)

	admin := rg.Group("/admin", middleware.AuthMiddleware(verifier), middleware.RequireAdmin())
	admin.GET("/todos", h.ListAll)
}

func (h *TodoHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	out, err := h.svc.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": out})
}

// ListAll returns every user's todos. Admin only.
func (h *TodoHandler) ListAll(c *gin.Context) {
	out, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": out})
}

func (h *TodoHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := todoID(c)
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": t})
}

func (h *TodoHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("title is required"))
		return
	}
	t, err := h.svc.Create(c.Request.Context(), user.ID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"todo": t})
}

// Replace overwrites title and completed (PUT semantics)
func (h *TodoHandler) Replace(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := todoID(c)
	if !ok {
		return
	}
	var req FullTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("title and completed are required"))
		return
	}
	t, err := h.svc.Update(c.Request.Context(), user.ID, id, todos.FullUpdate{
		Title:     req.Title,
		Completed: *req.Completed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": t})
}

// Patch updates only the provided fields (PATCH semantics)
func (h *TodoHandler) Patch(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := todoID(c)
	if !ok {
		return
	}
	var req PartialTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("invalid request body"))
		return
	}
	t, err := h.svc.Update(c.Request.Context(), user.ID, id, todos.PartialUpdate{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": t})
}

func (h *TodoHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := todoID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apierr.BadRequest("invalid todo id"))
		return 0, false
	}
	return id, true
}
