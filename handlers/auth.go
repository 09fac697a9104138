package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tasklight/tasklight/internal/apierr"
	"github.com/tasklight/tasklight/internal/auth"
	"github.com/tasklight/tasklight/internal/models"
	"github.com/tasklight/tasklight/pkg/logger"
	"github.com/tasklight/tasklight/pkg/metrics"
	"github.com/tasklight/tasklight/pkg/middleware"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	svc            *auth.Service
	loginLimiter   gin.HandlerFunc
	refreshLimiter gin.HandlerFunc
}

func NewAuthHandler(svc *auth.Service, loginLimiter, refreshLimiter gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, loginLimiter: loginLimiter, refreshLimiter: refreshLimiter}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup, verifier middleware.AccessVerifier) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.loginLimiter, h.Login)
	a.POST("/refresh", h.refreshLimiter, h.Refresh)
	a.POST("/logout", h.Logout)
	a.GET("/me", middleware.AuthMiddleware(verifier), h.Me)
}

// RegisterUser creates an account and returns the user plus a token pair.
// Accounts are always created with the user role; admins are provisioned out
// of band, never through this endpoint.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("email and password (min 8 chars) are required"))
		return
	}

	user, pair, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, models.RoleUser, middleware.DeviceID(c))
	if err != nil {
		metrics.AuthOutcomes.WithLabelValues("register", "failure").Inc()
		respondError(c, err)
		return
	}
	metrics.AuthOutcomes.WithLabelValues("register", "success").Inc()
	c.JSON(http.StatusCreated, gin.H{"user": user, "accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

// Login verifies credentials and returns a fresh token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("email and password are required"))
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, middleware.DeviceID(c))
	if err != nil {
		metrics.AuthOutcomes.WithLabelValues("login", "failure").Inc()
		respondError(c, err)
		return
	}
	metrics.AuthOutcomes.WithLabelValues("login", "success").Inc()
	c.JSON(http.StatusOK, gin.H{"user": user, "accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

// Refresh rotates the presented refresh token and returns a new pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("refreshToken is required"))
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken, middleware.DeviceID(c))
	if err != nil {
		metrics.TokenRotations.WithLabelValues("rejected").Inc()
		respondError(c, err)
		return
	}
	metrics.TokenRotations.WithLabelValues("rotated").Inc()
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

// Logout revokes the session family behind the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.BadRequest("refreshToken is required"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken, middleware.DeviceID(c)); err != nil {
		logger.Debugf("logout rejected: %v", err)
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user's account
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apierr.Unauthorized("authentication required"))
		return
	}
	out, err := h.svc.Me(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": out})
}
