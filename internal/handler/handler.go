// Package handler exposes the REST API over gin.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/relateos/internal/auth"
	"github.com/mmynk/relateos/internal/middleware"
	"github.com/mmynk/relateos/internal/service"
	"github.com/mmynk/relateos/internal/storage"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the auth and group API.
type Handler struct {
	auth   *service.AuthService
	groups *service.GroupService
	health Pinger
}

// NewHandler creates a new API handler.
func NewHandler(authSvc *service.AuthService, groupSvc *service.GroupService, health Pinger) *Handler {
	return &Handler{auth: authSvc, groups: groupSvc, health: health}
}

// RegisterRoutes mounts the API under /api on r.
func (h *Handler) RegisterRoutes(r gin.IRouter, jwtManager *auth.JWTManager) {
	api := r.Group("/api")
	api.GET("/health", h.Health)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", middleware.RequireAuth(jwtManager), h.Me)

	groups := api.Group("/groups", middleware.RequireAuth(jwtManager))
	groups.POST("", h.CreateGroup)
	groups.GET("", h.ListGroups)
	groups.POST("/join", h.JoinGroup)
	groups.GET("/:id", h.GetGroup)
	groups.POST("/:id/ideas", h.AddIdea)
	groups.POST("/:id/ideas/:ideaId/vote", h.ToggleVote)
	groups.POST("/:id/contribute", h.Contribute)
	groups.GET("/:id/pool", h.Pool)
}

// NotFound answers unknown API routes with JSON instead of the SPA page.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": fmt.Sprintf("API route not found: %s %s", c.Request.Method, c.Request.URL.Path),
	})
}

// Health reports whether the store is reachable.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service and store errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
