package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resumepilot-backend/internal/core"
	"resumepilot-backend/internal/middleware"
)

// UserHandler handles API endpoints related to user profiles.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// InitializeProfile handles POST /users/initialize. Called by the client
// after Firebase sign-in so the backend profile exists before any paid
// operation.
func (h *UserHandler) InitializeProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	email := c.GetString(middleware.ContextUserEmail)
	displayName := c.GetString(middleware.ContextDisplayName)

	user, created, err := h.userService.GetOrCreate(c.Request.Context(), userID, email, displayName)
	if err != nil {
		h.logger.Error("User profile initialization failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to initialize user profile"})
		return
	}
	if created {
		c.JSON(http.StatusCreated, user)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetCurrentProfile handles GET /users/me
func (h *UserHandler) GetCurrentProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrUserNotFound.Error()})
			return
		}
		h.logger.Error("Failed to load user profile", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}
	c.JSON(http.StatusOK, user)
}
