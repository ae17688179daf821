package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware for downstream handlers.
const (
	ContextUserID      = "userID"
	ContextUserEmail   = "userEmail"
	ContextDisplayName = "userDisplayName"
	ContextIsAdmin     = "isAdmin"
)

// ErrorResponse mirrors the one in internal/api/dto_models.go to avoid an
// import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware verifies Firebase ID tokens from the Authorization header.
type AuthMiddleware struct {
	authClient *auth.Client
	logger     *zap.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. A nil auth client is a setup
// error the application cannot run with.
func NewAuthMiddleware(authClient *auth.Client, logger *zap.Logger) *AuthMiddleware {
	if authClient == nil {
		panic("Firebase Auth client is required for AuthMiddleware")
	}
	return &AuthMiddleware{authClient: authClient, logger: logger}
}

// VerifyToken requires a valid Bearer token and sets user identity in the
// Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.verify(c)
		if !ok {
			return
		}
		m.setIdentity(c, token)
		c.Next()
	}
}

// OptionalToken sets user identity when a valid Bearer token is present and
// lets anonymous requests through untouched. A token that is present but
// invalid is still rejected.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := m.verify(c)
		if !ok {
			return
		}
		m.setIdentity(c, token)
		c.Next()
	}
}

// RequireAdmin requires a valid token carrying the "admin" custom claim.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.verify(c)
		if !ok {
			return
		}
		if isAdmin, _ := token.Claims["admin"].(bool); !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Administrator access required"})
			return
		}
		m.setIdentity(c, token)
		c.Set(ContextIsAdmin, true)
		c.Next()
	}
}

func (m *AuthMiddleware) verify(c *gin.Context) (*auth.Token, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
		return nil, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
		return nil, false
	}

	token, err := m.authClient.VerifyIDToken(c.Request.Context(), parts[1])
	if err != nil {
		m.logger.Warn("ID token verification failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
		return nil, false
	}
	return token, true
}

func (m *AuthMiddleware) setIdentity(c *gin.Context, token *auth.Token) {
	c.Set(ContextUserID, token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set(ContextUserEmail, email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		c.Set(ContextDisplayName, name)
	}
}
