package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/token"
	"github.com/semana-app/companion/pkg/response"
)

const (
	// ContextUserID is the key for participant ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for participant role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for participant email in gin context.
	ContextUserEmail = "user_email"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// JWT returns a middleware that validates JWT and sets participant claims in context.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := validator.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.ParticipantID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated participant ID set by JWT.
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextUserID).(uuid.UUID)
}

// IsAdmin reports whether the authenticated participant has the admin role.
func IsAdmin(c *gin.Context) bool {
	role, _ := c.Get(ContextUserRole)
	s, _ := role.(string)
	return s == "admin"
}

// SelfOrAdmin reports whether the caller is the given participant or an admin.
func SelfOrAdmin(c *gin.Context, participantID uuid.UUID) bool {
	return IsAdmin(c) || UserID(c) == participantID
}
