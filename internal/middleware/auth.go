package middleware

import (
	"net/http"
	"strings"

	"groupbuy-service/internal/models"
	"groupbuy-service/internal/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired
const (
	CtxUserID    = "userID"
	CtxUserRole  = "userRole"
	CtxUserEmail = "userEmail"
)

// AuthMiddleware validates bearer tokens and enforces role gates
type AuthMiddleware struct {
	authService *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// AuthRequired checks for a valid JWT and stashes the claims in the context
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxUserEmail, claims.Email)

		c.Next()
	}
}

// RoleRequired allows only the listed roles past. Must run after
// AuthRequired.
func (m *AuthMiddleware) RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := UserRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
		c.Abort()
	}
}

// UserID reads the authenticated user's ID from the context
func UserID(c *gin.Context) int64 {
	id, _ := c.Get(CtxUserID)
	userID, _ := id.(int64)
	return userID
}

// UserRole reads the authenticated user's role from the context
func UserRole(c *gin.Context) models.Role {
	r, _ := c.Get(CtxUserRole)
	role, _ := r.(models.Role)
	return role
}
