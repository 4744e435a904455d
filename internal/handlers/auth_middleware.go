package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
	contextUserRole = "user_role"
)

// TokenParser verifies bearer access tokens
type TokenParser interface {
	ParseAccessToken(token string) (*services.Claims, error)
}

// AuthMiddleware authenticates requests with the service's own access tokens
type AuthMiddleware struct {
	BaseHandler
	tokens TokenParser
}

func NewAuthMiddleware(tokens TokenParser, base BaseHandler) *AuthMiddleware {
	return &AuthMiddleware{BaseHandler: base, tokens: tokens}
}

// Required rejects requests without a valid access token
func (am *AuthMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			am.RespondWithError(c, http.StatusUnauthorized, "Authentication credentials were not provided.", err)
			return
		}

		claims, err := am.tokens.ParseAccessToken(token)
		if err != nil {
			am.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// Optional sets the user when a valid token is present and continues anonymously otherwise
func (am *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c); err == nil {
			if claims, err := am.tokens.ParseAccessToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole checks the role carried by the access token. Must run after Required.
func (am *AuthMiddleware) RequireRole(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(contextUserRole)
		if !ok {
			am.RespondWithError(c, http.StatusForbidden, "user role not found in context", nil)
			return
		}

		userRole, _ := role.(models.UserRole)
		for _, required := range requiredRoles {
			if userRole == required || userRole == models.RoleAdmin {
				c.Next()
				return
			}
		}

		am.RespondWithError(c, http.StatusForbidden,
			fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles), nil)
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

func setClaims(c *gin.Context, claims *services.Claims) {
	c.Set(contextUserID, claims.UserID)
	c.Set(contextUsername, claims.Username)
	c.Set(contextUserRole, claims.Role)
}
