package middleware

import (
	"strings"

	"bikeworkshop/internal/pkg/jwt"
	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuth requires "Authorization: Bearer <token>" and stores user_id and
// role in the gin context.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "Authorization header is required")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "Authorization header must be Bearer token")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
