package middleware

import (
	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated user has one of the roles
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Unauthorized(c, "Role not found in token")
			return
		}
		for _, r := range roles {
			if role == string(r) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "Access denied: insufficient permissions")
	}
}

// AdminOnly lets workshop admins and the superadmin through. Workshop
// scoping is checked by the services.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
}
