package middlewares

import (
	"net/http"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole gates a route on an allow-list of roles. Must run after
// RequireAuth; a request with no identity context is rejected as
// unauthenticated, not forbidden.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if !role.OneOf(allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"code":    "forbidden",
				"message": "You do not have permission to perform this action",
			})
			return
		}
		c.Next()
	}
}
