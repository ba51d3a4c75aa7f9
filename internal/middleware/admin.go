package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/util"
)

// RequireRole ensures the authenticated user holds at least min. It must run
// after Authenticate.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		if !user.IsActive || !user.Role.AtLeast(min) {
			util.RespondForbidden(c, fmt.Sprintf("%s role required", min))
			return
		}
		c.Next()
	}
}

// RequirePermission ensures the authenticated user's role grants p.
func RequirePermission(p auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		if err := auth.Authorize(user, p); err != nil {
			util.RespondForbidden(c, fmt.Sprintf("permission %s required", p))
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireRole(models.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
