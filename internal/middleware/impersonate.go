package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

// ImpersonateHeader names the account an admin wants to act as.
const ImpersonateHeader = "X-Impersonate-User"

// AdminImpersonationMiddleware lets admins act as another user by sending
// X-Impersonate-User with that user's email. It must run after Authenticate.
// The admin stays available through util.GetImpersonator.
func AdminImpersonationMiddleware(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		impersonateEmail := strings.ToLower(strings.TrimSpace(c.GetHeader(ImpersonateHeader)))

		// If no impersonation header, continue normally
		if impersonateEmail == "" {
			c.Next()
			return
		}

		admin, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		if err := auth.Authorize(admin, auth.PermImpersonate); err != nil {
			util.RespondForbidden(c, "only admins can impersonate other users")
			return
		}

		target, err := users.GetUserByEmail(c.Request.Context(), impersonateEmail)
		if errors.Is(err, repository.ErrUserNotFound) {
			util.RespondNotFound(c, "impersonated user")
			return
		}
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		if !target.IsActive {
			util.RespondForbidden(c, "cannot impersonate a deactivated account")
			return
		}

		util.SetUser(c, target)
		c.Set(util.ImpersonatorKey, admin)

		logger.Log.Info("Admin impersonation",
			zap.String("admin_id", admin.ID),
			zap.String("admin_email", admin.Email),
			zap.String("impersonated_user_id", target.ID),
			zap.String("impersonated_user_email", target.Email),
			zap.String("request_method", c.Request.Method),
			zap.String("request_path", c.Request.URL.Path),
		)

		c.Next()
	}
}
