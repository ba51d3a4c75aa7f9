package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the token's user on the context.
func Authenticate(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			util.RespondUnauthorized(c, "authorization header must use the Bearer scheme")
			return
		}

		user, err := authService.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			logger.Log.Debug("Token rejected",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondWithError(c, err)
			return
		}

		util.SetUser(c, user)
		c.Next()
	}
}
