package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

// GinLoggerMiddleware is a Gin middleware that logs HTTP requests with structured fields
// This replaces gin.Logger with structured logging
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			logger.WithIP(c.ClientIP()),
			logger.WithStatus(statusCode),
			zap.Int("response_size", c.Writer.Size()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if requestID := c.GetString(requestIDKey); requestID != "" {
			fields = append(fields, logger.WithRequestID(requestID))
		}
		// Set by Authenticate after this middleware ran its first half.
		if userID := c.GetString(util.UserIDKey); userID != "" {
			fields = append(fields, logger.WithUserID(userID))
		}
		if admin, ok := util.GetImpersonator(c); ok {
			fields = append(fields, zap.String("impersonator_id", admin.ID))
		}

		switch {
		case statusCode >= 500:
			logger.Log.Error("HTTP request", fields...)
		case statusCode >= 400:
			logger.Log.Warn("HTTP request", fields...)
		default:
			logger.Log.Info("HTTP request", fields...)
		}
	}
}
