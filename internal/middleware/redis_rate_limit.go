package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed fixed-window rate limiter.
// This works across multiple instances and provides fair access control.
func RedisRateLimitMiddleware(config RateLimitConfig, counter cache.Counter) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", config.Name, config.KeyFunc(c))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.Incr(ctx, key)
		if err != nil {
			// Reject rather than let traffic through unmetered.
			logger.Log.Error("Rate limit check failed, rejecting request",
				zap.String("key", key),
				zap.Error(err),
			)
			util.RespondWithAPIError(c, errors.ServiceUnavailable("rate limiter"))
			return
		}

		// Set expiration on first request in this window
		if count == 1 {
			if err := counter.Expire(ctx, key, config.Window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}

		if count > int64(config.Limit) {
			retryAfter := int(config.Window.Seconds())
			if ttl, err := counter.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds()) + 1
			}
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.String("limiter", config.Name),
				zap.Int("max_requests", config.Limit),
				zap.Int64("current_requests", count),
			)
			rejectRateLimited(c, config, retryAfter)
			return
		}

		c.Next()
	}
}
