package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/metrics"
	"github.com/zfogg/formdesk/internal/util"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name labels metrics and prefixes shared counter keys.
	Name string
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket a request counts against.
	KeyFunc func(c *gin.Context) string
}

// APIRateLimitConfig limits authenticated API traffic per user.
func APIRateLimitConfig(cfg config.RateLimitConfig) RateLimitConfig {
	return RateLimitConfig{
		Name:    "api",
		Limit:   cfg.Requests,
		Window:  cfg.Window,
		KeyFunc: userOrIPKey,
	}
}

// AuthRateLimitConfig returns stricter per-IP limits for login and password
// reset endpoints.
func AuthRateLimitConfig(cfg config.RateLimitConfig) RateLimitConfig {
	return RateLimitConfig{
		Name:    "auth",
		Limit:   cfg.AuthRequests,
		Window:  cfg.Window,
		KeyFunc: func(c *gin.Context) string { return c.ClientIP() },
	}
}

func userOrIPKey(c *gin.Context) string {
	if id := c.GetString(util.UserIDKey); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

// RateLimit returns a limiter backed by counter when one is configured, so
// limits hold across instances, and an in-process token bucket otherwise.
func RateLimit(cfg RateLimitConfig, counter cache.Counter) gin.HandlerFunc {
	if counter != nil {
		return RedisRateLimitMiddleware(cfg, counter)
	}
	return NewRateLimiter(cfg)
}

// TokenBucket for rate limiting
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on token availability
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = math.Min(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// GetRetryAfter returns seconds to wait before next request
func (tb *TokenBucket) GetRetryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < 1 {
		timeToToken := (1 - tb.tokens) / tb.refillRate
		return int(timeToToken) + 1
	}
	return 0
}

// full reports whether the bucket has refilled completely, i.e. it would
// behave the same if it were recreated.
func (tb *TokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(now)
	return tb.tokens >= tb.maxTokens
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	buckets   map[string]*TokenBucket
	config    RateLimitConfig
	mu        sync.Mutex
	lastSweep time.Time
}

// NewRateLimiter creates a new rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	rl := &RateLimiter{
		buckets:   make(map[string]*TokenBucket),
		config:    config,
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		bucket := rl.bucket(key)
		if !bucket.Allow() {
			rejectRateLimited(c, config, bucket.GetRetryAfter())
			return
		}
		c.Next()
	}
}

// bucket returns the bucket for key, dropping buckets that have refilled
// since the last sweep.
func (rl *RateLimiter) bucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.config.Window {
		for k, b := range rl.buckets {
			if k != key && b.full(now) {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		b = NewTokenBucket(float64(rl.config.Limit), refillRate)
		rl.buckets[key] = b
	}
	return b
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func rejectRateLimited(c *gin.Context, config RateLimitConfig, retryAfter int) {
	metrics.Get().RateLimitExceededTotal.WithLabelValues(config.Name, c.Request.Method).Inc()
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	util.RespondWithAPIError(c, errors.RateLimited("").WithDetails("retry after "+strconv.Itoa(retryAfter)+"s"))
}
