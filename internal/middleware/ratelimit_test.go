package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/config"
)

func limitedRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handler)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func get(router http.Handler, clientID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	router := limitedRouter(NewRateLimiter(RateLimitConfig{Name: "test", Limit: 3, Window: time.Second}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(router, "").Code, "Request %d should succeed", i+1)
	}

	w := get(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "4th request should be rate limited")
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	// Wait for a token to refill
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(router, "").Code, "Request after refill should succeed")
}

func TestRateLimiterDifferentClients(t *testing.T) {
	router := limitedRouter(NewRateLimiter(RateLimitConfig{
		Name:   "test",
		Limit:  2,
		Window: time.Second,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Client-ID")
		},
	}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(router, "client-a").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(router, "client-a").Code, "Client A should be rate limited")
	assert.Equal(t, http.StatusOK, get(router, "client-b").Code, "Client B should not be rate limited")
}

func TestRedisRateLimitMiddleware(t *testing.T) {
	store := cache.NewMemoryStore()
	cfg := RateLimitConfig{
		Name:   "auth",
		Limit:  2,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Client-ID")
		},
	}
	router := limitedRouter(RateLimit(cfg, store))

	assert.Equal(t, http.StatusOK, get(router, "a").Code)
	assert.Equal(t, http.StatusOK, get(router, "a").Code)

	w := get(router, "a")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 60, retryAfter, 2)

	assert.Equal(t, http.StatusOK, get(router, "b").Code)

	ttl, err := store.TTL(t.Context(), "rate_limit:auth:a")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "the window expires")
}

func TestConfigsFromEnvironment(t *testing.T) {
	env := config.RateLimitConfig{Requests: 300, Window: time.Minute, AuthRequests: 10}

	api := APIRateLimitConfig(env)
	assert.Equal(t, 300, api.Limit)
	assert.Equal(t, time.Minute, api.Window)
	assert.NotNil(t, api.KeyFunc)

	authCfg := AuthRateLimitConfig(env)
	assert.Equal(t, 10, authCfg.Limit)
	assert.Equal(t, "auth", authCfg.Name)
}
