package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/logger"
	"go.uber.org/zap"
)

const responseCacheName = "response_cache"

// ResponseCache caches successful GET responses of one resource group
// (e.g. "forms") that look the same to every caller. Mutations go through
// InvalidateResponseCache, which moves the group to a new generation so old
// entries are never read again and simply expire.
type ResponseCache struct {
	store cache.Store
	group string
	ttl   time.Duration
}

func NewResponseCache(store cache.Store, group string, ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: store, group: group, ttl: ttl}
}

func (rc *ResponseCache) generationKey() string {
	return "response:" + rc.group + ":generation"
}

func (rc *ResponseCache) generation(ctx context.Context) string {
	gen, err := rc.store.Get(ctx, rc.generationKey())
	if err != nil {
		return "0"
	}
	return gen
}

func (rc *ResponseCache) key(ctx context.Context, path, query string) string {
	sum := sha256.Sum256([]byte(path + "?" + query))
	return fmt.Sprintf("response:%s:%s:%s", rc.group, rc.generation(ctx), hex.EncodeToString(sum[:8]))
}

// Middleware serves cached bodies and stores 2xx GET responses.
// Adds X-Cache: HIT/MISS header for debugging
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := rc.key(ctx, c.Request.URL.Path, c.Request.URL.RawQuery)

		cachedData, err := rc.store.Get(ctx, cacheKey)
		if err == nil {
			RecordCacheHit(responseCacheName)
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cachedData))
			c.Abort()
			return
		}
		if !stderrors.Is(err, cache.ErrMiss) {
			logger.Log.Debug("Response cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		RecordCacheMiss(responseCacheName)

		writer := &cachedResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || writer.body.Len() == 0 {
			return
		}
		if err := rc.store.SetEx(ctx, cacheKey, writer.body.String(), rc.ttl); err != nil {
			logger.Log.Debug("Failed to write response to cache",
				zap.String("key", cacheKey),
				zap.Error(err),
			)
		}
	}
}

// Invalidate starts a new generation for the group.
func (rc *ResponseCache) Invalidate(ctx context.Context) {
	gen := strconv.FormatInt(time.Now().UnixNano(), 36)
	// The marker outlives every entry written under the previous generation.
	if err := rc.store.SetEx(ctx, rc.generationKey(), gen, 2*rc.ttl); err != nil {
		logger.Log.Warn("Failed to invalidate response cache",
			zap.String("group", rc.group),
			zap.Error(err),
		)
	}
}

// InvalidateResponseCache invalidates rc after successful mutations.
func InvalidateResponseCache(rc *ResponseCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 400 {
			return
		}
		rc.Invalidate(c.Request.Context())
	}
}

// cachedResponseWriter intercepts response writes to capture the response body
type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
