package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 3 * time.Second

// Health probes every registered dependency concurrently
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		services = make(map[string]string, len(h.checks))
		healthy  = true
	)

	// probes never fail the group so that every one of them reports
	var g errgroup.Group
	for name, check := range h.checks {
		g.Go(func() error {
			status := "ok"
			if err := check(ctx); err != nil {
				status = err.Error()
				logger.Log.Warn("Health check failed", zap.String("service", name), zap.Error(err))
			}
			mu.Lock()
			defer mu.Unlock()
			services[name] = status
			if status != "ok" {
				healthy = false
			}
			return nil
		})
	}
	_ = g.Wait()

	code, status := http.StatusOK, "healthy"
	if !healthy {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(code, gin.H{
		"status":    status,
		"services":  services,
		"timestamp": time.Now().UTC(),
	})
}
