package formio

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/metrics"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const formCacheName = "formio_form"

// CachedClient caches form definitions in front of another FormBackend.
// Submissions are never cached.
type CachedClient struct {
	FormBackend
	store cache.Store
	ttl   time.Duration
}

var _ FormBackend = (*CachedClient)(nil)

// NewCachedClient wraps backend with a cache-aside layer over store.
func NewCachedClient(backend FormBackend, store cache.Store, ttl time.Duration) *CachedClient {
	return &CachedClient{FormBackend: backend, store: store, ttl: ttl}
}

func formKey(id string) string {
	return "formio:form:" + id
}

// GetForm serves from cache when possible. Cache failures fall through to
// the backend.
func (c *CachedClient) GetForm(ctx context.Context, id string) (*Form, error) {
	m := metrics.Get()

	if raw, err := c.store.Get(ctx, formKey(id)); err == nil {
		var form Form
		if err := json.UnmarshalFromString(raw, &form); err == nil {
			m.CacheHitsTotal.WithLabelValues(formCacheName).Inc()
			return &form, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Log.Warn("Form cache read failed", logger.WithFormID(id), zap.Error(err))
	}
	m.CacheMissesTotal.WithLabelValues(formCacheName).Inc()

	form, err := c.FormBackend.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.MarshalToString(form); err == nil {
		if err := c.store.SetEx(ctx, formKey(id), raw, c.ttl); err != nil {
			logger.Log.Warn("Form cache write failed", logger.WithFormID(id), zap.Error(err))
		}
	}
	return form, nil
}

func (c *CachedClient) UpdateForm(ctx context.Context, id string, form *Form) (*Form, error) {
	updated, err := c.FormBackend.UpdateForm(ctx, id, form)
	c.invalidate(ctx, id)
	return updated, err
}

func (c *CachedClient) DeleteForm(ctx context.Context, id string) error {
	err := c.FormBackend.DeleteForm(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *CachedClient) invalidate(ctx context.Context, id string) {
	if err := c.store.Del(ctx, formKey(id)); err != nil {
		logger.Log.Warn("Form cache invalidation failed", logger.WithFormID(id), zap.Error(err))
	}
}
