package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.SetEx(ctx, "form:1", []byte(`{"title":"Audit"}`), time.Minute))
	require.NoError(t, store.SetEx(ctx, "forever", 42, 0))

	val, err := store.Get(ctx, "form:1")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Audit"}`, val)

	val, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "42", val)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "form:1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Del(ctx, "forever", "unknown"))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreCounter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	n, err := store.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, store.Expire(ctx, "hits", time.Minute))

	now = now.Add(20 * time.Second)
	n, err = store.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ttl, err := store.TTL(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, ttl, "incr keeps the expiry")

	now = now.Add(40 * time.Second)
	n, err = store.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "the window restarts after expiry")

	require.NoError(t, store.SetEx(ctx, "name", "audit", 0))
	_, err = store.Incr(ctx, "name")
	assert.Error(t, err)
}
