package formio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/cache"
)

type countingBackend struct {
	*MemoryBackend
	gets int
}

func (c *countingBackend) GetForm(ctx context.Context, id string) (*Form, error) {
	c.gets++
	return c.MemoryBackend.GetForm(ctx, id)
}

func TestCachedClientGetForm(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{MemoryBackend: NewMemoryBackend()}
	created, err := backend.CreateForm(ctx, &Form{Title: "Incident Report", Path: "incident"})
	require.NoError(t, err)

	client := NewCachedClient(backend, cache.NewMemoryStore(), time.Minute)

	first, err := client.GetForm(ctx, created.ID)
	require.NoError(t, err)
	second, err := client.GetForm(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Incident Report", first.Title)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, 1, backend.gets)

	_, err = client.UpdateForm(ctx, created.ID, &Form{Title: "Incident Report v2", Path: "incident"})
	require.NoError(t, err)

	third, err := client.GetForm(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Incident Report v2", third.Title)
	assert.Equal(t, 2, backend.gets)

	require.NoError(t, client.DeleteForm(ctx, created.ID))
	_, err = client.GetForm(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := NewCachedClient(NewMemoryBackend(), store, time.Minute)

	_, err := client.GetForm(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}
