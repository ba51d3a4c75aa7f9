package container

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/testutil"
)

func TestWireRequiresInfrastructure(t *testing.T) {
	err := New().Wire(&config.Config{})

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, []string{"database", "form backend"}, initErr.MissingDeps)
	assert.EqualError(t, err, "cannot wire services: database, form backend")
}

func TestValidate(t *testing.T) {
	err := New().Validate()
	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.True(t, initErr.Missing("auth service"))
	assert.False(t, initErr.Missing("redis"))

	m, err := NewMock(testutil.NewDB(t), &testutil.Notifier{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Cleanup(context.Background()) })

	require.NoError(t, m.Validate())
	assert.NotNil(t, m.Counter(), "the memory store doubles as the rate limit counter")
	assert.NotNil(t, m.Exports())
	assert.Nil(t, m.Scheduler())
	assert.Same(t, m.AuthMock, m.Auth())
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	c := New()
	var order []int
	boom := errors.New("boom")

	c.OnCleanup(func(context.Context) error { order = append(order, 1); return nil })
	c.OnCleanup(func(context.Context) error { order = append(order, 2); return boom })
	c.OnCleanup(func(context.Context) error { order = append(order, 3); return nil })

	assert.ErrorIs(t, c.Cleanup(context.Background()), boom)
	assert.Equal(t, []int{3, 2, 1}, order)

	// cleanup functions run once
	require.NoError(t, c.Cleanup(context.Background()))
	assert.Len(t, order, 3)
}

func TestWireStartsScheduler(t *testing.T) {
	m, err := NewMock(testutil.NewDB(t), nil)
	require.NoError(t, err)
	require.NoError(t, m.Cleanup(context.Background()))

	c := New().WithDB(testutil.NewDB(t)).WithForms(m.FormBackend)
	err = c.Wire(&config.Config{Scheduler: config.SchedulerConfig{
		Enabled:      true,
		OverdueSpec:  "@every 5m",
		ReminderSpec: "0 8 * * *",
	}})
	require.NoError(t, err)
	require.NotNil(t, c.Scheduler())
	assert.Len(t, c.Scheduler().Entries(), 2)
	assert.NotNil(t, c.Notifier(), "a log notifier is used when none is registered")
	assert.Nil(t, c.Exports())
	require.NoError(t, c.Cleanup(context.Background()))
}
