// Package container provides dependency injection management for the formdesk server.
// It consolidates all services and provides type-safe access to dependencies.
package container

import (
	"context"
	"sync"

	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/email"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/queue"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/results"
	"github.com/zfogg/formdesk/internal/scheduler"
	"github.com/zfogg/formdesk/internal/storage"
	"github.com/zfogg/formdesk/internal/tasks"
	"github.com/zfogg/formdesk/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
type Container struct {
	// Core infrastructure
	db      *gorm.DB
	logger  *zap.Logger
	store   cache.Store
	counter cache.Counter

	// External services
	forms    formio.FormBackend
	notifier email.Notifier
	uploader storage.ExportUploader

	// Domain services
	userRepo repository.UserRepository
	auth     auth.AuthServiceInterface
	tasks    *tasks.Service
	results  *results.Service
	users    *users.Service

	// Background work
	exports   *queue.ExportQueue
	scheduler *scheduler.Scheduler

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty container.
// Services should be registered using Set* methods or built with Wire.
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// ============================================================================
// CORE INFRASTRUCTURE
// ============================================================================

func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the registered logger, falling back to the global one.
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger != nil {
		return c.logger
	}
	return logger.Log
}

// SetCache registers the key/value store. A store that also counts (Redis,
// the in-memory store) backs the rate limiter too.
func (c *Container) SetCache(store cache.Store) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
	if counter, ok := store.(cache.Counter); ok {
		c.counter = counter
	}
	return c
}

func (c *Container) Cache() cache.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// Counter returns the rate limit counter, or nil when none is registered.
func (c *Container) Counter() cache.Counter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counter
}

// ============================================================================
// EXTERNAL SERVICES
// ============================================================================

func (c *Container) SetForms(forms formio.FormBackend) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms = forms
	return c
}

func (c *Container) Forms() formio.FormBackend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.forms
}

func (c *Container) SetNotifier(n email.Notifier) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
	return c
}

func (c *Container) Notifier() email.Notifier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifier
}

// SetUploader registers where exports are stored. Without one, exports are
// disabled.
func (c *Container) SetUploader(u storage.ExportUploader) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploader = u
	return c
}

func (c *Container) Uploader() storage.ExportUploader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploader
}

// ============================================================================
// DOMAIN SERVICES
// ============================================================================

func (c *Container) SetAuthService(service auth.AuthServiceInterface) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = service
	return c
}

func (c *Container) Auth() auth.AuthServiceInterface {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

func (c *Container) UserRepository() repository.UserRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userRepo
}

func (c *Container) Tasks() *tasks.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tasks
}

func (c *Container) Results() *results.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results
}

func (c *Container) Users() *users.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// Exports returns the export queue, or nil when exports are disabled.
func (c *Container) Exports() *queue.ExportQueue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exports
}

// Scheduler returns the maintenance scheduler, or nil when it is disabled.
func (c *Container) Scheduler() *scheduler.Scheduler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scheduler
}

// Wire builds the repositories and domain services on top of the registered
// infrastructure. An auth service registered beforehand is kept, which lets
// tests swap in a mock. The export queue is created when an uploader is
// registered and the scheduler when cfg enables it; both are started and
// their shutdown is registered with Cleanup.
func (c *Container) Wire(cfg *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.forms == nil {
		missing = append(missing, "form backend")
	}
	if len(missing) > 0 {
		return NewInitializationError("cannot wire services", missing)
	}
	if c.notifier == nil {
		c.notifier = &email.LogNotifier{BaseURL: cfg.BaseURL}
	}

	c.userRepo = repository.NewUserRepository(c.db)
	taskRepo := repository.NewTaskRepository(c.db)

	if c.auth == nil {
		c.auth = auth.NewService(cfg.Auth, c.userRepo, c.notifier)
	}
	c.tasks = tasks.NewService(taskRepo, repository.NewDraftRepository(c.db), c.userRepo, c.forms, c.notifier)
	c.results = results.NewService(taskRepo, c.userRepo, c.forms)
	c.users = users.NewService(c.userRepo, repository.NewEmployeeRepository(c.db))

	if c.uploader != nil {
		c.exports = queue.NewExportQueue(c.results, c.uploader, cfg.Exports.Workers, cfg.Exports.QueueSize)
		c.exports.Start()
		exports := c.exports
		c.cleanupFuncs = append(c.cleanupFuncs, func(context.Context) error {
			exports.Stop()
			return nil
		})
	}

	if cfg.Scheduler.Enabled {
		s, err := scheduler.NewTaskScheduler(cfg.Scheduler, c.tasks)
		if err != nil {
			return err
		}
		s.Start()
		c.scheduler = s
		c.cleanupFuncs = append(c.cleanupFuncs, s.Stop)
	}
	return nil
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called on shutdown.
// Cleanup functions are called in reverse order of registration (LIFO).
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup calls all registered cleanup functions in reverse order and
// returns the first error. Every function runs even when an earlier one
// fails.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			c.Logger().Error("Cleanup function failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Validate checks that the services the API cannot run without are present.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.store == nil {
		missing = append(missing, "cache")
	}
	if c.forms == nil {
		missing = append(missing, "form backend")
	}
	if c.auth == nil {
		missing = append(missing, "auth service")
	}
	if c.tasks == nil || c.results == nil || c.users == nil {
		missing = append(missing, "domain services")
	}
	if len(missing) > 0 {
		return NewInitializationError("container missing required dependencies", missing)
	}
	return nil
}

// ============================================================================
// FLUENT BUILDERS
// ============================================================================

func (c *Container) WithDB(db *gorm.DB) *Container { return c.SetDB(db) }

func (c *Container) WithLogger(l *zap.Logger) *Container { return c.SetLogger(l) }

func (c *Container) WithCache(store cache.Store) *Container { return c.SetCache(store) }

func (c *Container) WithForms(forms formio.FormBackend) *Container { return c.SetForms(forms) }

func (c *Container) WithNotifier(n email.Notifier) *Container { return c.SetNotifier(n) }

func (c *Container) WithUploader(u storage.ExportUploader) *Container { return c.SetUploader(u) }

func (c *Container) WithAuthService(service auth.AuthServiceInterface) *Container {
	return c.SetAuthService(service)
}
