// Package scheduler runs the periodic task maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/metrics"
	"go.uber.org/zap"
)

const (
	JobMarkOverdue = "mark_overdue"
	JobReminders   = "deadline_reminders"
)

// TaskJobs is the part of the task service the scheduled jobs drive.
type TaskJobs interface {
	MarkOverdue(ctx context.Context) (int64, error)
	SendReminders(ctx context.Context, window time.Duration) (int, error)
}

// JobFunc is one scheduled unit of work.
type JobFunc func(ctx context.Context) error

// Entry describes a registered job.
type Entry struct {
	Name     string    `json:"name"`
	Spec     string    `json:"spec"`
	Next     time.Time `json:"next"`
	Previous time.Time `json:"previous"`
}

type job struct {
	spec string
	fn   JobFunc
	id   cron.EntryID
}

// Scheduler wraps a cron runner. Runs of the same job never overlap: a run
// that fires while the previous one is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context

	mu      sync.Mutex
	cancel  context.CancelFunc
	jobs    map[string]*job
	started bool
}

func New() *Scheduler {
	l := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*job),
	}
}

// NewTaskScheduler registers the overdue and reminder jobs from cfg.
func NewTaskScheduler(cfg config.SchedulerConfig, tasks TaskJobs) (*Scheduler, error) {
	s := New()

	err := s.Register(JobMarkOverdue, cfg.OverdueSpec, func(ctx context.Context) error {
		marked, err := tasks.MarkOverdue(ctx)
		if err != nil {
			return err
		}
		if marked > 0 {
			logger.Log.Info("Tasks marked overdue", zap.Int64("count", marked))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.Register(JobReminders, cfg.ReminderSpec, func(ctx context.Context) error {
		sent, err := tasks.SendReminders(ctx, cfg.ReminderWindow)
		if err != nil {
			return err
		}
		logger.Log.Info("Deadline reminders sent", zap.Int("count", sent), zap.Duration("window", cfg.ReminderWindow))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Register adds a job under a standard cron spec or a descriptor such as
// "@every 5m".
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	id, err := s.cron.AddFunc(spec, func() { _ = s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.jobs[name] = &job{spec: spec, fn: fn, id: id}
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	logger.Log.Info("Starting scheduler", zap.Int("jobs", len(s.jobs)))
	s.cron.Start()
	s.started = true
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cancel()
	if !started {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.run(name, j.fn)
}

// Entries lists registered jobs by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.jobs))
	for name, j := range s.jobs {
		e := s.cron.Entry(j.id)
		entries = append(entries, Entry{Name: name, Spec: j.spec, Next: e.Next, Previous: e.Prev})
	}
	sort.Slice(entries, func(i, k int) bool { return entries[i].Name < entries[k].Name })
	return entries
}

func (s *Scheduler) run(name string, fn JobFunc) error {
	start := time.Now()
	err := fn(s.ctx)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		logger.Log.Error("Scheduled job failed", zap.String("job", name), zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		logger.Log.Debug("Scheduled job finished", zap.String("job", name), zap.Duration("elapsed", elapsed))
	}
	metrics.Get().App.SchedulerRunsTotal.WithLabelValues(name, status).Inc()
	metrics.Get().App.SchedulerRunDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	return err
}

// cronLogger routes cron's own messages (skips, panics) to zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.SugaredLog.Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.SugaredLog.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
