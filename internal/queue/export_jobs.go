package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/metrics"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/results"
	"github.com/zfogg/formdesk/internal/storage"
	"github.com/zfogg/formdesk/internal/telemetry"
	"go.uber.org/zap"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

var (
	ErrQueueFull   = errors.New("export queue is full")
	ErrJobNotFound = errors.New("job not found")
	ErrQueueClosed = errors.New("export queue is stopped")
)

// jobTimeout bounds one export run.
const jobTimeout = 5 * time.Minute

// RowSource loads the rows of an export on behalf of the requesting user.
type RowSource interface {
	Rows(ctx context.Context, actor *models.User, formID string, q results.Query) (*results.RowSet, error)
}

// ExportJob represents a results export job
type ExportJob struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	FormID       string           `json:"form_id"`
	Status       string           `json:"status"` // pending, processing, complete, failed
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	Result       *ExportJobResult `json:"result,omitempty"`

	actor *models.User
	query results.Query
}

// ExportJobResult contains the uploaded file
type ExportJobResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expires_at"`
	Truncated bool      `json:"truncated"`
}

// ExportQueue runs result exports on a worker pool
type ExportQueue struct {
	jobs       chan *ExportJob
	results    map[string]*ExportJob
	resultsMux sync.RWMutex
	workers    int
	retention  time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    bool

	source   RowSource
	uploader storage.ExportUploader
	events   *telemetry.BusinessEvents
	now      func() time.Time

	// For testing: channels to signal job completion
	jobCompleted chan string
}

// NewExportQueue creates a new export queue
func NewExportQueue(source RowSource, uploader storage.ExportUploader, workers, size int) *ExportQueue {
	ctx, cancel := context.WithCancel(context.Background())
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}

	return &ExportQueue{
		jobs:         make(chan *ExportJob, size),
		results:      make(map[string]*ExportJob),
		workers:      workers,
		retention:    storage.DefaultLinkTTL,
		ctx:          ctx,
		cancel:       cancel,
		source:       source,
		uploader:     uploader,
		events:       telemetry.NewBusinessEvents(),
		now:          time.Now,
		jobCompleted: make(chan string, 100),
	}
}

// Start begins processing jobs with worker pool
func (q *ExportQueue) Start() {
	logger.Log.Info("Starting export queue", zap.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop cancels running jobs and waits for the workers to exit.
func (q *ExportQueue) Stop() {
	q.stopOnce.Do(func() {
		q.resultsMux.Lock()
		q.stopped = true
		q.resultsMux.Unlock()

		q.cancel()
		close(q.jobs)
		q.wg.Wait()
	})
}

// SubmitJob queues an export of formID's results as seen by actor.
func (q *ExportQueue) SubmitJob(actor *models.User, formID string, query results.Query) (*ExportJob, error) {
	job := &ExportJob{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		FormID:    formID,
		Status:    StatusPending,
		CreatedAt: q.now(),
		actor:     actor,
		query:     query,
	}

	q.resultsMux.Lock()
	defer q.resultsMux.Unlock()
	if q.stopped {
		return nil, ErrQueueClosed
	}
	q.pruneLocked()

	select {
	case q.jobs <- job:
	default:
		metrics.Get().App.ExportJobsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrQueueFull
	}
	q.results[job.ID] = job
	metrics.Get().App.ExportQueueDepth.Set(float64(len(q.jobs)))

	snapshot := *job
	return &snapshot, nil
}

// GetJobStatus returns a snapshot of a job
func (q *ExportQueue) GetJobStatus(jobID string) (*ExportJob, error) {
	q.resultsMux.RLock()
	defer q.resultsMux.RUnlock()

	job, exists := q.results[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// WaitForJobCompletion waits for a specific job to complete (for testing)
func (q *ExportQueue) WaitForJobCompletion(jobID string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case completedJobID := <-q.jobCompleted:
			if completedJobID == jobID {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for job %s", jobID)
		case <-q.ctx.Done():
			return fmt.Errorf("queue stopped")
		}
	}
}

func (q *ExportQueue) worker(workerID int) {
	defer q.wg.Done()
	logger.Log.Debug("Export worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			metrics.Get().App.ExportQueueDepth.Set(float64(len(q.jobs)))
			q.processJob(workerID, job)

		case <-q.ctx.Done():
			return
		}
	}
}

func (q *ExportQueue) processJob(workerID int, job *ExportJob) {
	log := logger.Log.With(zap.Int("worker_id", workerID), zap.String("job_id", job.ID), logger.WithFormID(job.FormID))
	log.Info("Worker processing export")
	startTime := time.Now()

	q.updateJobStatus(job.ID, StatusProcessing, nil, nil)
	defer q.signalCompletion(job.ID)

	ctx, cancel := context.WithTimeout(q.ctx, jobTimeout)
	defer cancel()

	ctx, span := q.events.TraceExport(ctx, job.ID, job.FormID, job.UserID)
	result, err := q.export(ctx, job)
	telemetry.EndSpan(span, err)
	if err != nil {
		errMsg := err.Error()
		log.Error("Export failed", zap.Error(err))
		q.updateJobStatus(job.ID, StatusFailed, nil, &errMsg)
		metrics.Get().App.ExportJobsTotal.WithLabelValues(StatusFailed).Inc()
		return
	}

	q.updateJobStatus(job.ID, StatusComplete, result, nil)
	metrics.Get().App.ExportJobsTotal.WithLabelValues(StatusComplete).Inc()
	log.Info("Export complete",
		zap.Int("rows", result.Rows),
		zap.Int64("size", result.Size),
		zap.Duration("elapsed", time.Since(startTime)),
	)
}

func (q *ExportQueue) export(ctx context.Context, job *ExportJob) (*ExportJobResult, error) {
	set, err := q.source.Rows(ctx, job.actor, job.FormID, job.query)
	if err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}

	var buf bytes.Buffer
	if err := results.WriteCSV(&buf, set.Rows); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}

	upload, err := q.uploader.UploadExport(ctx, buf.Bytes(), job.UserID, exportFilename(set.Form, q.now()))
	if err != nil {
		return nil, fmt.Errorf("uploading export: %w", err)
	}

	return &ExportJobResult{
		URL:       upload.URL,
		Key:       upload.Key,
		Rows:      len(set.Rows),
		Size:      upload.Size,
		ExpiresAt: upload.ExpiresAt,
		Truncated: set.Truncated,
	}, nil
}

// exportFilename builds "<form path>-results-<date>.csv".
func exportFilename(form *formio.Form, at time.Time) string {
	name := "form"
	if form != nil {
		switch {
		case form.Path != "":
			name = form.Path
		case form.Name != "":
			name = form.Name
		}
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
	return fmt.Sprintf("%s-results-%s.csv", name, at.UTC().Format("20060102-150405"))
}

// updateJobStatus updates job status thread-safely
func (q *ExportQueue) updateJobStatus(jobID, status string, result *ExportJobResult, errorMessage *string) {
	q.resultsMux.Lock()
	defer q.resultsMux.Unlock()

	job, exists := q.results[jobID]
	if !exists {
		return
	}

	job.Status = status
	job.Result = result
	job.ErrorMessage = errorMessage

	if status == StatusComplete || status == StatusFailed {
		now := q.now()
		job.CompletedAt = &now
	}
}

// pruneLocked forgets finished jobs whose download link has expired.
func (q *ExportQueue) pruneLocked() {
	cutoff := q.now().Add(-q.retention)
	for id, job := range q.results {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(q.results, id)
		}
	}
}

// signalCompletion signals that a job has completed (for testing)
func (q *ExportQueue) signalCompletion(jobID string) {
	select {
	case q.jobCompleted <- jobID:
	default:
		// Channel full, don't block
	}
}
