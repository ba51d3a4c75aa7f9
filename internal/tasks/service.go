package tasks

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/email"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/metrics"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrFormNotFound    = errors.New("form not found")
	ErrNotAssignee     = errors.New("only the assignee can do this")
	ErrNotSubmittable  = errors.New("task is not open for submission")
	ErrNotReviewable   = errors.New("task is not awaiting review")
	ErrTaskClosed      = errors.New("task can no longer be changed")
	ErrSeriesCancelled = errors.New("recurring series is already cancelled")
)

const (
	// MaxSeriesTasks bounds count × assignees for one recurring request.
	MaxSeriesTasks = 5000
	MaxTags        = 10

	reminderConcurrency = 4
)

var tagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// Service implements the task workflow: assignment, drafts, submission and
// review.
type Service struct {
	tasks    repository.TaskRepository
	drafts   repository.DraftRepository
	users    repository.UserRepository
	forms    formio.FormBackend
	notifier email.Notifier
	policy   *bluemonday.Policy
	events   *telemetry.BusinessEvents
	now      func() time.Time
}

func NewService(
	tasks repository.TaskRepository,
	drafts repository.DraftRepository,
	users repository.UserRepository,
	forms formio.FormBackend,
	notifier email.Notifier,
) *Service {
	return &Service{
		tasks:    tasks,
		drafts:   drafts,
		users:    users,
		forms:    forms,
		notifier: notifier,
		policy:   bluemonday.StrictPolicy(),
		events:   telemetry.NewBusinessEvents(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTaskRequest assigns a form to one or more users.
type CreateTaskRequest struct {
	FormID      string    `json:"form_id" binding:"required"`
	Title       string    `json:"title" binding:"max=200"`
	Description string    `json:"description" binding:"max=5000"`
	AssigneeIDs []string  `json:"assignee_ids" binding:"required,min=1,dive,required"`
	Deadline    time.Time `json:"deadline" binding:"required"`
	Tags        []string  `json:"tags" binding:"max=10,dive,tag"`
}

// CreateRecurringRequest assigns a form on a repeating schedule.
type CreateRecurringRequest struct {
	FormID      string   `json:"form_id" binding:"required"`
	Title       string   `json:"title" binding:"max=200"`
	Description string   `json:"description" binding:"max=5000"`
	AssigneeIDs []string `json:"assignee_ids" binding:"required,min=1,dive,required"`
	Tags        []string `json:"tags" binding:"max=10,dive,tag"`

	FirstDeadline time.Time             `json:"first_deadline" binding:"required"`
	Frequency     int                   `json:"frequency" binding:"required,min=1"`
	Count         int                   `json:"count" binding:"required,min=1,max=366"`
	Unit          models.RecurrenceUnit `json:"unit" binding:"required,recurrence_unit"`
	// Timezone is an IANA name. Steps keep the wall-clock time of the first
	// deadline in this zone across DST changes.
	Timezone string `json:"timezone"`
}

// Spec returns the recurrence described by the request.
func (r CreateRecurringRequest) Spec() (RecurrenceSpec, error) {
	return NewRecurrenceSpec(r.FirstDeadline, r.Frequency, r.Count, r.Unit, r.Timezone)
}

// NewRecurrenceSpec builds a spec whose start is expressed in timezone,
// or left as given when timezone is empty.
func NewRecurrenceSpec(start time.Time, frequency, count int, unit models.RecurrenceUnit, timezone string) (RecurrenceSpec, error) {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return RecurrenceSpec{}, apperrors.ValidationError("timezone", fmt.Sprintf("unknown timezone %q", timezone))
		}
		start = start.In(loc)
	}
	return RecurrenceSpec{Start: start, Frequency: frequency, Count: count, Unit: unit}, nil
}

// UpdateTaskRequest changes the non-nil fields of a task.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Deadline    *time.Time `json:"deadline"`
	AssigneeID  *string    `json:"assignee_id"`
	Tags        *[]string  `json:"tags" binding:"omitempty,max=10,dive,tag"`
}

// ReviewRequest records a decision on a submitted task.
type ReviewRequest struct {
	Decision models.ReviewDecision `json:"decision" binding:"required,oneof=approved rejected"`
	Comment  string                `json:"comment" binding:"max=5000"`
}

// CreateTasks creates one task per assignee and notifies them.
func (s *Service) CreateTasks(ctx context.Context, actor *models.User, req CreateTaskRequest) ([]*models.Task, error) {
	ctx, span := s.events.TraceTaskEvent(ctx, "create", telemetry.TaskEventAttrs{
		FormID:  req.FormID,
		ActorID: actor.ID,
		Count:   len(req.AssigneeIDs),
	})
	created, err := s.createTasks(ctx, actor, req)
	telemetry.EndSpan(span, err)
	return created, err
}

func (s *Service) createTasks(ctx context.Context, actor *models.User, req CreateTaskRequest) ([]*models.Task, error) {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return nil, err
	}

	now := s.now()
	if !req.Deadline.After(now) {
		return nil, apperrors.ValidationError("deadline", "deadline must be in the future")
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	form, err := s.lookupForm(ctx, req.FormID)
	if err != nil {
		return nil, err
	}
	assignees, err := s.lookupAssignees(ctx, req.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	title := s.plainText(req.Title)
	if title == "" {
		title = form.Title
	}
	description := s.plainText(req.Description)

	tasks := make([]*models.Task, 0, len(assignees))
	for _, assignee := range assignees {
		tasks = append(tasks, &models.Task{
			FormID:      form.ID,
			FormTitle:   form.Title,
			Title:       title,
			Description: description,
			AssigneeID:  assignee.ID,
			CreatedByID: actor.ID,
			Deadline:    req.Deadline.UTC(),
			Status:      models.TaskPending,
			Tags:        tags,
		})
	}

	if err := s.tasks.CreateTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to create tasks: %w", err)
	}
	metrics.Get().App.TasksCreatedTotal.WithLabelValues("single").Add(float64(len(tasks)))

	for i, task := range tasks {
		task.Assignee = assignees[i]
		s.notifyAssigned(ctx, assignees[i], task)
	}

	logger.Log.Info("Tasks created",
		logger.WithUserID(actor.ID),
		logger.WithFormID(form.ID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// CreateRecurring expands the recurrence and stores count × assignees tasks
// in one transaction. Each assignee is notified about their first
// occurrence only.
func (s *Service) CreateRecurring(ctx context.Context, actor *models.User, req CreateRecurringRequest) (*models.Recurrence, []*models.Task, error) {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return nil, nil, err
	}

	spec, err := req.Spec()
	if err != nil {
		return nil, nil, err
	}
	deadlines, err := Expand(spec)
	if err != nil {
		return nil, nil, recurrenceError(err)
	}
	if !deadlines[0].After(s.now()) {
		return nil, nil, apperrors.ValidationError("first_deadline", "first deadline must be in the future")
	}
	if len(deadlines)*len(req.AssigneeIDs) > MaxSeriesTasks {
		return nil, nil, apperrors.ValidationError("count", fmt.Sprintf("a series may create at most %d tasks", MaxSeriesTasks))
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, nil, err
	}

	form, err := s.lookupForm(ctx, req.FormID)
	if err != nil {
		return nil, nil, err
	}
	assignees, err := s.lookupAssignees(ctx, req.AssigneeIDs)
	if err != nil {
		return nil, nil, err
	}

	title := s.plainText(req.Title)
	if title == "" {
		title = form.Title
	}
	description := s.plainText(req.Description)

	assigneeIDs := make(models.StringList, 0, len(assignees))
	for _, a := range assignees {
		assigneeIDs = append(assigneeIDs, a.ID)
	}
	recurrence := &models.Recurrence{
		FormID:      form.ID,
		Title:       title,
		CreatedByID: actor.ID,
		Frequency:   spec.Frequency,
		Count:       spec.Count,
		Unit:        spec.Unit,
		StartsAt:    spec.Start.UTC(),
		AssigneeIDs: assigneeIDs,
	}

	tasks := make([]*models.Task, 0, len(deadlines)*len(assignees))
	for _, assignee := range assignees {
		for seq, deadline := range deadlines {
			tasks = append(tasks, &models.Task{
				FormID:      form.ID,
				FormTitle:   form.Title,
				Title:       title,
				Description: description,
				AssigneeID:  assignee.ID,
				CreatedByID: actor.ID,
				Deadline:    deadline.UTC(),
				Status:      models.TaskPending,
				Sequence:    seq,
				Tags:        tags,
			})
		}
	}

	if err := s.tasks.CreateRecurrence(ctx, recurrence, tasks); err != nil {
		return nil, nil, fmt.Errorf("failed to create recurring tasks: %w", err)
	}
	metrics.Get().App.TasksCreatedTotal.WithLabelValues("recurring").Add(float64(len(tasks)))

	for i, assignee := range assignees {
		first := tasks[i*len(deadlines)]
		first.Assignee = assignee
		s.notifyAssigned(ctx, assignee, first)
	}

	logger.Log.Info("Recurring tasks created",
		logger.WithUserID(actor.ID),
		logger.WithFormID(form.ID),
		zap.String("recurrence_id", recurrence.ID),
		zap.Int("occurrences", len(deadlines)),
		zap.Int("tasks", len(tasks)),
	)
	return recurrence, tasks, nil
}

// PreviewRecurrence returns the deadlines a recurring request would create.
func (s *Service) PreviewRecurrence(actor *models.User, spec RecurrenceSpec) ([]time.Time, error) {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return nil, err
	}
	deadlines, err := Expand(spec)
	if err != nil {
		return nil, recurrenceError(err)
	}
	return deadlines, nil
}

// ListTasks lists tasks visible to actor. Users without tasks:all only see
// their own tasks whatever the filter says.
func (s *Service) ListTasks(ctx context.Context, actor *models.User, filter repository.TaskFilter) ([]*models.Task, int64, error) {
	if err := auth.Authorize(actor, auth.PermTasksRead); err != nil {
		return nil, 0, err
	}
	if !auth.Allows(actor.Role, auth.PermTasksAll) {
		filter.AssigneeID = actor.ID
		filter.CreatedByID = ""
	}
	return s.tasks.ListTasks(ctx, filter)
}

// GetTask returns a task visible to actor. Tasks the actor may not see are
// reported as not found.
func (s *Service) GetTask(ctx context.Context, actor *models.User, taskID string) (*models.Task, error) {
	if err := auth.Authorize(actor, auth.PermTasksRead); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, task) {
		return nil, repository.ErrTaskNotFound
	}
	return task, nil
}

// UpdateTask edits a task that is not yet approved or cancelled.
func (s *Service) UpdateTask(ctx context.Context, actor *models.User, taskID string, req UpdateTaskRequest) (*models.Task, error) {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsTerminal() {
		return nil, ErrTaskClosed
	}
	original := task.Status

	fields := map[string]interface{}{}
	if req.Title != nil {
		title := s.plainText(*req.Title)
		if title == "" {
			return nil, apperrors.ValidationError("title", "title cannot be empty")
		}
		fields["title"] = title
		task.Title = title
	}
	if req.Description != nil {
		task.Description = s.plainText(*req.Description)
		fields["description"] = task.Description
	}
	if req.Tags != nil {
		tags, err := normalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}
		task.Tags = tags
		fields["tags"] = tags
	}
	if req.Deadline != nil {
		deadline := req.Deadline.UTC()
		if !deadline.After(s.now()) {
			return nil, apperrors.ValidationError("deadline", "deadline must be in the future")
		}
		task.Deadline = deadline
		fields["deadline"] = deadline
		// an extended deadline reopens an overdue task
		if task.Status == models.TaskOverdue {
			task.Status = models.TaskPending
			fields["status"] = models.TaskPending
		}
	}

	var newAssignee *models.User
	if req.AssigneeID != nil && *req.AssigneeID != task.AssigneeID {
		if !task.IsOpen() {
			return nil, apperrors.InvalidState("only open tasks can be reassigned")
		}
		assignees, err := s.lookupAssignees(ctx, []string{*req.AssigneeID})
		if err != nil {
			return nil, err
		}
		newAssignee = assignees[0]
		task.AssigneeID = newAssignee.ID
		task.Assignee = newAssignee
		fields["assignee_id"] = newAssignee.ID
	}

	if len(fields) == 0 {
		return task, nil
	}

	// status must not have moved since the read above
	if err := s.tasks.TransitionTask(ctx, task.ID, []models.TaskStatus{original}, fields); err != nil {
		return nil, err
	}

	if newAssignee != nil {
		s.notifyAssigned(ctx, newAssignee, task)
	}
	return task, nil
}

// CancelTask closes a task without deleting it.
func (s *Service) CancelTask(ctx context.Context, actor *models.User, taskID string) (*models.Task, error) {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsTerminal() {
		return nil, ErrTaskClosed
	}

	from := append([]models.TaskStatus{models.TaskSubmitted}, models.OpenTaskStatuses...)
	if err := s.tasks.TransitionTask(ctx, task.ID, from, map[string]interface{}{"status": models.TaskCancelled}); err != nil {
		return nil, err
	}
	task.Status = models.TaskCancelled
	return task, nil
}

// DeleteTask soft deletes a task.
func (s *Service) DeleteTask(ctx context.Context, actor *models.User, taskID string) error {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	logger.Log.Info("Task deleted", logger.WithUserID(actor.ID), logger.WithTaskID(taskID))
	return nil
}

// CancelRecurrence cancels every open occurrence of a series. Submitted and
// reviewed occurrences are kept.
func (s *Service) CancelRecurrence(ctx context.Context, actor *models.User, recurrenceID string) (int64, error) {
	if err := auth.Authorize(actor, auth.PermTasksWrite); err != nil {
		return 0, err
	}
	if _, err := s.tasks.GetRecurrence(ctx, recurrenceID); err != nil {
		return 0, err
	}

	cancelled, err := s.tasks.CancelRecurrence(ctx, recurrenceID, s.now())
	if errors.Is(err, repository.ErrStateConflict) {
		return 0, ErrSeriesCancelled
	}
	if err != nil {
		return 0, err
	}

	logger.Log.Info("Recurring series cancelled",
		logger.WithUserID(actor.ID),
		zap.String("recurrence_id", recurrenceID),
		zap.Int64("cancelled", cancelled),
	)
	return cancelled, nil
}

// GetDraft returns the actor's saved draft for a task.
func (s *Service) GetDraft(ctx context.Context, actor *models.User, taskID string) (*models.Draft, error) {
	if _, err := s.assignedTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.drafts.GetDraft(ctx, taskID, actor.ID)
}

// SaveDraft stores partial answers while the task is open.
func (s *Service) SaveDraft(ctx context.Context, actor *models.User, taskID string, data map[string]interface{}) (*models.Draft, error) {
	task, err := s.assignedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, ErrNotSubmittable
	}
	if data == nil {
		return nil, apperrors.ValidationError("data", "draft data is required")
	}

	draft := &models.Draft{TaskID: task.ID, UserID: actor.ID, Data: data}
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *Service) DeleteDraft(ctx context.Context, actor *models.User, taskID string) error {
	if _, err := s.assignedTask(ctx, actor, taskID); err != nil {
		return err
	}
	return s.drafts.DeleteDraft(ctx, taskID, actor.ID)
}

// Submit sends the answers to the form backend and marks the task
// submitted. When data is nil the saved draft is submitted.
func (s *Service) Submit(ctx context.Context, actor *models.User, taskID string, data map[string]interface{}) (*models.Task, error) {
	ctx, span := s.events.TraceTaskEvent(ctx, "submit", telemetry.TaskEventAttrs{TaskID: taskID, ActorID: actor.ID})
	task, err := s.submit(ctx, actor, taskID, data)
	if task != nil && task.Late {
		span.SetAttributes(attribute.Bool("task.late", true))
	}
	telemetry.EndSpan(span, err)
	return task, err
}

func (s *Service) submit(ctx context.Context, actor *models.User, taskID string, data map[string]interface{}) (*models.Task, error) {
	task, err := s.assignedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, ErrNotSubmittable
	}

	if data == nil {
		draft, err := s.drafts.GetDraft(ctx, task.ID, actor.ID)
		if errors.Is(err, repository.ErrDraftNotFound) {
			return nil, apperrors.ValidationError("data", "submission data is required")
		}
		if err != nil {
			return nil, err
		}
		data = draft.Data
	}

	submission, err := s.forms.CreateSubmission(ctx, task.FormID, &formio.Submission{
		Data:     data,
		Owner:    actor.ID,
		Metadata: map[string]interface{}{"task_id": task.ID},
	})
	if errors.Is(err, formio.ErrNotFound) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, apperrors.Upstream("form backend", err)
	}

	if err := s.tasks.CompleteSubmission(ctx, task, submission.ID, s.now()); err != nil {
		// the submission stays in the form backend without a task; results
		// only show it when orphans are requested
		logger.Log.Warn("Submission stored but task not updated",
			logger.WithTaskID(task.ID),
			zap.String("submission_id", submission.ID),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, ErrNotSubmittable
		}
		return nil, err
	}

	metrics.Get().App.SubmissionsTotal.WithLabelValues(strconv.FormatBool(task.Late)).Inc()
	logger.Log.Info("Task submitted",
		logger.WithUserID(actor.ID),
		logger.WithTaskID(task.ID),
		zap.String("submission_id", submission.ID),
		zap.Bool("late", task.Late),
	)
	return task, nil
}

// Review approves or rejects a submitted task. Managers can review any
// task; staff with tasks:write can review the tasks they created. Nobody
// reviews their own submission.
func (s *Service) Review(ctx context.Context, actor *models.User, taskID string, req ReviewRequest) (*models.Review, error) {
	ctx, span := s.events.TraceTaskEvent(ctx, "review", telemetry.TaskEventAttrs{
		TaskID:   taskID,
		ActorID:  actor.ID,
		Decision: string(req.Decision),
	})
	review, err := s.review(ctx, actor, taskID, req)
	telemetry.EndSpan(span, err)
	return review, err
}

func (s *Service) review(ctx context.Context, actor *models.User, taskID string, req ReviewRequest) (*models.Review, error) {
	if err := auth.Authorize(actor, auth.PermTasksRead); err != nil {
		return nil, err
	}
	if !req.Decision.Valid() {
		return nil, apperrors.ValidationError("decision", "decision must be approved or rejected")
	}

	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canReview(actor, task) {
		if !canView(actor, task) {
			return nil, repository.ErrTaskNotFound
		}
		return nil, auth.ErrForbidden
	}
	if task.Status != models.TaskSubmitted || task.SubmissionID == nil {
		return nil, ErrNotReviewable
	}

	review := &models.Review{
		TaskID:       task.ID,
		ReviewerID:   actor.ID,
		Decision:     req.Decision,
		Comment:      s.plainText(req.Comment),
		SubmissionID: *task.SubmissionID,
		CreatedAt:    s.now(),
	}
	status := models.TaskApproved
	if req.Decision == models.ReviewRejected {
		status = models.TaskRejected
	}

	err = s.tasks.RecordReview(ctx, review, status)
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, ErrNotReviewable
	}
	if err != nil {
		return nil, err
	}
	review.Reviewer = actor
	task.Status = status
	task.ReviewedAt = &review.CreatedAt

	metrics.Get().App.ReviewsTotal.WithLabelValues(string(req.Decision)).Inc()

	if task.Assignee != nil {
		if err := s.notifier.SendReviewOutcome(ctx, task.Assignee, task, review); err != nil {
			logger.Log.Warn("Failed to send review outcome",
				logger.WithTaskID(task.ID),
				zap.Error(err),
			)
		}
	}
	return review, nil
}

// ListReviews returns the review history of a task, newest first.
func (s *Service) ListReviews(ctx context.Context, actor *models.User, taskID string) ([]*models.Review, error) {
	if _, err := s.GetTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.tasks.ListReviews(ctx, taskID)
}

// MarkOverdue moves pending tasks past their deadline to overdue.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	marked, err := s.tasks.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.Get().App.TasksMarkedOverdue.Add(float64(marked))
	return marked, nil
}

// DueSoon returns open tasks due within window from now.
func (s *Service) DueSoon(ctx context.Context, window time.Duration) ([]*models.Task, error) {
	now := s.now()
	return s.tasks.DueBetween(ctx, now, now.Add(window))
}

// SendReminders emails the assignee of every task due within window. It
// returns how many reminders were sent; individual failures are logged.
func (s *Service) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	due, err := s.DueSoon(ctx, window)
	if err != nil {
		return 0, err
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reminderConcurrency)
	for _, task := range due {
		task := task
		if task.Assignee == nil || !task.Assignee.IsActive {
			continue
		}
		g.Go(func() error {
			if err := s.notifier.SendDeadlineReminder(gctx, task.Assignee, task); err != nil {
				metrics.Get().App.RemindersSentTotal.WithLabelValues("failed").Inc()
				logger.Log.Warn("Failed to send deadline reminder",
					logger.WithTaskID(task.ID),
					zap.Error(err),
				)
				return nil
			}
			metrics.Get().App.RemindersSentTotal.WithLabelValues("sent").Inc()
			sent.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(sent.Load()), err
	}
	return int(sent.Load()), nil
}

// assignedTask loads a task the actor is assigned to.
func (s *Service) assignedTask(ctx context.Context, actor *models.User, taskID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != actor.ID {
		return nil, ErrNotAssignee
	}
	if err := auth.Authorize(actor, auth.PermTasksSubmit); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) lookupForm(ctx context.Context, formID string) (*formio.Form, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if errors.Is(err, formio.ErrNotFound) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, apperrors.Upstream("form backend", err)
	}
	return form, nil
}

// lookupAssignees resolves ids in request order, rejecting duplicates and
// unknown or inactive accounts.
func (s *Service) lookupAssignees(ctx context.Context, ids []string) ([]*models.User, error) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, apperrors.ValidationError("assignee_ids", "assignees must be unique")
		}
		seen[id] = true
	}

	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || !u.IsActive {
			return nil, apperrors.ValidationError("assignee_ids", fmt.Sprintf("unknown or inactive user %s", id))
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) notifyAssigned(ctx context.Context, assignee *models.User, task *models.Task) {
	if err := s.notifier.SendTaskAssigned(ctx, assignee, task); err != nil {
		logger.Log.Warn("Failed to send task assignment",
			logger.WithTaskID(task.ID),
			logger.WithUserID(assignee.ID),
			zap.Error(err),
		)
	}
}

// plainText strips markup from user supplied text.
func (s *Service) plainText(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

func canView(actor *models.User, task *models.Task) bool {
	return task.AssigneeID == actor.ID || auth.Allows(actor.Role, auth.PermTasksAll)
}

func canReview(actor *models.User, task *models.Task) bool {
	if task.AssigneeID == actor.ID {
		return false
	}
	if auth.Allows(actor.Role, auth.PermTasksReview) {
		return true
	}
	return auth.Allows(actor.Role, auth.PermTasksWrite) && task.CreatedByID == actor.ID
}

func normalizeTags(tags []string) (models.StringList, error) {
	if len(tags) > MaxTags {
		return nil, apperrors.ValidationError("tags", fmt.Sprintf("at most %d tags are allowed", MaxTags))
	}
	out := make(models.StringList, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if !tagPattern.MatchString(tag) {
			return nil, apperrors.ValidationError("tags", fmt.Sprintf("invalid tag %q", tag))
		}
		if !out.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out, nil
}

// ValidTag reports whether tag is acceptable after normalization.
func ValidTag(tag string) bool {
	return tagPattern.MatchString(strings.ToLower(strings.TrimSpace(tag)))
}

func recurrenceError(err error) error {
	switch {
	case errors.Is(err, ErrMissingStart):
		return apperrors.ValidationError("first_deadline", err.Error())
	case errors.Is(err, ErrInvalidFrequency):
		return apperrors.ValidationError("frequency", err.Error())
	case errors.Is(err, ErrInvalidCount):
		return apperrors.ValidationError("count", err.Error())
	case errors.Is(err, ErrInvalidUnit):
		return apperrors.ValidationError("unit", err.Error())
	}
	return err
}
