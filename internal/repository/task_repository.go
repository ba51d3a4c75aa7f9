package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zfogg/formdesk/internal/models"
	"gorm.io/gorm"
)

// TaskFilter narrows ListTasks. Empty fields do not filter.
type TaskFilter struct {
	AssigneeID   string
	CreatedByID  string
	FormID       string
	RecurrenceID string
	Statuses     []models.TaskStatus
	DueFrom      *time.Time
	DueTo        *time.Time
	Tag          string
	Search       string
	Ordering     []Ordering
	Page         Page
}

// TaskOrderFields are the API names ListTasks can order by.
var TaskOrderFields = map[string]string{
	"deadline":     "deadline",
	"created_at":   "created_at",
	"submitted_at": "submitted_at",
	"title":        "title",
	"status":       "status",
}

// TaskRepository stores tasks, recurring series and reviews.
type TaskRepository interface {
	CreateTasks(ctx context.Context, tasks []*models.Task) error
	// CreateRecurrence stores a series and all its generated tasks atomically.
	CreateRecurrence(ctx context.Context, recurrence *models.Recurrence, tasks []*models.Task) error
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, taskID string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, int64, error)
	// ListFormTasks returns every task of a form, optionally for one assignee,
	// with assignees loaded.
	ListFormTasks(ctx context.Context, formID, assigneeID string) ([]*models.Task, error)

	// TransitionTask applies fields only if the task is currently in one of
	// from. It returns ErrStateConflict when no row matched.
	TransitionTask(ctx context.Context, taskID string, from []models.TaskStatus, fields map[string]interface{}) error
	// CompleteSubmission records a submission and removes the assignee's
	// draft in one transaction.
	CompleteSubmission(ctx context.Context, task *models.Task, submissionID string, at time.Time) error
	// RecordReview moves a submitted task to the review decision and appends
	// the review in one transaction.
	RecordReview(ctx context.Context, review *models.Review, status models.TaskStatus) error
	ListReviews(ctx context.Context, taskID string) ([]*models.Review, error)

	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	// DueBetween returns open tasks with a deadline in [from, to).
	DueBetween(ctx context.Context, from, to time.Time) ([]*models.Task, error)

	GetRecurrence(ctx context.Context, recurrenceID string) (*models.Recurrence, error)
	// CancelRecurrence marks the series cancelled and cancels its open tasks,
	// returning how many tasks were cancelled.
	CancelRecurrence(ctx context.Context, recurrenceID string, at time.Time) (int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) CreateTasks(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Omit("Assignee").Create(&tasks).Error
}

func (r *taskRepository) CreateRecurrence(ctx context.Context, recurrence *models.Recurrence, tasks []*models.Task) error {
	if recurrence == nil || len(tasks) == 0 {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recurrence).Error; err != nil {
			return err
		}
		for _, task := range tasks {
			task.RecurrenceID = &recurrence.ID
		}
		return tx.Omit("Assignee").CreateInBatches(&tasks, 100).Error
	})
}

func (r *taskRepository) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("id = ?", taskID).
		First(&task).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Omit("Assignee").Save(task).Error
}

// DeleteTask soft deletes a task and drops its drafts.
func (r *taskRepository) DeleteTask(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", taskID).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return tx.Where("task_id = ?", taskID).Delete(&models.Draft{}).Error
	})
}

func (r *taskRepository) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.AssigneeID != "" {
		q = q.Where("assignee_id = ?", filter.AssigneeID)
	}
	if filter.CreatedByID != "" {
		q = q.Where("created_by_id = ?", filter.CreatedByID)
	}
	if filter.FormID != "" {
		q = q.Where("form_id = ?", filter.FormID)
	}
	if filter.RecurrenceID != "" {
		q = q.Where("recurrence_id = ?", filter.RecurrenceID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.DueFrom != nil {
		q = q.Where("deadline >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		q = q.Where("deadline < ?", *filter.DueTo)
	}
	if filter.Tag != "" {
		q = r.whereTag(q, filter.Tag)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(form_title) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var tasks []*models.Task
	err := applyOrdering(q, filter.Ordering, Ordering{Field: "deadline"}).
		Preload("Assignee").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&tasks).Error

	return tasks, total, err
}

// whereTag matches one tag. PostgreSQL uses the text[] column; other
// dialects match the quoted element in the stored array literal
// ({"hr","urgent"}). Tags never contain quotes.
func (r *taskRepository) whereTag(q *gorm.DB, tag string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return q.Where("? = ANY(tags)", tag)
	}
	return q.Where("tags LIKE ? ESCAPE '\\'", `%"`+likeEscaper.Replace(tag)+`"%`)
}

func (r *taskRepository) ListFormTasks(ctx context.Context, formID, assigneeID string) ([]*models.Task, error) {
	q := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("form_id = ?", formID)
	if assigneeID != "" {
		q = q.Where("assignee_id = ?", assigneeID)
	}

	var tasks []*models.Task
	err := q.Order("deadline").Order("id").Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) TransitionTask(ctx context.Context, taskID string, from []models.TaskStatus, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND status IN ?", taskID, from).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *taskRepository) CompleteSubmission(ctx context.Context, task *models.Task, submissionID string, at time.Time) error {
	late := at.After(task.Deadline)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND status IN ?", task.ID, models.OpenTaskStatuses).
			Updates(map[string]interface{}{
				"status":        models.TaskSubmitted,
				"submission_id": submissionID,
				"submitted_at":  at,
				"late":          late,
				"reviewed_at":   nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}

		if err := tx.Where("task_id = ? AND user_id = ?", task.ID, task.AssigneeID).Delete(&models.Draft{}).Error; err != nil {
			return err
		}

		task.Status = models.TaskSubmitted
		task.SubmissionID = &submissionID
		task.SubmittedAt = &at
		task.Late = late
		task.ReviewedAt = nil
		return nil
	})
}

func (r *taskRepository) RecordReview(ctx context.Context, review *models.Review, status models.TaskStatus) error {
	if review == nil || review.TaskID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", review.TaskID, models.TaskSubmitted).
			Updates(map[string]interface{}{
				"status":      status,
				"reviewed_at": review.CreatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}
		return tx.Omit("Reviewer").Create(review).Error
	})
}

func (r *taskRepository) ListReviews(ctx context.Context, taskID string) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *taskRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("status = ? AND deadline < ?", models.TaskPending, now).
		Update("status", models.TaskOverdue)
	return result.RowsAffected, result.Error
}

func (r *taskRepository) DueBetween(ctx context.Context, from, to time.Time) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("status IN ? AND deadline >= ? AND deadline < ?", models.OpenTaskStatuses, from, to).
		Order("deadline").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) GetRecurrence(ctx context.Context, recurrenceID string) (*models.Recurrence, error) {
	var recurrence models.Recurrence
	err := r.db.WithContext(ctx).
		Where("id = ?", recurrenceID).
		First(&recurrence).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecurrenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recurrence, nil
}

func (r *taskRepository) CancelRecurrence(ctx context.Context, recurrenceID string, at time.Time) (int64, error) {
	var cancelled int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Recurrence{}).
			Where("id = ? AND cancelled_at IS NULL", recurrenceID).
			Update("cancelled_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}

		result = tx.Model(&models.Task{}).
			Where("recurrence_id = ? AND status IN ?", recurrenceID, models.OpenTaskStatuses).
			Update("status", models.TaskCancelled)
		cancelled = result.RowsAffected
		return result.Error
	})
	return cancelled, err
}
