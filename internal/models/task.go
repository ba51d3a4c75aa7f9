package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved"
	TaskRejected  TaskStatus = "rejected"
	TaskOverdue   TaskStatus = "overdue"
	TaskCancelled TaskStatus = "cancelled"
)

// AllTaskStatuses lists every status in lifecycle order.
var AllTaskStatuses = []TaskStatus{
	TaskPending, TaskOverdue, TaskSubmitted, TaskRejected, TaskApproved, TaskCancelled,
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	for _, known := range AllTaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OpenTaskStatuses are the states in which the assignee still owes a submission.
var OpenTaskStatuses = []TaskStatus{TaskPending, TaskOverdue, TaskRejected}

// Task is one assignment of a form to a user with a deadline.
type Task struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	FormID      string `gorm:"not null;index" json:"form_id"`
	FormTitle   string `json:"form_title"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	AssigneeID  string `gorm:"type:uuid;not null;index" json:"assignee_id"`
	Assignee    *User  `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by_id"`

	Deadline time.Time  `gorm:"not null;index" json:"deadline"`
	Status   TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	SubmissionID *string    `gorm:"index" json:"submission_id"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	Late         bool       `json:"late"`

	RecurrenceID *string `gorm:"type:uuid;index" json:"recurrence_id"`
	Sequence     int     `json:"sequence"`

	Tags StringList `json:"tags"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	return nil
}

// IsOpen reports whether the assignee can still submit.
func (t *Task) IsOpen() bool {
	for _, s := range OpenTaskStatuses {
		if t.Status == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the task can no longer change.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskApproved || t.Status == TaskCancelled
}

// HasTag reports whether tag is attached to the task.
func (t *Task) HasTag(tag string) bool {
	return t.Tags.Contains(tag)
}

// RecurrenceUnit is the calendar step of a recurring series.
type RecurrenceUnit string

const (
	UnitDay   RecurrenceUnit = "day"
	UnitWeek  RecurrenceUnit = "week"
	UnitMonth RecurrenceUnit = "month"
	UnitYear  RecurrenceUnit = "year"
)

// Valid reports whether u is a known unit.
func (u RecurrenceUnit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// Recurrence records how a series of tasks was generated so that the series
// can be listed or cancelled as a whole.
type Recurrence struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	FormID      string         `gorm:"not null;index" json:"form_id"`
	Title       string         `gorm:"not null" json:"title"`
	CreatedByID string         `gorm:"type:uuid;not null;index" json:"created_by_id"`
	Frequency   int            `gorm:"not null" json:"frequency"`
	Count       int            `gorm:"not null" json:"count"`
	Unit        RecurrenceUnit `gorm:"type:varchar(10);not null" json:"unit"`
	StartsAt    time.Time      `gorm:"not null" json:"starts_at"`
	AssigneeIDs StringList     `json:"assignee_ids"`
	CancelledAt *time.Time     `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Recurrence) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
