package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Draft holds a user's partially filled form data for a task.
type Draft struct {
	ID     string                 `gorm:"primaryKey;type:uuid" json:"id"`
	TaskID string                 `gorm:"type:uuid;not null;uniqueIndex:idx_drafts_task_user" json:"task_id"`
	UserID string                 `gorm:"type:uuid;not null;uniqueIndex:idx_drafts_task_user" json:"user_id"`
	Data   map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// ReviewDecision is the outcome of reviewing a submission.
type ReviewDecision string

const (
	ReviewApproved ReviewDecision = "approved"
	ReviewRejected ReviewDecision = "rejected"
)

// Valid reports whether d is a known decision.
func (d ReviewDecision) Valid() bool {
	return d == ReviewApproved || d == ReviewRejected
}

// Review is one entry in a task's review history.
type Review struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	TaskID     string         `gorm:"type:uuid;not null;index" json:"task_id"`
	ReviewerID string         `gorm:"type:uuid;not null;index" json:"reviewer_id"`
	Reviewer   *User          `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Decision   ReviewDecision `gorm:"type:varchar(20);not null" json:"decision"`
	Comment    string         `gorm:"type:text" json:"comment"`
	// SubmissionID is the submission that was reviewed; a task can be
	// resubmitted after a rejection.
	SubmissionID string `json:"submission_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
