package repository

import (
	"context"
	"errors"

	"github.com/zfogg/formdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRepository stores in-progress form data, one row per task and user.
type DraftRepository interface {
	GetDraft(ctx context.Context, taskID, userID string) (*models.Draft, error)
	SaveDraft(ctx context.Context, draft *models.Draft) error
	DeleteDraft(ctx context.Context, taskID, userID string) error
}

type draftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) GetDraft(ctx context.Context, taskID, userID string) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		First(&draft).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// SaveDraft inserts or replaces the data of the (task, user) draft and
// reloads it so ID and timestamps reflect the stored row.
func (r *draftRepository) SaveDraft(ctx context.Context, draft *models.Draft) error {
	if draft == nil || draft.TaskID == "" || draft.UserID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(draft).Error
		if err != nil {
			return err
		}
		// on conflict the generated ID is not the stored one
		var stored models.Draft
		if err := tx.Where("task_id = ? AND user_id = ?", draft.TaskID, draft.UserID).First(&stored).Error; err != nil {
			return err
		}
		*draft = stored
		return nil
	})
}

func (r *draftRepository) DeleteDraft(ctx context.Context, taskID, userID string) error {
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.Draft{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}
