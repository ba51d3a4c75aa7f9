package email

import (
	"context"

	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/models"
	"go.uber.org/zap"
)

// Notifier sends the transactional emails of the application.
type Notifier interface {
	SendPasswordReset(ctx context.Context, user *models.User, token string) error
	SendTaskAssigned(ctx context.Context, user *models.User, task *models.Task) error
	SendReviewOutcome(ctx context.Context, user *models.User, task *models.Task, review *models.Review) error
	SendDeadlineReminder(ctx context.Context, user *models.User, task *models.Task) error
}

// LogNotifier writes notifications to the application log instead of
// sending them. It is used when SES is not configured.
type LogNotifier struct {
	BaseURL string
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) SendPasswordReset(ctx context.Context, user *models.User, token string) error {
	logger.Log.Info("Password reset email (not sent)",
		logger.WithUserID(user.ID),
		zap.String("to", user.Email),
		zap.String("reset_url", resetURL(n.BaseURL, token)),
	)
	return nil
}

func (n *LogNotifier) SendTaskAssigned(ctx context.Context, user *models.User, task *models.Task) error {
	logger.Log.Info("Task assigned email (not sent)",
		logger.WithUserID(user.ID),
		logger.WithTaskID(task.ID),
		zap.String("to", user.Email),
		zap.Time("deadline", task.Deadline),
	)
	return nil
}

func (n *LogNotifier) SendReviewOutcome(ctx context.Context, user *models.User, task *models.Task, review *models.Review) error {
	logger.Log.Info("Review outcome email (not sent)",
		logger.WithUserID(user.ID),
		logger.WithTaskID(task.ID),
		zap.String("to", user.Email),
		zap.String("decision", string(review.Decision)),
	)
	return nil
}

func (n *LogNotifier) SendDeadlineReminder(ctx context.Context, user *models.User, task *models.Task) error {
	logger.Log.Info("Deadline reminder email (not sent)",
		logger.WithUserID(user.ID),
		logger.WithTaskID(task.ID),
		zap.String("to", user.Email),
		zap.Time("deadline", task.Deadline),
	)
	return nil
}
