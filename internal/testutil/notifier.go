package testutil

import (
	"context"
	"sync"

	"github.com/zfogg/formdesk/internal/email"
	"github.com/zfogg/formdesk/internal/models"
)

// Notification is one message captured by Notifier.
type Notification struct {
	Kind   string
	To     string
	TaskID string
	Token  string
	Review *models.Review
}

// Notifier records notifications instead of sending them.
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

var _ email.Notifier = (*Notifier)(nil)

func (n *Notifier) record(msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.Err
}

// Sent returns the captured notifications of the given kind, or all of them
// when kind is empty.
func (n *Notifier) Sent(kind string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, msg := range n.sent {
		if kind == "" || msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func (n *Notifier) SendPasswordReset(ctx context.Context, user *models.User, token string) error {
	return n.record(Notification{Kind: "password_reset", To: user.Email, Token: token})
}

func (n *Notifier) SendTaskAssigned(ctx context.Context, user *models.User, task *models.Task) error {
	return n.record(Notification{Kind: "task_assigned", To: user.Email, TaskID: task.ID})
}

func (n *Notifier) SendReviewOutcome(ctx context.Context, user *models.User, task *models.Task, review *models.Review) error {
	return n.record(Notification{Kind: "review_outcome", To: user.Email, TaskID: task.ID, Review: review})
}

func (n *Notifier) SendDeadlineReminder(ctx context.Context, user *models.User, task *models.Task) error {
	return n.record(Notification{Kind: "deadline_reminder", To: user.Email, TaskID: task.ID})
}
