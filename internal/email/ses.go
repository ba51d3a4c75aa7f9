package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/zfogg/formdesk/internal/metrics"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/telemetry"
)

// sesAPI is the subset of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	baseURL   string
	now       func() time.Time
}

var _ Notifier = (*EmailService)(nil)

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newEmailService(ses.NewFromConfig(cfg), fromEmail, fromName, baseURL), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, baseURL string) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
		now:       time.Now,
	}
}

func (e *EmailService) SendPasswordReset(ctx context.Context, user *models.User, token string) error {
	return e.send(ctx, user.Email, passwordResetTemplate, templateData{
		Name: displayName(user),
		URL:  resetURL(e.baseURL, token),
	})
}

func (e *EmailService) SendTaskAssigned(ctx context.Context, user *models.User, task *models.Task) error {
	return e.send(ctx, user.Email, taskAssignedTemplate, templateData{
		Name:        displayName(user),
		Task:        task,
		URL:         taskURL(e.baseURL, task.ID),
		DeadlineRel: relativeDeadline(task.Deadline, e.now()),
	})
}

func (e *EmailService) SendReviewOutcome(ctx context.Context, user *models.User, task *models.Task, review *models.Review) error {
	return e.send(ctx, user.Email, reviewOutcomeTemplate, templateData{
		Name:   displayName(user),
		Task:   task,
		Review: review,
		URL:    taskURL(e.baseURL, task.ID),
	})
}

func (e *EmailService) SendDeadlineReminder(ctx context.Context, user *models.User, task *models.Task) error {
	return e.send(ctx, user.Email, deadlineReminderTemplate, templateData{
		Name:        displayName(user),
		Task:        task,
		URL:         taskURL(e.baseURL, task.ID),
		DeadlineRel: relativeDeadline(task.Deadline, e.now()),
	})
}

func (e *EmailService) send(ctx context.Context, to string, tmpl *emailTemplate, data templateData) error {
	rendered, err := tmpl.render(data)
	if err != nil {
		metrics.Get().App.EmailsSentTotal.WithLabelValues(tmpl.name, "error").Inc()
		return err
	}

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(rendered.subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(rendered.html),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(rendered.text),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	ctx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
		Service:   "ses",
		Operation: "send_" + tmpl.name,
	})
	defer span.End()

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		telemetry.RecordExternalCallError(span, err)
		metrics.Get().App.EmailsSentTotal.WithLabelValues(tmpl.name, "error").Inc()
		return fmt.Errorf("failed to send %s email: %w", tmpl.name, err)
	}

	telemetry.RecordExternalCallSuccess(span, 0)
	metrics.Get().App.EmailsSentTotal.WithLabelValues(tmpl.name, "sent").Inc()
	return nil
}

func displayName(user *models.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}
