package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zfogg/formdesk/internal/models"
)

type templateData struct {
	Name        string
	URL         string
	Task        *models.Task
	Review      *models.Review
	DeadlineRel string
}

type renderedEmail struct {
	subject string
	html    string
	text    string
}

type emailTemplate struct {
	name    string
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func (t *emailTemplate) render(data templateData) (*renderedEmail, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("render %s subject: %w", t.name, err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", t.name, err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", t.name, err)
	}
	return &renderedEmail{
		subject: strings.TrimSpace(subject.String()),
		html:    html.String(),
		text:    strings.TrimSpace(text.String()) + "\n",
	}, nil
}

var funcs = map[string]interface{}{
	"date": func(t time.Time) string { return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST") },
}

func mustTemplate(name, subject, html, text string) *emailTemplate {
	return &emailTemplate{
		name:    name,
		subject: texttemplate.Must(texttemplate.New(name + "_subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + "_html").Funcs(funcs).Parse(layoutStart + html + layoutEnd)),
		text:    texttemplate.Must(texttemplate.New(name + "_text").Funcs(funcs).Parse(text + textFooter)),
	}
}

const layoutStart = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.button { display: inline-block; padding: 12px 24px; background-color: #2563eb; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
		.muted { color: #999; font-size: 12px; }
	</style>
</head>
<body>
<div class="container">
`

const layoutEnd = `
<hr>
<p class="muted">This is an automated message from Formdesk.</p>
</div>
</body>
</html>
`

const textFooter = `

This is an automated message from Formdesk.`

var passwordResetTemplate = mustTemplate("password_reset",
	`Reset your Formdesk password`,
	`<h1>Reset your password</h1>
<p>Hi {{.Name}},</p>
<p>We received a request to reset your Formdesk password. This link expires in 1 hour.</p>
<a href="{{.URL}}" class="button">Reset password</a>
<p>Or copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #666;">{{.URL}}</p>
<p>If you didn't request this, you can safely ignore this email.</p>`,
	`Hi {{.Name}},

We received a request to reset your Formdesk password. This link expires in 1 hour.

{{.URL}}

If you didn't request this, you can safely ignore this email.`,
)

var taskAssignedTemplate = mustTemplate("task_assigned",
	`New task: {{.Task.Title}}`,
	`<h1>{{.Task.Title}}</h1>
<p>Hi {{.Name}},</p>
<p>You have been asked to complete <strong>{{.Task.FormTitle}}</strong>.</p>
{{if .Task.Description}}<p>{{.Task.Description}}</p>{{end}}
<p>Due {{date .Task.Deadline}} ({{.DeadlineRel}}).</p>
<a href="{{.URL}}" class="button">Open task</a>`,
	`Hi {{.Name}},

You have been asked to complete "{{.Task.FormTitle}}".
{{if .Task.Description}}
{{.Task.Description}}
{{end}}
Due {{date .Task.Deadline}} ({{.DeadlineRel}}).

{{.URL}}`,
)

var reviewOutcomeTemplate = mustTemplate("review_outcome",
	`Your submission for "{{.Task.Title}}" was {{.Review.Decision}}`,
	`<h1>Submission {{.Review.Decision}}</h1>
<p>Hi {{.Name}},</p>
<p>Your submission for <strong>{{.Task.Title}}</strong> was {{.Review.Decision}}.</p>
{{if .Review.Comment}}<blockquote>{{.Review.Comment}}</blockquote>{{end}}
{{if eq .Review.Decision "rejected"}}<p>Please update your answers and submit again.</p>{{end}}
<a href="{{.URL}}" class="button">View task</a>`,
	`Hi {{.Name}},

Your submission for "{{.Task.Title}}" was {{.Review.Decision}}.
{{if .Review.Comment}}
Reviewer comment: {{.Review.Comment}}
{{end}}{{if eq .Review.Decision "rejected"}}
Please update your answers and submit again.
{{end}}
{{.URL}}`,
)

var deadlineReminderTemplate = mustTemplate("deadline_reminder",
	`Reminder: "{{.Task.Title}}" is due {{.DeadlineRel}}`,
	`<h1>Deadline approaching</h1>
<p>Hi {{.Name}},</p>
<p><strong>{{.Task.Title}}</strong> is due {{date .Task.Deadline}} ({{.DeadlineRel}}).</p>
<a href="{{.URL}}" class="button">Complete task</a>`,
	`Hi {{.Name}},

"{{.Task.Title}}" is due {{date .Task.Deadline}} ({{.DeadlineRel}}).

{{.URL}}`,
)

func resetURL(baseURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token))
}

func taskURL(baseURL, taskID string) string {
	return fmt.Sprintf("%s/tasks/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(taskID))
}

// relativeDeadline renders "6 hours from now" or "2 days ago".
func relativeDeadline(deadline, now time.Time) string {
	return humanize.RelTime(deadline, now, "ago", "from now")
}
