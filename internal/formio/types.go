package formio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when the form backend answers 404.
var ErrNotFound = errors.New("formio: not found")

// Error is a non-2xx answer from the form backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("formio: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// Form is a form definition. Components are passed through untouched; the
// server never renders or interprets them.
type Form struct {
	ID         string                   `json:"_id,omitempty"`
	Title      string                   `json:"title"`
	Name       string                   `json:"name"`
	Path       string                   `json:"path"`
	Type       string                   `json:"type,omitempty"`
	Display    string                   `json:"display,omitempty"`
	Tags       []string                 `json:"tags,omitempty"`
	Components []map[string]interface{} `json:"components"`
	Created    *time.Time               `json:"created,omitempty"`
	Modified   *time.Time               `json:"modified,omitempty"`
}

// Submission is one filled-in form.
type Submission struct {
	ID       string                 `json:"_id,omitempty"`
	Form     string                 `json:"form,omitempty"`
	Owner    string                 `json:"owner,omitempty"`
	State    string                 `json:"state,omitempty"`
	Data     map[string]interface{} `json:"data"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Created  *time.Time             `json:"created,omitempty"`
	Modified *time.Time             `json:"modified,omitempty"`
}

// ListQuery pages and filters list endpoints.
type ListQuery struct {
	Limit  int
	Skip   int
	Sort   string            // field name, "-" prefix for descending
	Select string            // comma separated projection
	Filter map[string]string // passed through as query parameters, e.g. "tags": "hr"
}

// Values encodes the query for the form backend.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Select != "" {
		v.Set("select", q.Select)
	}
	for key, value := range q.Filter {
		v.Set(key, value)
	}
	return v
}

// FormBackend is the surface of the external form service used by the API.
type FormBackend interface {
	ListForms(ctx context.Context, q ListQuery) ([]Form, error)
	GetForm(ctx context.Context, id string) (*Form, error)
	CreateForm(ctx context.Context, form *Form) (*Form, error)
	UpdateForm(ctx context.Context, id string, form *Form) (*Form, error)
	DeleteForm(ctx context.Context, id string) error

	ListSubmissions(ctx context.Context, formID string, q ListQuery) ([]Submission, error)
	// ListAllSubmissions reports truncated when the form holds more
	// submissions than were returned.
	ListAllSubmissions(ctx context.Context, formID string) (subs []Submission, truncated bool, err error)
	GetSubmission(ctx context.Context, formID, submissionID string) (*Submission, error)
	CreateSubmission(ctx context.Context, formID string, sub *Submission) (*Submission, error)
	UpdateSubmission(ctx context.Context, formID, submissionID string, sub *Submission) (*Submission, error)

	Ping(ctx context.Context) error
}
