package formio

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/metrics"
	"github.com/zfogg/formdesk/internal/telemetry"
	"go.uber.org/zap"
)

const (
	pageSize = 100
	// MaxSubmissions caps ListAllSubmissions so one form cannot exhaust memory.
	MaxSubmissions = 10000
)

// Client talks to a Formio-compatible REST API.
type Client struct {
	http  *resty.Client
	limit int
}

var _ FormBackend = (*Client)(nil)

// NewClient creates a client for cfg.URL. The API key, when set, is sent as
// the x-token header on every request.
func NewClient(cfg config.FormioConfig) *Client {
	instrumented := telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
		ServiceName: "formio",
		Timeout:     cfg.Timeout,
	})
	httpClient := resty.NewWithClient(instrumented).
		SetBaseURL(cfg.URL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "formdesk-api").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(retryIdempotent)

	if cfg.APIKey != "" {
		httpClient.SetHeader("x-token", cfg.APIKey)
	}

	return &Client{http: httpClient, limit: MaxSubmissions}
}

// retryIdempotent retries reads on transport errors and 5xx answers. Writes
// are never retried since a duplicated POST creates a second submission.
func retryIdempotent(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= 500
}

// do executes a request and decodes a 2xx body into result.
func (c *Client) do(ctx context.Context, op, method, path string, body, result interface{}, query map[string][]string) error {
	m := metrics.Get()
	start := time.Now()

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	m.FormioRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.FormioRequestsTotal.WithLabelValues(op, "error").Inc()
		logger.Log.Warn("Form backend request failed",
			zap.String("operation", op),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("formio %s: %w", op, err)
	}

	m.FormioRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode())).Inc()
	if resp.IsError() {
		return &Error{Status: resp.StatusCode(), Message: c.errorMessage(resp)}
	}
	return nil
}

// errorMessage extracts the message Formio puts in error bodies, which may
// be plain text or a JSON object with a message field.
func (c *Client) errorMessage(resp *resty.Response) string {
	var payload struct {
		Message string `json:"message"`
		Name    string `json:"name"`
	}
	if err := c.http.JSONUnmarshal(resp.Body(), &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if body := string(resp.Body()); body != "" {
		return body
	}
	return http.StatusText(resp.StatusCode())
}

func (c *Client) ListForms(ctx context.Context, q ListQuery) ([]Form, error) {
	var forms []Form
	if err := c.do(ctx, "list_forms", http.MethodGet, "/form", nil, &forms, q.Values()); err != nil {
		return nil, err
	}
	return forms, nil
}

func (c *Client) GetForm(ctx context.Context, id string) (*Form, error) {
	var form Form
	if err := c.do(ctx, "get_form", http.MethodGet, "/form/"+id, nil, &form, nil); err != nil {
		return nil, err
	}
	return &form, nil
}

func (c *Client) CreateForm(ctx context.Context, form *Form) (*Form, error) {
	var created Form
	if err := c.do(ctx, "create_form", http.MethodPost, "/form", form, &created, nil); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateForm(ctx context.Context, id string, form *Form) (*Form, error) {
	var updated Form
	if err := c.do(ctx, "update_form", http.MethodPut, "/form/"+id, form, &updated, nil); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.do(ctx, "delete_form", http.MethodDelete, "/form/"+id, nil, nil, nil)
}

func (c *Client) ListSubmissions(ctx context.Context, formID string, q ListQuery) ([]Submission, error) {
	var subs []Submission
	if err := c.do(ctx, "list_submissions", http.MethodGet, "/form/"+formID+"/submission", nil, &subs, q.Values()); err != nil {
		return nil, err
	}
	return subs, nil
}

// ListAllSubmissions pages through the submissions of a form, oldest
// first, up to MaxSubmissions.
func (c *Client) ListAllSubmissions(ctx context.Context, formID string) ([]Submission, bool, error) {
	var all []Submission
	for len(all) < c.limit {
		limit := min(pageSize, c.limit-len(all))
		page, err := c.ListSubmissions(ctx, formID, ListQuery{Limit: limit, Skip: len(all), Sort: "created"})
		if err != nil {
			return nil, false, err
		}
		all = append(all, page...)
		if len(page) < limit {
			return all, false, nil
		}
	}

	// the cap was reached; one more row means there is more
	next, err := c.ListSubmissions(ctx, formID, ListQuery{Limit: 1, Skip: len(all), Sort: "created"})
	if err != nil {
		return nil, false, err
	}
	if len(next) == 0 {
		return all, false, nil
	}
	logger.Log.Warn("Submission listing truncated",
		logger.WithFormID(formID),
		zap.Int("limit", c.limit),
	)
	return all, true, nil
}

func (c *Client) GetSubmission(ctx context.Context, formID, submissionID string) (*Submission, error) {
	var sub Submission
	path := "/form/" + formID + "/submission/" + submissionID
	if err := c.do(ctx, "get_submission", http.MethodGet, path, nil, &sub, nil); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) CreateSubmission(ctx context.Context, formID string, sub *Submission) (*Submission, error) {
	var created Submission
	if err := c.do(ctx, "create_submission", http.MethodPost, "/form/"+formID+"/submission", sub, &created, nil); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateSubmission(ctx context.Context, formID, submissionID string, sub *Submission) (*Submission, error) {
	var updated Submission
	path := "/form/" + formID + "/submission/" + submissionID
	if err := c.do(ctx, "update_submission", http.MethodPut, path, sub, &updated, nil); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Ping checks that the backend answers its status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "status", http.MethodGet, "/status", nil, nil, nil)
}
