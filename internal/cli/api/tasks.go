package api

import (
	"net/url"
	"time"

	"github.com/zfogg/formdesk/internal/cli/client"
)

type TaskFilter struct {
	AssigneeID string
	FormID     string
	Status     string // comma separated
	Tag        string
	Search     string
	Ordering   string
	DueFrom    *time.Time
	DueTo      *time.Time
	Page       Page
}

func (f TaskFilter) values() url.Values {
	q := f.Page.apply(url.Values{})
	setIf(q, "assignee_id", f.AssigneeID)
	setIf(q, "form_id", f.FormID)
	setIf(q, "status", f.Status)
	setIf(q, "tag", f.Tag)
	setIf(q, "search", f.Search)
	setIf(q, "ordering", f.Ordering)
	if f.DueFrom != nil {
		q.Set("due_from", f.DueFrom.UTC().Format(time.RFC3339))
	}
	if f.DueTo != nil {
		q.Set("due_to", f.DueTo.UTC().Format(time.RFC3339))
	}
	return q
}

func ListTasks(filter TaskFilter) (*TaskListResponse, error) {
	var out TaskListResponse
	resp, err := client.GetClient().R().
		SetQueryParamsFromValues(filter.values()).
		Get("/api/v1/tasks")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type taskEnvelope struct {
	Task Task `json:"task"`
}

func GetTask(id string) (*Task, error) {
	var out taskEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Get("/api/v1/tasks/{id}")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// CreateTasks creates one task per assignee.
func CreateTasks(req CreateTaskRequest) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	resp, err := client.GetClient().R().
		SetBody(req).
		Post("/api/v1/tasks")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func CreateRecurring(req CreateRecurringRequest) (*RecurringResponse, error) {
	var out RecurringResponse
	resp, err := client.GetClient().R().
		SetBody(req).
		Post("/api/v1/tasks/recurring")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelRecurrence cancels the open occurrences of a series and returns
// how many were cancelled.
func CancelRecurrence(id string) (int64, error) {
	var out struct {
		Cancelled int64 `json:"cancelled"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/tasks/recurring/{id}")
	if err := decode(resp, err, &out); err != nil {
		return 0, err
	}
	return out.Cancelled, nil
}

func CancelTask(id string) (*Task, error) {
	var out taskEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Post("/api/v1/tasks/{id}/cancel")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

func DeleteTask(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/tasks/{id}")
	return decode(resp, err, nil)
}

func GetDraft(taskID string) (*Draft, error) {
	var out struct {
		Draft Draft `json:"draft"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", taskID).
		Get("/api/v1/tasks/{id}/draft")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Draft, nil
}

func SaveDraft(taskID string, data map[string]interface{}) (*Draft, error) {
	var out struct {
		Draft Draft `json:"draft"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", taskID).
		SetBody(map[string]interface{}{"data": data}).
		Put("/api/v1/tasks/{id}/draft")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Draft, nil
}

// Submit sends data as the answers, or the saved draft when data is nil.
func Submit(taskID string, data map[string]interface{}) (*Task, error) {
	req := client.GetClient().R().SetPathParam("id", taskID)
	if data != nil {
		req.SetBody(map[string]interface{}{"data": data})
	}

	var out taskEnvelope
	resp, err := req.Post("/api/v1/tasks/{id}/submit")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// ReviewTask records decision, which is "approved" or "rejected".
func ReviewTask(taskID, decision, comment string) (*Review, error) {
	var out struct {
		Review Review `json:"review"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", taskID).
		SetBody(map[string]string{"decision": decision, "comment": comment}).
		Post("/api/v1/tasks/{id}/review")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Review, nil
}

func ListReviews(taskID string) ([]Review, error) {
	var out struct {
		Reviews []Review `json:"reviews"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", taskID).
		Get("/api/v1/tasks/{id}/reviews")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Reviews, nil
}
