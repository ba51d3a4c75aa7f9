package api

import (
	"net/url"
	"strconv"
	"time"

	"github.com/zfogg/formdesk/internal/cli/client"
)

// ResultsQuery mirrors the filters of the results endpoint. Page and
// PageSize are ignored by exports.
type ResultsQuery struct {
	Status         string // comma separated, "orphan" included
	AssigneeID     string
	Tag            string
	Search         string
	Sort           string
	LateOnly       bool
	IncludeOrphans bool
	SubmittedFrom  *time.Time
	SubmittedTo    *time.Time
	Page           int
	PageSize       int
}

func (q ResultsQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "status", q.Status)
	setIf(v, "assignee_id", q.AssigneeID)
	setIf(v, "tag", q.Tag)
	setIf(v, "search", q.Search)
	setIf(v, "sort", q.Sort)
	if q.LateOnly {
		v.Set("late", "true")
	}
	if q.IncludeOrphans {
		v.Set("include_orphans", "true")
	}
	if q.SubmittedFrom != nil {
		v.Set("submitted_from", q.SubmittedFrom.UTC().Format(time.RFC3339))
	}
	if q.SubmittedTo != nil {
		v.Set("submitted_to", q.SubmittedTo.UTC().Format(time.RFC3339))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

func GetResults(formID string, q ResultsQuery) (*ResultsPage, error) {
	var out ResultsPage
	resp, err := client.GetClient().R().
		SetPathParam("id", formID).
		SetQueryParamsFromValues(q.values()).
		Get("/api/v1/forms/{id}/results")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type exportEnvelope struct {
	Job ExportJob `json:"job"`
}

// ExportResults queues a CSV export and returns the pending job.
func ExportResults(formID string, q ResultsQuery) (*ExportJob, error) {
	var out exportEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", formID).
		SetQueryParamsFromValues(q.values()).
		Post("/api/v1/forms/{id}/results/export")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

func GetExport(jobID string) (*ExportJob, error) {
	var out exportEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", jobID).
		Get("/api/v1/exports/{id}")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

// WaitForExport polls the job every interval until it is done or timeout
// elapses. The last seen state is returned either way.
func WaitForExport(jobID string, interval, timeout time.Duration) (*ExportJob, error) {
	deadline := time.Now().Add(timeout)
	for {
		job, err := GetExport(jobID)
		if err != nil {
			return nil, err
		}
		if job.Done() || time.Now().After(deadline) {
			return job, nil
		}
		time.Sleep(interval)
	}
}
