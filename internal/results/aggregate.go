// Package results joins form submissions stored in the form backend with
// the local task records that requested them.
package results

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/models"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
	DefaultSort     = "-submitted_at"
)

// StatusOrphan marks a submission that no task points at.
const StatusOrphan models.TaskStatus = "orphan"

var ErrInvalidSort = errors.New("invalid sort field")

// SortFields are the fields rows can be sorted by.
var SortFields = []string{"deadline", "submitted_at", "status", "assignee", "title"}

// Query filters, sorts and pages the joined rows.
type Query struct {
	Statuses      []models.TaskStatus
	AssigneeID    string
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	DeadlineFrom  *time.Time
	DeadlineTo    *time.Time
	LateOnly      bool
	Tag           string
	Search        string

	// Sort is a field name from SortFields, prefixed with "-" for
	// descending order.
	Sort     string
	Page     int
	PageSize int

	IncludeOrphans bool
}

// Normalize fills in defaults and clamps paging.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if strings.TrimSpace(q.Sort) == "" {
		q.Sort = DefaultSort
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	q.Tag = strings.ToLower(strings.TrimSpace(q.Tag))
	return q
}

// Assignee is the part of a user shown next to a result.
type Assignee struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Row is one task joined with its submission. Task is nil for orphan
// submissions and Submission is nil for tasks not yet submitted.
type Row struct {
	Task        *models.Task       `json:"task"`
	Submission  *formio.Submission `json:"submission"`
	Assignee    *Assignee          `json:"assignee"`
	Status      models.TaskStatus  `json:"status"`
	Deadline    *time.Time         `json:"deadline"`
	SubmittedAt *time.Time         `json:"submitted_at"`
	Late        bool               `json:"late"`
}

// Page is one page of joined rows.
type Page struct {
	Rows     []Row                     `json:"rows"`
	Total    int                       `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"page_size"`
	Summary  map[models.TaskStatus]int `json:"summary"`
	// Truncated is set when the form backend held more submissions than
	// were loaded, so Total and Summary are lower bounds.
	Truncated bool `json:"truncated"`
}

// Aggregate joins, filters, sorts and pages. Summary counts cover every
// row that passed the filters, not just the returned page.
func Aggregate(tasks []*models.Task, submissions []formio.Submission, users []*models.User, q Query) (*Page, error) {
	q = q.Normalize()
	rows, err := Collect(tasks, submissions, users, q)
	if err != nil {
		return nil, err
	}

	summary := make(map[models.TaskStatus]int)
	for _, row := range rows {
		summary[row.Status]++
	}

	start := (q.Page - 1) * q.PageSize
	if start > len(rows) {
		start = len(rows)
	}
	end := start + q.PageSize
	if end > len(rows) {
		end = len(rows)
	}

	return &Page{
		Rows:     rows[start:end],
		Total:    len(rows),
		Page:     q.Page,
		PageSize: q.PageSize,
		Summary:  summary,
	}, nil
}

// Collect returns every filtered row in sorted order, without paging.
func Collect(tasks []*models.Task, submissions []formio.Submission, users []*models.User, q Query) ([]Row, error) {
	q = q.Normalize()
	less, err := comparator(q.Sort)
	if err != nil {
		return nil, err
	}

	rows := Join(tasks, submissions, users, q.IncludeOrphans)
	filtered := rows[:0]
	for _, row := range rows {
		if q.matches(row) {
			filtered = append(filtered, row)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })
	return filtered, nil
}

// Join pairs each task with the submission it references. Submissions no
// task references are appended as orphans when includeOrphans is set.
func Join(tasks []*models.Task, submissions []formio.Submission, users []*models.User, includeOrphans bool) []Row {
	byID := make(map[string]*formio.Submission, len(submissions))
	for i := range submissions {
		byID[submissions[i].ID] = &submissions[i]
	}
	userByID := make(map[string]*models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	claimed := make(map[string]bool, len(tasks))
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		row := Row{
			Task:     task,
			Status:   task.Status,
			Late:     task.Late,
			Deadline: timePtr(task.Deadline),
		}
		assignee := task.Assignee
		if assignee == nil {
			assignee = userByID[task.AssigneeID]
		}
		row.Assignee = summarize(assignee, task.AssigneeID)

		if task.SubmissionID != nil {
			if sub, ok := byID[*task.SubmissionID]; ok {
				row.Submission = sub
				claimed[sub.ID] = true
			}
		}
		row.SubmittedAt = task.SubmittedAt
		if row.SubmittedAt == nil && row.Submission != nil {
			row.SubmittedAt = row.Submission.Created
		}
		rows = append(rows, row)
	}

	if !includeOrphans {
		return rows
	}
	for i := range submissions {
		sub := &submissions[i]
		if claimed[sub.ID] {
			continue
		}
		row := Row{
			Submission:  sub,
			Status:      StatusOrphan,
			SubmittedAt: sub.Created,
		}
		if sub.Owner != "" {
			row.Assignee = summarize(userByID[sub.Owner], sub.Owner)
		}
		rows = append(rows, row)
	}
	return rows
}

func summarize(u *models.User, id string) *Assignee {
	if u == nil {
		if id == "" {
			return nil
		}
		return &Assignee{ID: id}
	}
	return &Assignee{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Email: u.Email}
}

func (q Query) matches(row Row) bool {
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, row.Status) {
		return false
	}
	if q.AssigneeID != "" && (row.Assignee == nil || row.Assignee.ID != q.AssigneeID) {
		return false
	}
	if q.LateOnly && !row.Late {
		return false
	}
	if q.Tag != "" && (row.Task == nil || !row.Task.HasTag(q.Tag)) {
		return false
	}
	if !inWindow(row.SubmittedAt, q.SubmittedFrom, q.SubmittedTo) {
		return false
	}
	if !inWindow(row.Deadline, q.DeadlineFrom, q.DeadlineTo) {
		return false
	}
	if q.Search != "" && !row.contains(q.Search) {
		return false
	}
	return true
}

// inWindow reports whether t lies in [from, to]. A missing t only passes
// when no bound is set.
func inWindow(t, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if t == nil {
		return false
	}
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// contains matches needle, already lowercased, against the title, the
// assignee and every string in the submission data.
func (r Row) contains(needle string) bool {
	if r.Task != nil && strings.Contains(strings.ToLower(r.Task.Title), needle) {
		return true
	}
	if a := r.Assignee; a != nil {
		for _, s := range []string{a.DisplayName, a.Email, a.Username} {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return r.Submission != nil && valueContains(r.Submission.Data, needle)
}

func valueContains(v interface{}, needle string) bool {
	switch val := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(val), needle)
	case map[string]interface{}:
		for _, inner := range val {
			if valueContains(inner, needle) {
				return true
			}
		}
	case []interface{}:
		for _, inner := range val {
			if valueContains(inner, needle) {
				return true
			}
		}
	}
	return false
}

// sortKey compares two rows on one field and reports which side lacks it.
type sortKey func(a, b Row) (cmp int, aMissing, bMissing bool)

var sortKeys = map[string]sortKey{
	"deadline": func(a, b Row) (int, bool, bool) {
		return compareTimes(a.Deadline, b.Deadline)
	},
	"submitted_at": func(a, b Row) (int, bool, bool) {
		return compareTimes(a.SubmittedAt, b.SubmittedAt)
	},
	"status": func(a, b Row) (int, bool, bool) {
		return strings.Compare(string(a.Status), string(b.Status)), a.Status == "", b.Status == ""
	},
	"assignee": func(a, b Row) (int, bool, bool) {
		an, bn := assigneeName(a), assigneeName(b)
		return strings.Compare(an, bn), an == "", bn == ""
	},
	"title": func(a, b Row) (int, bool, bool) {
		at, bt := taskTitle(a), taskTitle(b)
		return strings.Compare(at, bt), at == "", bt == ""
	},
}

// comparator builds a less function for sort. Rows missing the field sort
// last in both directions.
func comparator(spec string) (func(a, b Row) bool, error) {
	spec = strings.TrimSpace(spec)
	desc := strings.HasPrefix(spec, "-")
	field := strings.TrimPrefix(spec, "-")
	key, ok := sortKeys[field]
	if !ok {
		return nil, fmt.Errorf("%w %q: use one of %s", ErrInvalidSort, field, strings.Join(SortFields, ", "))
	}

	return func(a, b Row) bool {
		cmp, aMissing, bMissing := key(a, b)
		switch {
		case aMissing && bMissing:
			return false
		case aMissing:
			return false
		case bMissing:
			return true
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	}, nil
}

func compareTimes(a, b *time.Time) (int, bool, bool) {
	if a == nil || b == nil {
		return 0, a == nil, b == nil
	}
	return a.Compare(*b), false, false
}

func assigneeName(r Row) string {
	if r.Assignee == nil {
		return ""
	}
	name := r.Assignee.DisplayName
	if name == "" {
		name = r.Assignee.Username
	}
	return strings.ToLower(name)
}

func taskTitle(r Row) string {
	if r.Task == nil {
		return ""
	}
	return strings.ToLower(r.Task.Title)
}

func containsStatus(statuses []models.TaskStatus, s models.TaskStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
