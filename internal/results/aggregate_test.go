package results

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/models"
)

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func at(hours int) *time.Time {
	t := base.Add(time.Duration(hours) * time.Hour)
	return &t
}

func strp(s string) *string { return &s }

type fixture struct {
	tasks       []*models.Task
	submissions []formio.Submission
	users       []*models.User
}

// newFixture builds four tasks for two users plus one orphan submission:
//
//	t1 ada   submitted on time   s1
//	t2 ada   pending
//	t3 grace submitted late      s3  tagged "q2"
//	t4 grace approved            s4
//	s9 orphan owned by ada
func newFixture() fixture {
	ada := &models.User{ID: "u-ada", Username: "ada", DisplayName: "Ada Lovelace", Email: "ada@example.com"}
	grace := &models.User{ID: "u-grace", Username: "grace", DisplayName: "Grace Hopper", Email: "grace@example.com"}

	tasks := []*models.Task{
		{ID: "t1", Title: "Fire exits", AssigneeID: ada.ID, Assignee: ada, Status: models.TaskSubmitted,
			Deadline: *at(24), SubmissionID: strp("s1"), SubmittedAt: at(2)},
		{ID: "t2", Title: "Ladders", AssigneeID: ada.ID, Assignee: ada, Status: models.TaskPending,
			Deadline: *at(48)},
		{ID: "t3", Title: "Extinguishers", AssigneeID: grace.ID, Assignee: grace, Status: models.TaskSubmitted,
			Deadline: *at(1), SubmissionID: strp("s3"), SubmittedAt: at(5), Late: true, Tags: models.StringList{"q2"}},
		{ID: "t4", Title: "Alarms", AssigneeID: grace.ID, Assignee: grace, Status: models.TaskApproved,
			Deadline: *at(12), SubmissionID: strp("s4"), SubmittedAt: at(3)},
	}
	submissions := []formio.Submission{
		{ID: "s1", Owner: ada.ID, Data: map[string]interface{}{"notes": "All clear"}, Created: at(2)},
		{ID: "s3", Owner: grace.ID, Data: map[string]interface{}{"items": []interface{}{map[string]interface{}{"label": "Blocked corridor"}}}, Created: at(5)},
		{ID: "s4", Owner: grace.ID, Data: map[string]interface{}{"count": 4.0}, Created: at(3)},
		{ID: "s9", Owner: ada.ID, Data: map[string]interface{}{"notes": "stray"}, Created: at(7)},
	}
	return fixture{tasks: tasks, submissions: submissions, users: []*models.User{ada, grace}}
}

func ids(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		switch {
		case r.Task != nil:
			out = append(out, r.Task.ID)
		case r.Submission != nil:
			out = append(out, r.Submission.ID)
		}
	}
	return out
}

func TestJoin(t *testing.T) {
	f := newFixture()

	rows := Join(f.tasks, f.submissions, f.users, false)
	require.Len(t, rows, 4)
	assert.Equal(t, "s1", rows[0].Submission.ID)
	assert.Nil(t, rows[1].Submission, "pending task has no submission")
	assert.Nil(t, rows[1].SubmittedAt)
	assert.Equal(t, &Assignee{ID: "u-ada", Username: "ada", DisplayName: "Ada Lovelace", Email: "ada@example.com"}, rows[1].Assignee)

	withOrphans := Join(f.tasks, f.submissions, f.users, true)
	require.Len(t, withOrphans, 5)
	orphan := withOrphans[4]
	assert.Nil(t, orphan.Task)
	assert.Equal(t, StatusOrphan, orphan.Status)
	assert.Equal(t, "u-ada", orphan.Assignee.ID)
	assert.Equal(t, at(7), orphan.SubmittedAt)
}

func TestJoin_MissingSubmissionAndAssignee(t *testing.T) {
	task := &models.Task{ID: "t", AssigneeID: "gone", Status: models.TaskSubmitted, SubmissionID: strp("deleted")}
	rows := Join([]*models.Task{task}, nil, nil, true)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Submission)
	assert.Equal(t, &Assignee{ID: "gone"}, rows[0].Assignee)
}

func TestCollect_Filters(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"default sort is newest submission first, pending last", Query{}, []string{"t3", "t4", "t1", "t2"}},
		{"statuses", Query{Statuses: []models.TaskStatus{models.TaskPending, models.TaskApproved}}, []string{"t4", "t2"}},
		{"assignee", Query{AssigneeID: "u-ada"}, []string{"t1", "t2"}},
		{"late only", Query{LateOnly: true}, []string{"t3"}},
		{"tag", Query{Tag: "Q2"}, []string{"t3"}},
		{"submitted window excludes unsubmitted", Query{SubmittedFrom: at(3), SubmittedTo: at(5)}, []string{"t3", "t4"}},
		{"deadline window", Query{DeadlineFrom: at(12), Sort: "deadline"}, []string{"t4", "t1", "t2"}},
		{"search title", Query{Search: "LADDER"}, []string{"t2"}},
		{"search assignee email", Query{Search: "grace@"}, []string{"t3", "t4"}},
		{"search nested submission data", Query{Search: "corridor"}, []string{"t3"}},
		{"search ignores non-string data", Query{Search: "4"}, nil},
		{"orphans", Query{IncludeOrphans: true, Search: "stray"}, []string{"s9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Collect(f.tasks, f.submissions, f.users, tt.query)
			require.NoError(t, err)
			got := ids(rows)
			if len(got) == 0 {
				got = nil
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollect_Sort(t *testing.T) {
	f := newFixture()

	tests := []struct {
		sort string
		want []string
	}{
		{"deadline", []string{"t3", "t4", "t1", "t2"}},
		{"-deadline", []string{"t2", "t1", "t4", "t3"}},
		{"submitted_at", []string{"t1", "t4", "t3", "t2"}},
		// missing values stay last when descending too
		{"-submitted_at", []string{"t3", "t4", "t1", "t2"}},
		{"title", []string{"t4", "t3", "t1", "t2"}},
		{"-title", []string{"t2", "t1", "t3", "t4"}},
		// stable: ties keep join order
		{"assignee", []string{"t1", "t2", "t3", "t4"}},
		{"-assignee", []string{"t3", "t4", "t1", "t2"}},
		{"status", []string{"t4", "t2", "t1", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			rows, err := Collect(f.tasks, f.submissions, f.users, Query{Sort: tt.sort})
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ids(rows)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}

	_, err := Collect(f.tasks, f.submissions, f.users, Query{Sort: "-owner"})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestCollect_OrphansSortLastWithoutTitle(t *testing.T) {
	f := newFixture()

	rows, err := Collect(f.tasks, f.submissions, f.users, Query{Sort: "-title", IncludeOrphans: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t1", "t3", "t4", "s9"}, ids(rows))
}

func TestAggregate_Paging(t *testing.T) {
	f := newFixture()

	page, err := Aggregate(f.tasks, f.submissions, f.users, Query{Sort: "title", Page: 2, PageSize: 3, IncludeOrphans: true})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.PageSize)
	assert.Equal(t, []string{"t2", "s9"}, ids(page.Rows))

	wantSummary := map[models.TaskStatus]int{
		models.TaskSubmitted: 2,
		models.TaskPending:   1,
		models.TaskApproved:  1,
		StatusOrphan:         1,
	}
	if diff := cmp.Diff(wantSummary, page.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	beyond, err := Aggregate(f.tasks, f.submissions, f.users, Query{Page: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Rows)
	assert.Equal(t, 4, beyond.Total)
}

func TestQueryNormalize(t *testing.T) {
	q := Query{Page: -1, PageSize: 1000, Search: "  Ada ", Tag: " Q1 "}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)
	assert.Equal(t, DefaultSort, q.Sort)
	assert.Equal(t, "ada", q.Search)
	assert.Equal(t, "q1", q.Tag)

	assert.Equal(t, DefaultPageSize, Query{}.Normalize().PageSize)
}

func TestWriteCSV(t *testing.T) {
	f := newFixture()
	rows, err := Collect(f.tasks, f.submissions, f.users, Query{Sort: "title", AssigneeID: "u-grace"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	want := [][]string{
		{"task_id", "title", "assignee", "assignee_email", "status", "deadline", "submitted_at", "late", "submission_id", "data.count", "data.items"},
		{"t4", "Alarms", "Grace Hopper", "grace@example.com", "approved", "2026-05-02T00:00:00Z", "2026-05-01T15:00:00Z", "false", "s4", "4", ""},
		{"t3", "Extinguishers", "Grace Hopper", "grace@example.com", "submitted", "2026-05-01T13:00:00Z", "2026-05-01T17:00:00Z", "true", "s3", "", `[{"label":"Blocked corridor"}]`},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}
