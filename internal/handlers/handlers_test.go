package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/container"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/middleware"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/queue"
	"github.com/zfogg/formdesk/internal/testutil"
	"github.com/zfogg/formdesk/internal/validation"
	"gorm.io/gorm"
)

// HandlersTestSuite runs the API against an in-memory database and form
// backend.
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	mock     *container.MockContainer
	notifier *testutil.Notifier
	router   *gin.Engine
	handlers *Handlers
	form     *formio.Form

	admin    *models.User
	manager  *models.User
	employee *models.User
	user     *models.User
}

func (s *HandlersTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(validation.RegisterBindings())
}

func (s *HandlersTestSuite) SetupTest() {
	t := s.T()
	s.db = testutil.NewDB(t)
	s.notifier = &testutil.Notifier{}

	m, err := container.NewMock(s.db, s.notifier)
	require.NoError(t, err)
	s.mock = m
	t.Cleanup(func() { _ = m.Cleanup(context.Background()) })

	s.handlers = NewHandlers(m.Container, time.Minute)
	s.router = gin.New()
	s.handlers.RegisterRoutes(s.router, m.Container, config.RateLimitConfig{
		Requests:     1000,
		Window:       time.Minute,
		AuthRequests: 100,
	})

	s.admin = s.login(models.RoleAdmin)
	s.manager = s.login(models.RoleManager)
	s.employee = s.login(models.RoleEmployee)
	s.user = s.login(models.RoleUser)

	s.form, err = m.FormBackend.CreateForm(context.Background(), &formio.Form{
		Title: "Site inspection",
		Path:  "site-inspection",
		Tags:  []string{"safety"},
	})
	require.NoError(t, err)
}

func (s *HandlersTestSuite) login(role models.Role) *models.User {
	u := testutil.CreateUser(s.T(), s.db, role)
	s.mock.AuthMock.AddToken(tokenFor(u), u)
	return u
}

func tokenFor(u *models.User) string {
	return "token-" + u.ID
}

type call struct {
	as      *models.User
	method  string
	path    string
	body    interface{}
	headers map[string]string
}

func (s *HandlersTestSuite) do(c call) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(s.T(), json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.as != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(c.as))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// createTask assigns the suite form to s.user and returns the task id.
func (s *HandlersTestSuite) createTask() string {
	t := s.T()
	w := s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/tasks", body: map[string]interface{}{
		"form_id":      s.form.ID,
		"assignee_ids": []string{s.user.ID},
		"deadline":     time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"tags":         []string{"q3"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Tasks, 1)
	return resp.Tasks[0].ID
}

func (s *HandlersTestSuite) TestHealth() {
	t := s.T()

	s.handlers.SetHealthChecks(map[string]validation.Check{
		"database": func(ctx context.Context) error { return nil },
	})
	w := s.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)

	s.handlers.SetHealthChecks(map[string]validation.Check{
		"database": func(ctx context.Context) error { return nil },
		"formio":   func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w = s.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Services["database"])
	assert.Equal(t, "connection refused", resp.Services["formio"])
}

func (s *HandlersTestSuite) TestAuthentication() {
	t := s.T()

	w := s.do(call{method: http.MethodGet, path: "/api/v1/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"login": s.user.Email, "password": testutil.Password,
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, w, &login)
	assert.Equal(t, tokenFor(s.user), login.Token)
	assert.Equal(t, s.user.Email, login.User.Email)

	w = s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{"login": s.user.Email}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"login": "nobody@example.com", "password": "whatever",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(call{method: http.MethodPost, path: "/api/v1/auth/password-reset/request", body: map[string]string{"email": "nobody@example.com"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.mock.AuthMock.GetCallsForMethod("RequestPasswordReset"), 1)

	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/auth/totp/setup"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "otpauth://")

	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/auth/totp/enable", body: map[string]string{"code": "12ab56"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestImpersonation() {
	t := s.T()

	w := s.do(call{as: s.admin, method: http.MethodGet, path: "/api/v1/auth/me", headers: map[string]string{
		middleware.ImpersonateHeader: s.user.Email,
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		ImpersonatedBy struct {
			ID string `json:"id"`
		} `json:"impersonated_by"`
	}
	decode(t, w, &resp)
	assert.Equal(t, s.user.ID, resp.User.ID)
	assert.Equal(t, s.admin.ID, resp.ImpersonatedBy.ID)

	w = s.do(call{as: s.manager, method: http.MethodGet, path: "/api/v1/auth/me", headers: map[string]string{
		middleware.ImpersonateHeader: s.user.Email,
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestForms() {
	t := s.T()

	w := s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/forms"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/forms"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	newForm := map[string]interface{}{
		"title":      "Incident report",
		"path":       "/incident-report/",
		"tags":       []string{"safety"},
		"components": []map[string]interface{}{{"type": "textfield", "key": "summary"}},
	}
	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/forms", body: newForm})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/forms", body: newForm})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Form formio.Form `json:"form"`
	}
	decode(t, w, &created)
	assert.Equal(t, "incident-report", created.Form.Path)
	assert.Equal(t, "incident-report", created.Form.Name)

	// the create moved the list to a new cache generation
	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/forms?tag=safety"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var list struct {
		Forms []formio.Form `json:"forms"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Forms, 2)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/forms", body: map[string]string{"path": "x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"title"`)

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/forms/missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(call{as: s.employee, method: http.MethodDelete, path: "/api/v1/forms/" + created.Form.ID})
	assert.Equal(t, http.StatusNoContent, w.Code)

	s.mock.FormBackend.Err = &formio.Error{Status: http.StatusServiceUnavailable, Message: "maintenance"}
	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/forms/" + s.form.ID})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func (s *HandlersTestSuite) TestTaskWorkflow() {
	t := s.T()

	taskID := s.createTask()
	assigned := s.notifier.Sent("task_assigned")
	require.Len(t, assigned, 1)
	assert.Equal(t, s.user.Email, assigned[0].To)

	w := s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/tasks", body: map[string]interface{}{}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/tasks?status=pending"})
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tasks []models.Task `json:"tasks"`
		Total int64         `json:"total"`
	}
	decode(t, w, &list)
	assert.EqualValues(t, 1, list.Total)

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/tasks?status=finished"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// another user cannot see the task at all
	other := s.login(models.RoleUser)
	w = s.do(call{as: other, method: http.MethodGet, path: "/api/v1/tasks/" + taskID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(call{as: s.user, method: http.MethodPut, path: "/api/v1/tasks/" + taskID + "/draft", body: map[string]interface{}{
		"data": map[string]interface{}{"site": "North yard", "hazards": 2},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/tasks/" + taskID + "/draft"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "North yard")

	w = s.do(call{as: s.employee, method: http.MethodPut, path: "/api/v1/tasks/" + taskID + "/draft", body: map[string]interface{}{
		"data": map[string]interface{}{"site": "elsewhere"},
	}})
	assert.Equal(t, http.StatusForbidden, w.Code, "only the assignee edits the draft")

	// an empty body submits the saved draft
	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/submit"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submitted struct {
		Task models.Task `json:"task"`
	}
	decode(t, w, &submitted)
	assert.Equal(t, models.TaskSubmitted, submitted.Task.Status)
	require.NotNil(t, submitted.Task.SubmissionID)

	sub, err := s.mock.FormBackend.GetSubmission(context.Background(), s.form.ID, *submitted.Task.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "North yard", sub.Data["site"])

	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/submit"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/review", body: map[string]string{"decision": "approved"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/review", body: map[string]string{"decision": "maybe"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/review", body: map[string]string{
		"decision": "approved", "comment": "<b>Looks good</b>",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/tasks/" + taskID + "/reviews"})
	require.Equal(t, http.StatusOK, w.Code)
	var reviews struct {
		Reviews []models.Review `json:"reviews"`
	}
	decode(t, w, &reviews)
	require.Len(t, reviews.Reviews, 1)
	assert.Equal(t, models.ReviewApproved, reviews.Reviews[0].Decision)
	assert.Equal(t, "Looks good", reviews.Reviews[0].Comment)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/cancel"})
	assert.Equal(t, http.StatusConflict, w.Code, "approved tasks cannot be cancelled")
}

func (s *HandlersTestSuite) TestRecurringTasks() {
	t := s.T()

	first := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	q := url.Values{}
	q.Set("first_deadline", first.Format(time.RFC3339))
	q.Set("frequency", "1")
	q.Set("count", "4")
	q.Set("unit", "week")
	w := s.do(call{as: s.employee, method: http.MethodGet, path: "/api/v1/tasks/recurring/preview?" + q.Encode()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var preview struct {
		Deadlines []time.Time `json:"deadlines"`
	}
	decode(t, w, &preview)
	require.Len(t, preview.Deadlines, 4)
	assert.True(t, preview.Deadlines[3].Equal(first.AddDate(0, 0, 21)))

	q.Set("unit", "fortnight")
	w = s.do(call{as: s.employee, method: http.MethodGet, path: "/api/v1/tasks/recurring/preview?" + q.Encode()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"unit"`)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/tasks/recurring", body: map[string]interface{}{
		"form_id":        s.form.ID,
		"assignee_ids":   []string{s.user.ID},
		"first_deadline": first.Format(time.RFC3339),
		"frequency":      1,
		"count":          3,
		"unit":           "month",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Recurrence models.Recurrence `json:"recurrence"`
		Tasks      []models.Task     `json:"tasks"`
	}
	decode(t, w, &created)
	assert.Len(t, created.Tasks, 3)

	w = s.do(call{as: s.employee, method: http.MethodDelete, path: "/api/v1/tasks/recurring/" + created.Recurrence.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cancelled":3}`, w.Body.String())

	w = s.do(call{as: s.employee, method: http.MethodDelete, path: "/api/v1/tasks/recurring/" + created.Recurrence.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestResultsAndExport() {
	t := s.T()

	taskID := s.createTask()
	w := s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/tasks/" + taskID + "/submit", body: map[string]interface{}{
		"data": map[string]interface{}{"site": "Dock 4"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(call{as: s.employee, method: http.MethodGet, path: "/api/v1/forms/" + s.form.ID + "/results?status=submitted&search=dock"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Total   int            `json:"total"`
		Summary map[string]int `json:"summary"`
	}
	decode(t, w, &page)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Summary["submitted"])

	w = s.do(call{as: s.employee, method: http.MethodGet, path: "/api/v1/forms/" + s.form.ID + "/results?late=sometimes"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(call{as: s.user, method: http.MethodPost, path: "/api/v1/forms/" + s.form.ID + "/results/export"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/forms/missing/results/export"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(call{as: s.employee, method: http.MethodPost, path: "/api/v1/forms/" + s.form.ID + "/results/export"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var queued struct {
		Job queue.ExportJob `json:"job"`
	}
	decode(t, w, &queued)
	require.NoError(t, s.mock.Exports().WaitForJobCompletion(queued.Job.ID, 5*time.Second))

	jobPath := "/api/v1/exports/" + queued.Job.ID
	w = s.do(call{as: s.employee, method: http.MethodGet, path: jobPath})
	require.Equal(t, http.StatusOK, w.Code)
	var polled struct {
		Job queue.ExportJob `json:"job"`
	}
	decode(t, w, &polled)
	require.Equal(t, queue.StatusComplete, polled.Job.Status)
	require.NotNil(t, polled.Job.Result)
	assert.Equal(t, 1, polled.Job.Result.Rows)

	csv, ok := s.mock.Files.File(polled.Job.Result.Key)
	require.True(t, ok)
	assert.Contains(t, string(csv), "Dock 4")

	w = s.do(call{as: s.manager, method: http.MethodGet, path: jobPath})
	assert.Equal(t, http.StatusNotFound, w.Code, "jobs are private to their owner")

	w = s.do(call{as: s.admin, method: http.MethodGet, path: jobPath})
	assert.Equal(t, http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestUsers() {
	t := s.T()

	w := s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/users"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodGet, path: "/api/v1/users?role=user,employee"})
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.EqualValues(t, 2, list.Total)

	w = s.do(call{as: s.manager, method: http.MethodGet, path: "/api/v1/users?ordering=password"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodPost, path: "/api/v1/users", body: map[string]string{
		"email": "new.hire@example.com", "username": "newhire", "display_name": "New Hire", "role": "employee",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		User struct {
			ID   string      `json:"id"`
			Role models.Role `json:"role"`
		} `json:"user"`
		Password string `json:"password"`
	}
	decode(t, w, &created)
	assert.Equal(t, models.RoleEmployee, created.User.Role)
	assert.Len(t, created.Password, 24)

	w = s.do(call{as: s.manager, method: http.MethodPost, path: "/api/v1/users", body: map[string]string{
		"email": "boss@example.com", "username": "boss", "display_name": "Boss", "role": "owner",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/users/" + s.user.ID})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/users/" + s.manager.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodPut, path: "/api/v1/users/" + created.User.ID + "/role", body: map[string]string{"role": "admin"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodPost, path: "/api/v1/users/" + s.manager.ID + "/deactivate"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodPost, path: "/api/v1/users/" + created.User.ID + "/deactivate"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_active":false`)

	w = s.do(call{as: s.manager, method: http.MethodDelete, path: "/api/v1/users/" + created.User.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(call{as: s.admin, method: http.MethodDelete, path: "/api/v1/users/" + created.User.ID})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(call{as: s.admin, method: http.MethodGet, path: "/api/v1/users/" + created.User.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestEmployees() {
	t := s.T()

	path := fmt.Sprintf("/api/v1/employees/%s", s.employee.ID)
	w := s.do(call{as: s.employee, method: http.MethodPut, path: path, body: map[string]string{"employee_number": "E-7"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodPut, path: path, body: map[string]string{
		"employee_number": "E-7", "department": "Operations", "manager_id": s.manager.ID,
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(call{as: s.employee, method: http.MethodGet, path: "/api/v1/employees?department=operations"})
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Employees []models.Employee `json:"employees"`
		Total     int64             `json:"total"`
	}
	decode(t, w, &list)
	assert.EqualValues(t, 1, list.Total)

	w = s.do(call{as: s.user, method: http.MethodGet, path: "/api/v1/employees"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(call{as: s.manager, method: http.MethodPut, path: "/api/v1/employees/" + s.user.ID, body: map[string]string{"employee_number": "E-8"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "users need a staff role first")

	w = s.do(call{as: s.manager, method: http.MethodDelete, path: path})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(call{as: s.employee, method: http.MethodGet, path: path})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
