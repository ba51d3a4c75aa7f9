package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/tasks"
	"github.com/zfogg/formdesk/internal/util"
)

func parseTaskFilter(c *gin.Context) (repository.TaskFilter, error) {
	filter := repository.TaskFilter{
		AssigneeID:   strings.TrimSpace(c.Query("assignee_id")),
		CreatedByID:  strings.TrimSpace(c.Query("created_by_id")),
		FormID:       strings.TrimSpace(c.Query("form_id")),
		RecurrenceID: strings.TrimSpace(c.Query("recurrence_id")),
		Tag:          strings.ToLower(strings.TrimSpace(c.Query("tag"))),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         util.QueryPage(c),
	}

	for _, raw := range util.ParseList(c.Query("status")) {
		status := models.TaskStatus(strings.ToLower(raw))
		if !status.Valid() {
			return filter, apperrors.ValidationError("status", "unknown status "+raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	var err error
	if filter.DueFrom, err = util.QueryTime(c, "due_from"); err != nil {
		return filter, err
	}
	if filter.DueTo, err = util.QueryTime(c, "due_to"); err != nil {
		return filter, err
	}
	if filter.Ordering, err = repository.ParseOrdering(c.Query("ordering"), repository.TaskOrderFields); err != nil {
		return filter, apperrors.ValidationError("ordering", err.Error())
	}
	return filter, nil
}

// ListTasks lists tasks. Users without tasks:all only get their own.
// GET /api/v1/tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	list, total, err := h.tasks.ListTasks(c.Request.Context(), currentUser, filter)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	resp := listMeta(total, filter.Page)
	resp["tasks"] = list
	c.JSON(http.StatusOK, resp)
}

// CreateTasks assigns a form to one or more users, one task each
// POST /api/v1/tasks
func (h *Handlers) CreateTasks(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req tasks.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	created, err := h.tasks.CreateTasks(c.Request.Context(), currentUser, req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tasks": created})
}

// CreateRecurring creates a series and all of its occurrences
// POST /api/v1/tasks/recurring
func (h *Handlers) CreateRecurring(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req tasks.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	series, created, err := h.tasks.CreateRecurring(c.Request.Context(), currentUser, req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recurrence": series, "tasks": created})
}

type previewQuery struct {
	FirstDeadline time.Time             `form:"first_deadline" json:"first_deadline" binding:"required"`
	Frequency     int                   `form:"frequency" json:"frequency" binding:"required,min=1"`
	Count         int                   `form:"count" json:"count" binding:"required,min=1,max=366"`
	Unit          models.RecurrenceUnit `form:"unit" json:"unit" binding:"required,recurrence_unit"`
	Timezone      string                `form:"timezone" json:"timezone"`
}

// PreviewRecurrence lists the deadlines a series would get without creating it
// GET /api/v1/tasks/recurring/preview?first_deadline=&frequency=&count=&unit=&timezone=
func (h *Handlers) PreviewRecurrence(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var q previewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		util.RespondBindError(c, err)
		return
	}

	spec, err := tasks.NewRecurrenceSpec(q.FirstDeadline, q.Frequency, q.Count, q.Unit, q.Timezone)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	deadlines, err := h.tasks.PreviewRecurrence(currentUser, spec)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deadlines": deadlines})
}

// CancelRecurrence cancels the open occurrences of a series
// DELETE /api/v1/tasks/recurring/:id
func (h *Handlers) CancelRecurrence(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	cancelled, err := h.tasks.CancelRecurrence(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// GetTask
// GET /api/v1/tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// UpdateTask
// PUT /api/v1/tasks/:id
func (h *Handlers) UpdateTask(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req tasks.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), currentUser, c.Param("id"), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// CancelTask
// POST /api/v1/tasks/:id/cancel
func (h *Handlers) CancelTask(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	task, err := h.tasks.CancelTask(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask
// DELETE /api/v1/tasks/:id
func (h *Handlers) DeleteTask(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), currentUser, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type answersRequest struct {
	Data map[string]interface{} `json:"data"`
}

// GetDraft
// GET /api/v1/tasks/:id/draft
func (h *Handlers) GetDraft(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	draft, err := h.tasks.GetDraft(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// SaveDraft stores partial answers
// PUT /api/v1/tasks/:id/draft
func (h *Handlers) SaveDraft(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	draft, err := h.tasks.SaveDraft(c.Request.Context(), currentUser, c.Param("id"), req.Data)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// DeleteDraft
// DELETE /api/v1/tasks/:id/draft
func (h *Handlers) DeleteDraft(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteDraft(c.Request.Context(), currentUser, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitTask submits the answers in the body, or the saved draft when the
// body carries none.
// POST /api/v1/tasks/:id/submit
func (h *Handlers) SubmitTask(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req answersRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBindError(c, err)
			return
		}
	}

	task, err := h.tasks.Submit(c.Request.Context(), currentUser, c.Param("id"), req.Data)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// ReviewTask approves or rejects a submission
// POST /api/v1/tasks/:id/review
func (h *Handlers) ReviewTask(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req tasks.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	review, err := h.tasks.Review(c.Request.Context(), currentUser, c.Param("id"), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListReviews
// GET /api/v1/tasks/:id/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	reviews, err := h.tasks.ListReviews(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
