package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/queue"
	"github.com/zfogg/formdesk/internal/results"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

// parseResultsQuery reads the results filters:
// status, assignee_id, submitted_from, submitted_to, deadline_from,
// deadline_to, late, tag, search, sort, page, page_size, include_orphans.
func parseResultsQuery(c *gin.Context) (results.Query, error) {
	q := results.Query{
		AssigneeID: strings.TrimSpace(c.Query("assignee_id")),
		Tag:        c.Query("tag"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Page:       util.ParseInt(c.Query("page"), 1),
		PageSize:   util.ParseInt(c.Query("page_size"), results.DefaultPageSize),
	}

	for _, raw := range util.ParseList(c.Query("status")) {
		status := models.TaskStatus(strings.ToLower(raw))
		if !status.Valid() && status != results.StatusOrphan {
			return q, apperrors.ValidationError("status", "unknown status "+raw)
		}
		q.Statuses = append(q.Statuses, status)
	}

	var err error
	if q.SubmittedFrom, err = util.QueryTime(c, "submitted_from"); err != nil {
		return q, err
	}
	if q.SubmittedTo, err = util.QueryTime(c, "submitted_to"); err != nil {
		return q, err
	}
	if q.DeadlineFrom, err = util.QueryTime(c, "deadline_from"); err != nil {
		return q, err
	}
	if q.DeadlineTo, err = util.QueryTime(c, "deadline_to"); err != nil {
		return q, err
	}

	late, err := util.QueryBool(c, "late")
	if err != nil {
		return q, err
	}
	q.LateOnly = late != nil && *late

	orphans, err := util.QueryBool(c, "include_orphans")
	if err != nil {
		return q, err
	}
	q.IncludeOrphans = orphans != nil && *orphans
	return q, nil
}

// GetResults returns the form's submissions joined with the tasks that
// requested them. Users only see rows for their own tasks.
// GET /api/v1/forms/:id/results
func (h *Handlers) GetResults(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	q, err := parseResultsQuery(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	page, err := h.results.Results(c.Request.Context(), currentUser, c.Param("id"), q)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ExportResults queues a CSV export of the filtered results. Paging
// parameters are ignored; the export covers every matching row.
// POST /api/v1/forms/:id/results/export
func (h *Handlers) ExportResults(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if h.exports == nil {
		util.RespondWithAPIError(c, apperrors.ServiceUnavailable("exports"))
		return
	}

	q, err := parseResultsQuery(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	formID := c.Param("id")
	if _, err := h.forms.GetForm(c.Request.Context(), formID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	job, err := h.exports.SubmitJob(currentUser, formID, q)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("Export queued",
		logger.WithFormID(formID),
		logger.WithUserID(currentUser.ID),
		zap.String("job_id", job.ID),
	)
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// GetExport polls an export job. Jobs are visible to the user who queued
// them and to admins.
// GET /api/v1/exports/:id
func (h *Handlers) GetExport(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if h.exports == nil {
		util.RespondNotFound(c, "export")
		return
	}

	job, err := h.exports.GetJobStatus(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if job.UserID != currentUser.ID && !currentUser.HasRole(models.RoleAdmin) {
		util.RespondWithError(c, queue.ErrJobNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
