package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

// formRequest is the editable part of a form definition. Components are
// stored as given.
type formRequest struct {
	Title      string                   `json:"title" binding:"required,max=200"`
	Name       string                   `json:"name" binding:"max=100"`
	Path       string                   `json:"path" binding:"required,max=100"`
	Display    string                   `json:"display" binding:"omitempty,oneof=form wizard pdf"`
	Tags       []string                 `json:"tags" binding:"max=10,dive,tag"`
	Components []map[string]interface{} `json:"components"`
}

func (r formRequest) form() *formio.Form {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = strings.ReplaceAll(strings.Trim(strings.TrimSpace(r.Path), "/"), "/", "-")
	}
	components := r.Components
	if components == nil {
		components = []map[string]interface{}{}
	}
	return &formio.Form{
		Title:      strings.TrimSpace(r.Title),
		Name:       name,
		Path:       strings.Trim(strings.TrimSpace(r.Path), "/"),
		Type:       "form",
		Display:    r.Display,
		Tags:       r.Tags,
		Components: components,
	}
}

// ListForms lists form definitions
// GET /api/v1/forms?tag=&sort=&limit=&offset=
func (h *Handlers) ListForms(c *gin.Context) {
	page := util.QueryPage(c)
	q := formio.ListQuery{
		Limit: page.Limit,
		Skip:  page.Offset,
		Sort:  c.DefaultQuery("sort", "title"),
	}
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		q.Filter = map[string]string{"tags": tag}
	}

	forms, err := h.forms.ListForms(c.Request.Context(), q)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forms":  forms,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetForm
// GET /api/v1/forms/:id
func (h *Handlers) GetForm(c *gin.Context) {
	form, err := h.forms.GetForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// CreateForm
// POST /api/v1/forms
func (h *Handlers) CreateForm(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	form, err := h.forms.CreateForm(c.Request.Context(), req.form())
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("Form created",
		logger.WithFormID(form.ID),
		logger.WithUserID(currentUser.ID),
		zap.String("path", form.Path),
	)
	c.JSON(http.StatusCreated, gin.H{"form": form})
}

// UpdateForm replaces a form definition
// PUT /api/v1/forms/:id
func (h *Handlers) UpdateForm(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	form, err := h.forms.UpdateForm(c.Request.Context(), c.Param("id"), req.form())
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("Form updated", logger.WithFormID(form.ID), logger.WithUserID(currentUser.ID))
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// DeleteForm
// DELETE /api/v1/forms/:id
func (h *Handlers) DeleteForm(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	formID := c.Param("id")
	if err := h.forms.DeleteForm(c.Request.Context(), formID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("Form deleted", logger.WithFormID(formID), logger.WithUserID(currentUser.ID))
	c.Status(http.StatusNoContent)
}

// listMeta is the paging block of list responses.
func listMeta(total int64, page repository.Page) gin.H {
	return gin.H{
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}
}
