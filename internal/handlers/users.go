package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/dto"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/util"
)

func parseUserFilter(c *gin.Context) (repository.UserFilter, error) {
	filter := repository.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Page:   util.QueryPage(c),
	}

	for _, raw := range util.ParseList(c.Query("role")) {
		role, ok := models.ParseRole(raw)
		if !ok {
			return filter, apperrors.ValidationError("role", "unknown role "+raw)
		}
		filter.Roles = append(filter.Roles, role)
	}

	var err error
	if filter.IsActive, err = util.QueryBool(c, "is_active"); err != nil {
		return filter, err
	}
	if filter.CreatedFrom, err = util.QueryTime(c, "created_from"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = util.QueryTime(c, "created_to"); err != nil {
		return filter, err
	}
	if filter.Ordering, err = repository.ParseOrdering(c.Query("ordering"), repository.UserOrderFields); err != nil {
		return filter, apperrors.ValidationError("ordering", err.Error())
	}
	return filter, nil
}

// ListUsers
// GET /api/v1/users?search=&role=&is_active=&created_from=&created_to=&ordering=
func (h *Handlers) ListUsers(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	filter, err := parseUserFilter(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	list, total, err := h.users.ListUsers(c.Request.Context(), currentUser, filter)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	resp := listMeta(total, filter.Page)
	resp["users"] = dto.ToUserDetailResponses(list)
	c.JSON(http.StatusOK, resp)
}

// CreateUser provisions an account. A generated password is returned once.
// POST /api/v1/users
func (h *Handlers) CreateUser(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	user, password, err := h.users.CreateUser(c.Request.Context(), currentUser, req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateUserResponse{
		User:     dto.ToUserDetailResponse(user),
		Password: password,
	})
}

// GetUser
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDetailResponse(user)})
}

// UpdateUser
// PUT /api/v1/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), currentUser, c.Param("id"), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDetailResponse(user)})
}

// SetUserRole
// PUT /api/v1/users/:id/role
func (h *Handlers) SetUserRole(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	user, err := h.users.SetRole(c.Request.Context(), currentUser, c.Param("id"), req.Role)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDetailResponse(user)})
}

// DeactivateUser
// POST /api/v1/users/:id/deactivate
func (h *Handlers) DeactivateUser(c *gin.Context) {
	h.setActive(c, false)
}

// ActivateUser
// POST /api/v1/users/:id/activate
func (h *Handlers) ActivateUser(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handlers) setActive(c *gin.Context, active bool) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	user, err := h.users.SetActive(c.Request.Context(), currentUser, c.Param("id"), active)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDetailResponse(user)})
}

// DeleteUser
// DELETE /api/v1/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), currentUser, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEmployees
// GET /api/v1/employees?department=&manager_id=&search=
func (h *Handlers) ListEmployees(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	filter := repository.EmployeeFilter{
		Department: strings.TrimSpace(c.Query("department")),
		ManagerID:  strings.TrimSpace(c.Query("manager_id")),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       util.QueryPage(c),
	}

	list, total, err := h.users.ListEmployees(c.Request.Context(), currentUser, filter)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	resp := listMeta(total, filter.Page)
	resp["employees"] = list
	c.JSON(http.StatusOK, resp)
}

// GetEmployee returns the staff profile of a user
// GET /api/v1/employees/:id
func (h *Handlers) GetEmployee(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	employee, err := h.users.GetEmployee(c.Request.Context(), currentUser, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee})
}

// UpsertEmployee creates or replaces the staff profile of a user
// PUT /api/v1/employees/:id
func (h *Handlers) UpsertEmployee(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	employee, err := h.users.UpsertEmployee(c.Request.Context(), currentUser, c.Param("id"), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee})
}

// DeleteEmployee
// DELETE /api/v1/employees/:id
func (h *Handlers) DeleteEmployee(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.users.DeleteEmployee(c.Request.Context(), currentUser, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
