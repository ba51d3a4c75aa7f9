package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zfogg/formdesk/internal/models"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		role models.Role
		perm Permission
		want bool
	}{
		{models.RoleUser, PermTasksRead, true},
		{models.RoleUser, PermTasksSubmit, true},
		{models.RoleUser, PermTasksAll, false},
		{models.RoleUser, PermFormsWrite, false},
		{models.RoleEmployee, PermFormsWrite, true},
		{models.RoleEmployee, PermTasksReview, false},
		{models.RoleManager, PermTasksReview, true},
		{models.RoleManager, PermUsersWrite, true},
		{models.RoleManager, PermUsersDelete, false},
		{models.RoleAdmin, PermUsersDelete, true},
		{models.RoleAdmin, PermImpersonate, true},
		{models.Role("root"), PermFormsRead, false},
		{models.RoleAdmin, Permission("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.role, tt.perm))
		})
	}
}

func TestAuthorize(t *testing.T) {
	active := &models.User{Role: models.RoleEmployee, IsActive: true}
	inactive := &models.User{Role: models.RoleAdmin, IsActive: false}

	assert.NoError(t, Authorize(active, PermTasksWrite))
	assert.ErrorIs(t, Authorize(active, PermUsersWrite), ErrForbidden)
	assert.ErrorIs(t, Authorize(inactive, PermFormsRead), ErrForbidden)
	assert.ErrorIs(t, Authorize(nil, PermFormsRead), ErrForbidden)
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, CanAssignRole(models.RoleManager, models.RoleManager))
	assert.True(t, CanAssignRole(models.RoleManager, models.RoleUser))
	assert.False(t, CanAssignRole(models.RoleManager, models.RoleAdmin))
	assert.True(t, CanAssignRole(models.RoleAdmin, models.RoleAdmin))
	assert.False(t, CanAssignRole(models.RoleAdmin, models.Role("owner")))
}

func TestCanManageUser(t *testing.T) {
	manager := &models.User{Role: models.RoleManager}
	admin := &models.User{Role: models.RoleAdmin}
	employee := &models.User{Role: models.RoleEmployee}

	assert.True(t, CanManageUser(manager, employee))
	assert.True(t, CanManageUser(admin, manager))
	assert.False(t, CanManageUser(manager, admin))
	assert.False(t, CanManageUser(employee, &models.User{Role: models.RoleUser}))
	assert.False(t, CanManageUser(nil, employee))
}
