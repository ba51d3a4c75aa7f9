package auth

import (
	"errors"

	"github.com/zfogg/formdesk/internal/models"
)

// ErrForbidden is returned when the acting user's role does not allow an
// operation.
var ErrForbidden = errors.New("forbidden")

// Permission names one guarded operation.
type Permission string

const (
	PermFormsRead     Permission = "forms:read"
	PermFormsWrite    Permission = "forms:write"
	PermResultsRead   Permission = "results:read"
	PermResultsAll    Permission = "results:all"
	PermResultsExport Permission = "results:export"

	PermTasksRead   Permission = "tasks:read"
	PermTasksAll    Permission = "tasks:all"
	PermTasksWrite  Permission = "tasks:write"
	PermTasksSubmit Permission = "tasks:submit"
	PermTasksReview Permission = "tasks:review"

	PermUsersRead      Permission = "users:read"
	PermUsersWrite     Permission = "users:write"
	PermUsersDelete    Permission = "users:delete"
	PermEmployeesRead  Permission = "employees:read"
	PermEmployeesWrite Permission = "employees:write"
	PermImpersonate    Permission = "users:impersonate"
)

// permissions maps each permission to the lowest role that holds it.
var permissions = map[Permission]models.Role{
	PermFormsRead:     models.RoleUser,
	PermFormsWrite:    models.RoleEmployee,
	PermResultsRead:   models.RoleUser,
	PermResultsAll:    models.RoleEmployee,
	PermResultsExport: models.RoleEmployee,

	PermTasksRead:   models.RoleUser,
	PermTasksAll:    models.RoleEmployee,
	PermTasksWrite:  models.RoleEmployee,
	PermTasksSubmit: models.RoleUser,
	PermTasksReview: models.RoleManager,

	PermUsersRead:      models.RoleManager,
	PermUsersWrite:     models.RoleManager,
	PermUsersDelete:    models.RoleAdmin,
	PermEmployeesRead:  models.RoleEmployee,
	PermEmployeesWrite: models.RoleManager,
	PermImpersonate:    models.RoleAdmin,
}

// MinRole returns the lowest role holding p. Unknown permissions are held
// by nobody.
func MinRole(p Permission) (models.Role, bool) {
	role, ok := permissions[p]
	return role, ok
}

// Allows reports whether role holds permission p.
func Allows(role models.Role, p Permission) bool {
	min, ok := permissions[p]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}

// Authorize returns ErrForbidden unless user is active and holds p.
func Authorize(user *models.User, p Permission) error {
	if user == nil || !user.IsActive || !Allows(user.Role, p) {
		return ErrForbidden
	}
	return nil
}

// CanAssignRole reports whether actor may grant target. Nobody can grant a
// role above their own.
func CanAssignRole(actor, target models.Role) bool {
	return actor.Valid() && target.Valid() && target.Priority() <= actor.Priority()
}

// CanManageUser reports whether actor may change target's account: actor
// needs users:write and must rank at or above the target's current role.
func CanManageUser(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return Allows(actor.Role, PermUsersWrite) && CanAssignRole(actor.Role, target.Role)
}
