package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is an account's authorization level. Roles are ordered by priority;
// a higher role implies every permission of the lower ones.
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

var rolePriorities = map[Role]int{
	RoleUser:     10,
	RoleEmployee: 20,
	RoleManager:  30,
	RoleAdmin:    40,
}

// AllRoles lists roles from lowest to highest priority.
var AllRoles = []Role{RoleUser, RoleEmployee, RoleManager, RoleAdmin}

// Priority returns the role's rank, or 0 for an unknown role.
func (r Role) Priority() int {
	return rolePriorities[r]
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Priority() >= min.Priority()
}

// ParseRole normalizes s into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is an organization account. Accounts are provisioned by managers;
// there is no self sign-up.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`

	PasswordHash *string `gorm:"type:text" json:"-"`
	Role         Role    `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive     bool    `gorm:"not null" json:"is_active"`

	TOTPSecret  *string `gorm:"column:totp_secret;type:text" json:"-"`
	TOTPEnabled bool    `gorm:"column:totp_enabled" json:"totp_enabled"`

	LastLoginAt *time.Time `json:"last_login_at"`

	Employee *Employee `gorm:"foreignKey:UserID" json:"employee,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate fills in the primary key and role.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// HasRole reports whether the user's role ranks at or above min.
func (u *User) HasRole(min Role) bool {
	return u != nil && u.Role.AtLeast(min)
}

// IsStaff reports whether the user is an employee or above.
func (u *User) IsStaff() bool {
	return u.HasRole(RoleEmployee)
}

// Employee is the staff profile attached to an account with role employee
// or above.
type Employee struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string     `gorm:"uniqueIndex;not null" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EmployeeNumber string     `gorm:"uniqueIndex;not null" json:"employee_number"`
	Department     string     `gorm:"index" json:"department"`
	JobTitle       string     `json:"job_title"`
	ManagerID      *string    `gorm:"index" json:"manager_id"` // user id of the line manager
	HiredAt        *time.Time `json:"hired_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// PasswordReset is a single-use reset token.
type PasswordReset struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `json:"used"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
