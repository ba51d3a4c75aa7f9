package dto

import (
	"time"

	"github.com/zfogg/formdesk/internal/models"
)

// UserResponse is the public user representation (safe for API responses)
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// UserDetailResponse includes account details shown to the user themselves
// and to staff managing accounts
type UserDetailResponse struct {
	UserResponse
	Email       string           `json:"email"`
	TOTPEnabled bool             `json:"totp_enabled"`
	LastLoginAt *time.Time       `json:"last_login_at"`
	Employee    *models.Employee `json:"employee,omitempty"`
}

// CreateUserRequest provisions an account. A random password is generated
// when Password is empty.
type CreateUserRequest struct {
	Email       string      `json:"email" binding:"required,email,max=254"`
	Username    string      `json:"username" binding:"required,min=3,max=30,alphanum"`
	DisplayName string      `json:"display_name" binding:"required,min=1,max=100"`
	Password    string      `json:"password" binding:"omitempty,min=8,max=72"`
	Role        models.Role `json:"role" binding:"omitempty,role"`
}

// UpdateUserRequest for profile updates
type UpdateUserRequest struct {
	Email       *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Username    *string `json:"username,omitempty" binding:"omitempty,min=3,max=30,alphanum"`
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=100"`
}

// SetRoleRequest changes an account's role
type SetRoleRequest struct {
	Role models.Role `json:"role" binding:"required,role"`
}

// EmployeeRequest creates or replaces a staff profile
type EmployeeRequest struct {
	EmployeeNumber string     `json:"employee_number" binding:"required,max=50"`
	Department     string     `json:"department" binding:"max=100"`
	JobTitle       string     `json:"job_title" binding:"max=100"`
	ManagerID      *string    `json:"manager_id" binding:"omitempty,uuid"`
	HiredAt        *time.Time `json:"hired_at"`
}

// CreateUserResponse carries the generated password once, when the server
// chose it.
type CreateUserResponse struct {
	User     *UserDetailResponse `json:"user"`
	Password string              `json:"password,omitempty"`
}

// ToUserResponse converts models.User to UserResponse (excludes sensitive fields)
func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}

	return &UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

// ToUserDetailResponse converts models.User to UserDetailResponse (includes private fields)
func ToUserDetailResponse(user *models.User) *UserDetailResponse {
	if user == nil {
		return nil
	}

	return &UserDetailResponse{
		UserResponse: *ToUserResponse(user),
		Email:        user.Email,
		TOTPEnabled:  user.TOTPEnabled,
		LastLoginAt:  user.LastLoginAt,
		Employee:     user.Employee,
	}
}

// ToUserDetailResponses converts array of users to responses
func ToUserDetailResponses(users []*models.User) []*UserDetailResponse {
	responses := make([]*UserDetailResponse, len(users))
	for i, user := range users {
		responses[i] = ToUserDetailResponse(user)
	}
	return responses
}
