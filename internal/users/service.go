// Package users manages organization accounts and staff profiles.
package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/dto"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrSelfAction = errors.New("this action cannot be applied to your own account")
	ErrNotStaff   = errors.New("employee profiles require the employee role or above")
)

type Service struct {
	users     repository.UserRepository
	employees repository.EmployeeRepository
}

func NewService(users repository.UserRepository, employees repository.EmployeeRepository) *Service {
	return &Service{users: users, employees: employees}
}

func (s *Service) ListUsers(ctx context.Context, actor *models.User, filter repository.UserFilter) ([]*models.User, int64, error) {
	if err := auth.Authorize(actor, auth.PermUsersRead); err != nil {
		return nil, 0, err
	}
	return s.users.ListUsers(ctx, filter)
}

// GetUser returns an account. Everyone can read their own.
func (s *Service) GetUser(ctx context.Context, actor *models.User, userID string) (*models.User, error) {
	if actor == nil || !actor.IsActive {
		return nil, auth.ErrForbidden
	}
	if actor.ID != userID {
		if err := auth.Authorize(actor, auth.PermUsersRead); err != nil {
			return nil, err
		}
	}
	return s.users.GetUser(ctx, userID)
}

// CreateUser provisions an account. It returns the generated password when
// the request did not carry one.
func (s *Service) CreateUser(ctx context.Context, actor *models.User, req dto.CreateUserRequest) (*models.User, string, error) {
	if err := auth.Authorize(actor, auth.PermUsersWrite); err != nil {
		return nil, "", err
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, "", apperrors.ValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	if !auth.CanAssignRole(actor.Role, role) {
		return nil, "", auth.ErrForbidden
	}

	password, generated := req.Password, ""
	if password == "" {
		var err error
		if password, err = GeneratePassword(); err != nil {
			return nil, "", err
		}
		generated = password
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, "", apperrors.ValidationError("password", err.Error())
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: &hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	logger.Log.Info("User created",
		logger.WithUserID(user.ID),
		zap.String("created_by", actor.ID),
		zap.String("role", string(role)),
	)
	return user, generated, nil
}

// UpdateUser changes profile fields. Users edit their own profile; managers
// edit accounts at or below their role.
func (s *Service) UpdateUser(ctx context.Context, actor *models.User, userID string, req dto.UpdateUserRequest) (*models.User, error) {
	target, err := s.GetUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if actor.ID != target.ID && !auth.CanManageUser(actor, target) {
		return nil, auth.ErrForbidden
	}

	fields := map[string]interface{}{}
	if req.Email != nil {
		target.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		fields["email"] = target.Email
	}
	if req.Username != nil {
		target.Username = strings.TrimSpace(*req.Username)
		fields["username"] = target.Username
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, apperrors.ValidationError("display_name", "display name cannot be empty")
		}
		target.DisplayName = name
		fields["display_name"] = name
	}
	if len(fields) == 0 {
		return target, nil
	}

	if err := s.users.UpdateUserFields(ctx, target.ID, fields); err != nil {
		return nil, err
	}
	return target, nil
}

// SetRole changes another account's role. The actor must outrank or equal
// both the target's current role and the new one.
func (s *Service) SetRole(ctx context.Context, actor *models.User, userID string, role models.Role) (*models.User, error) {
	if err := auth.Authorize(actor, auth.PermUsersWrite); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.ValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	if actor.ID == userID {
		return nil, ErrSelfAction
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageUser(actor, target) || !auth.CanAssignRole(actor.Role, role) {
		return nil, auth.ErrForbidden
	}
	if target.Role == role {
		return target, nil
	}

	previous := target.Role
	if err := s.users.UpdateUserFields(ctx, target.ID, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}
	target.Role = role

	// staff profiles only exist for staff accounts
	if !role.AtLeast(models.RoleEmployee) && target.Employee != nil {
		if err := s.employees.DeleteEmployee(ctx, target.ID); err != nil && !errors.Is(err, repository.ErrEmployeeNotFound) {
			return nil, err
		}
		target.Employee = nil
	}

	logger.Log.Info("User role changed",
		logger.WithUserID(target.ID),
		zap.String("changed_by", actor.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(role)),
	)
	return target, nil
}

// SetActive activates or deactivates another account.
func (s *Service) SetActive(ctx context.Context, actor *models.User, userID string, active bool) (*models.User, error) {
	if err := auth.Authorize(actor, auth.PermUsersWrite); err != nil {
		return nil, err
	}
	if actor.ID == userID {
		return nil, ErrSelfAction
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageUser(actor, target) {
		return nil, auth.ErrForbidden
	}
	if target.IsActive == active {
		return target, nil
	}

	if err := s.users.UpdateUserFields(ctx, target.ID, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	target.IsActive = active

	logger.Log.Info("User activation changed",
		logger.WithUserID(target.ID),
		zap.String("changed_by", actor.ID),
		zap.Bool("active", active),
	)
	return target, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor *models.User, userID string) error {
	if err := auth.Authorize(actor, auth.PermUsersDelete); err != nil {
		return err
	}
	if actor.ID == userID {
		return ErrSelfAction
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if err := s.employees.DeleteEmployee(ctx, userID); err != nil && !errors.Is(err, repository.ErrEmployeeNotFound) {
		return err
	}

	logger.Log.Info("User deleted", logger.WithUserID(userID), zap.String("deleted_by", actor.ID))
	return nil
}

func (s *Service) ListEmployees(ctx context.Context, actor *models.User, filter repository.EmployeeFilter) ([]*models.Employee, int64, error) {
	if err := auth.Authorize(actor, auth.PermEmployeesRead); err != nil {
		return nil, 0, err
	}
	return s.employees.ListEmployees(ctx, filter)
}

func (s *Service) GetEmployee(ctx context.Context, actor *models.User, userID string) (*models.Employee, error) {
	if err := auth.Authorize(actor, auth.PermEmployeesRead); err != nil {
		return nil, err
	}
	return s.employees.GetEmployeeByUserID(ctx, userID)
}

// UpsertEmployee creates or replaces the staff profile of userID.
func (s *Service) UpsertEmployee(ctx context.Context, actor *models.User, userID string, req dto.EmployeeRequest) (*models.Employee, error) {
	if err := auth.Authorize(actor, auth.PermEmployeesWrite); err != nil {
		return nil, err
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !target.IsStaff() {
		return nil, ErrNotStaff
	}
	if !auth.CanAssignRole(actor.Role, target.Role) {
		return nil, auth.ErrForbidden
	}

	if req.ManagerID != nil && *req.ManagerID != "" {
		if *req.ManagerID == target.ID {
			return nil, apperrors.ValidationError("manager_id", "an employee cannot manage themselves")
		}
		manager, err := s.users.GetUser(ctx, *req.ManagerID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.ValidationError("manager_id", "manager not found")
		}
		if err != nil {
			return nil, err
		}
		if !manager.IsStaff() {
			return nil, apperrors.ValidationError("manager_id", "manager must be a staff account")
		}
	} else {
		req.ManagerID = nil
	}

	employee := &models.Employee{
		UserID:         target.ID,
		EmployeeNumber: strings.TrimSpace(req.EmployeeNumber),
		Department:     strings.TrimSpace(req.Department),
		JobTitle:       strings.TrimSpace(req.JobTitle),
		ManagerID:      req.ManagerID,
		HiredAt:        req.HiredAt,
	}
	if employee.EmployeeNumber == "" {
		return nil, apperrors.ValidationError("employee_number", "employee number is required")
	}
	if err := s.employees.UpsertEmployee(ctx, employee); err != nil {
		return nil, err
	}
	employee.User = target
	return employee, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, actor *models.User, userID string) error {
	if err := auth.Authorize(actor, auth.PermEmployeesWrite); err != nil {
		return err
	}
	return s.employees.DeleteEmployee(ctx, userID)
}

// GeneratePassword returns a random 24 character password.
func GeneratePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
