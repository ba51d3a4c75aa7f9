package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/dto"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/testutil"
	"gorm.io/gorm"
)

type UserServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *Service
	ctx context.Context

	admin    *models.User
	manager  *models.User
	employee *models.User
	user     *models.User
}

func (s *UserServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.svc = NewService(repository.NewUserRepository(s.db), repository.NewEmployeeRepository(s.db))
	s.ctx = context.Background()

	s.admin = testutil.CreateUser(s.T(), s.db, models.RoleAdmin)
	s.manager = testutil.CreateUser(s.T(), s.db, models.RoleManager)
	s.employee = testutil.CreateUser(s.T(), s.db, models.RoleEmployee)
	s.user = testutil.CreateUser(s.T(), s.db, models.RoleUser)
}

func (s *UserServiceTestSuite) TestCreateUser() {
	t := s.T()

	user, password, err := s.svc.CreateUser(s.ctx, s.manager, dto.CreateUserRequest{
		Email:       "  New.Person@Example.com ",
		Username:    "newperson",
		DisplayName: "New Person",
		Role:        models.RoleEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.person@example.com", user.Email)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.True(t, user.IsActive)
	assert.Len(t, password, 24, "a password is generated when none is given")
	assert.True(t, auth.CheckPassword(user.PasswordHash, password))

	_, password, err = s.svc.CreateUser(s.ctx, s.manager, dto.CreateUserRequest{
		Email: "b@example.com", Username: "bperson", DisplayName: "B", Password: "chosen-password",
	})
	require.NoError(t, err)
	assert.Empty(t, password)

	_, _, err = s.svc.CreateUser(s.ctx, s.manager, dto.CreateUserRequest{
		Email: "c@example.com", Username: "cperson", DisplayName: "C", Role: models.RoleAdmin,
	})
	assert.ErrorIs(t, err, auth.ErrForbidden, "managers cannot create admins")

	_, _, err = s.svc.CreateUser(s.ctx, s.employee, dto.CreateUserRequest{
		Email: "d@example.com", Username: "dperson", DisplayName: "D",
	})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, _, err = s.svc.CreateUser(s.ctx, s.manager, dto.CreateUserRequest{
		Email: "e@example.com", Username: "newperson", DisplayName: "E",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, _, err = s.svc.CreateUser(s.ctx, s.manager, dto.CreateUserRequest{
		Email: "f@example.com", Username: "fperson", DisplayName: "F", Password: "short",
	})
	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "password", apiErr.Field)
}

func (s *UserServiceTestSuite) TestGetAndList() {
	t := s.T()

	got, err := s.svc.GetUser(s.ctx, s.user, s.user.ID)
	require.NoError(t, err)
	assert.Equal(t, s.user.Email, got.Email)

	_, err = s.svc.GetUser(s.ctx, s.user, s.manager.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = s.svc.GetUser(s.ctx, s.manager, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	users, total, err := s.svc.ListUsers(s.ctx, s.manager, repository.UserFilter{Roles: []models.Role{models.RoleUser, models.RoleEmployee}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)

	_, _, err = s.svc.ListUsers(s.ctx, s.employee, repository.UserFilter{})
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func (s *UserServiceTestSuite) TestUpdateUser() {
	t := s.T()

	name := "Renamed"
	updated, err := s.svc.UpdateUser(s.ctx, s.user, s.user.ID, dto.UpdateUserRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)

	_, err = s.svc.UpdateUser(s.ctx, s.manager, s.admin.ID, dto.UpdateUserRequest{DisplayName: &name})
	assert.ErrorIs(t, err, auth.ErrForbidden, "managers cannot edit admins")

	email := s.manager.Email
	_, err = s.svc.UpdateUser(s.ctx, s.manager, s.user.ID, dto.UpdateUserRequest{Email: &email})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	blank := "  "
	_, err = s.svc.UpdateUser(s.ctx, s.user, s.user.ID, dto.UpdateUserRequest{DisplayName: &blank})
	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "display_name", apiErr.Field)
}

func (s *UserServiceTestSuite) TestSetRole() {
	t := s.T()

	promoted, err := s.svc.SetRole(s.ctx, s.manager, s.user.ID, models.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, promoted.Role)

	_, err = s.svc.SetRole(s.ctx, s.manager, s.user.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, auth.ErrForbidden, "cannot grant above own role")

	_, err = s.svc.SetRole(s.ctx, s.manager, s.admin.ID, models.RoleUser)
	assert.ErrorIs(t, err, auth.ErrForbidden, "cannot demote a higher role")

	_, err = s.svc.SetRole(s.ctx, s.manager, s.manager.ID, models.RoleUser)
	assert.ErrorIs(t, err, ErrSelfAction)

	_, err = s.svc.SetRole(s.ctx, s.manager, s.user.ID, "owner")
	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "role", apiErr.Field)

	// demoting below employee drops the staff profile
	_, err = s.svc.UpsertEmployee(s.ctx, s.manager, s.employee.ID, dto.EmployeeRequest{EmployeeNumber: "E-1"})
	require.NoError(t, err)
	_, err = s.svc.SetRole(s.ctx, s.admin, s.employee.ID, models.RoleUser)
	require.NoError(t, err)
	_, err = s.svc.GetEmployee(s.ctx, s.manager, s.employee.ID)
	assert.ErrorIs(t, err, repository.ErrEmployeeNotFound)
}

func (s *UserServiceTestSuite) TestSetActive() {
	t := s.T()

	deactivated, err := s.svc.SetActive(s.ctx, s.manager, s.user.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	stored, err := repository.NewUserRepository(s.db).GetUser(s.ctx, s.user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	_, err = s.svc.SetActive(s.ctx, s.manager, s.manager.ID, false)
	assert.ErrorIs(t, err, ErrSelfAction)

	_, err = s.svc.SetActive(s.ctx, s.manager, s.admin.ID, false)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	reactivated, err := s.svc.SetActive(s.ctx, s.manager, s.user.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func (s *UserServiceTestSuite) TestDeleteUser() {
	t := s.T()

	assert.ErrorIs(t, s.svc.DeleteUser(s.ctx, s.manager, s.user.ID), auth.ErrForbidden)
	assert.ErrorIs(t, s.svc.DeleteUser(s.ctx, s.admin, s.admin.ID), ErrSelfAction)

	require.NoError(t, s.svc.DeleteUser(s.ctx, s.admin, s.user.ID))
	_, err := s.svc.GetUser(s.ctx, s.admin, s.user.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	assert.ErrorIs(t, s.svc.DeleteUser(s.ctx, s.admin, s.user.ID), repository.ErrUserNotFound)
}

func (s *UserServiceTestSuite) TestEmployees() {
	t := s.T()

	managerID := s.manager.ID
	employee, err := s.svc.UpsertEmployee(s.ctx, s.manager, s.employee.ID, dto.EmployeeRequest{
		EmployeeNumber: " E-100 ",
		Department:     "Safety",
		JobTitle:       "Inspector",
		ManagerID:      &managerID,
	})
	require.NoError(t, err)
	assert.Equal(t, "E-100", employee.EmployeeNumber)
	assert.NotEmpty(t, employee.ID)

	// upsert replaces the profile in place
	again, err := s.svc.UpsertEmployee(s.ctx, s.manager, s.employee.ID, dto.EmployeeRequest{EmployeeNumber: "E-100", Department: "Quality"})
	require.NoError(t, err)
	assert.Equal(t, employee.ID, again.ID)
	assert.Nil(t, again.ManagerID)

	list, total, err := s.svc.ListEmployees(s.ctx, s.employee, repository.EmployeeFilter{Department: "quality"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, s.employee.Email, list[0].User.Email)

	_, err = s.svc.UpsertEmployee(s.ctx, s.manager, s.user.ID, dto.EmployeeRequest{EmployeeNumber: "E-2"})
	assert.ErrorIs(t, err, ErrNotStaff)

	userID := s.user.ID
	_, err = s.svc.UpsertEmployee(s.ctx, s.manager, s.employee.ID, dto.EmployeeRequest{EmployeeNumber: "E-100", ManagerID: &userID})
	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "manager_id", apiErr.Field)

	_, err = s.svc.UpsertEmployee(s.ctx, s.employee, s.employee.ID, dto.EmployeeRequest{EmployeeNumber: "E-100"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, _, err = s.svc.ListEmployees(s.ctx, s.user, repository.EmployeeFilter{})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	require.NoError(t, s.svc.DeleteEmployee(s.ctx, s.manager, s.employee.ID))
	assert.ErrorIs(t, s.svc.DeleteEmployee(s.ctx, s.manager, s.employee.ID), repository.ErrEmployeeNotFound)
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword()
	require.NoError(t, err)
	b, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
	assert.NoError(t, auth.ValidatePassword(a))
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
