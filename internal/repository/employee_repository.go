package repository

import (
	"context"
	"errors"

	"github.com/zfogg/formdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmployeeFilter narrows ListEmployees.
type EmployeeFilter struct {
	Department string
	ManagerID  string
	Search     string
	Page       Page
}

// EmployeeRepository stores staff profiles.
type EmployeeRepository interface {
	// UpsertEmployee creates or replaces the profile of employee.UserID.
	UpsertEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployeeByUserID(ctx context.Context, userID string) (*models.Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*models.Employee, int64, error)
	DeleteEmployee(ctx context.Context, userID string) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) UpsertEmployee(ctx context.Context, employee *models.Employee) error {
	if employee == nil || employee.UserID == "" || employee.EmployeeNumber == "" {
		return ErrInvalidInput
	}

	err := r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"employee_number", "department", "job_title", "manager_id", "hired_at", "updated_at"}),
		}).
		Create(employee).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}

	var stored models.Employee
	if err := r.db.WithContext(ctx).Where("user_id = ?", employee.UserID).First(&stored).Error; err != nil {
		return err
	}
	employee.ID = stored.ID
	employee.CreatedAt = stored.CreatedAt
	return nil
}

func (r *employeeRepository) GetEmployeeByUserID(ctx context.Context, userID string) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&employee).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*models.Employee, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Joins("JOIN users ON users.id = employees.user_id AND users.deleted_at IS NULL")

	if filter.Department != "" {
		q = q.Where("LOWER(employees.department) = LOWER(?)", filter.Department)
	}
	if filter.ManagerID != "" {
		q = q.Where("employees.manager_id = ?", filter.ManagerID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where(
			"(LOWER(users.display_name) LIKE ? ESCAPE '\\' OR LOWER(users.email) LIKE ? ESCAPE '\\' OR LOWER(employees.employee_number) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}

	// Session makes q reusable for both the count and the page query.
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var employees []*models.Employee
	err := q.Preload("User").
		Order("employees.department").
		Order("employees.employee_number").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&employees).Error

	return employees, total, err
}

func (r *employeeRepository) DeleteEmployee(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Employee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
