package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/email"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/tasks"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Domain marks seeded accounts so Clean can find them again.
	Domain = "seed.formdesk.local"
	// Password is shared by every seeded account.
	Password = "password123"
	// FormTag marks seeded forms in the form backend.
	FormTag = "seed"
)

var departments = []string{"Operations", "Finance", "Facilities", "Safety", "People"}

// Seeder fills a database and form backend with sample data. Tasks go
// through the task service so submissions land in the form backend the same
// way they do in production.
type Seeder struct {
	db    *gorm.DB
	forms formio.FormBackend
	users repository.UserRepository
	tasks *tasks.Service
	hash  string
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, forms formio.FormBackend) *Seeder {
	// Seed only fails for invalid sources
	_ = gofakeit.Seed(time.Now().UnixNano())

	userRepo := repository.NewUserRepository(db)
	return &Seeder{
		db:    db,
		forms: forms,
		users: userRepo,
		tasks: tasks.NewService(
			repository.NewTaskRepository(db),
			repository.NewDraftRepository(db),
			userRepo,
			forms,
			&email.LogNotifier{},
		),
	}
}

// Summary counts what a seed run created.
type Summary struct {
	Users     int
	Forms     int
	Tasks     int
	Submitted int
	Reviewed  int
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context) (*Summary, error) {
	return s.seed(ctx, 3, 25, 60)
}

// SeedTest seeds the test database with minimal data
func (s *Seeder) SeedTest(ctx context.Context) (*Summary, error) {
	return s.seed(ctx, 1, 4, 8)
}

func (s *Seeder) seed(ctx context.Context, managerCount, employeeCount, taskCount int) (*Summary, error) {
	summary := &Summary{}

	logger.Log.Info("Creating users...")
	admin, err := s.seedUser(ctx, "admin", "Admin User", models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}
	summary.Users++

	managers := make([]*models.User, 0, managerCount)
	for i := 0; i < managerCount; i++ {
		m, err := s.seedUser(ctx, fmt.Sprintf("manager%d", i+1), gofakeit.Name(), models.RoleManager)
		if err != nil {
			return nil, fmt.Errorf("failed to seed managers: %w", err)
		}
		managers = append(managers, m)
	}
	summary.Users += len(managers)

	employees := make([]*models.User, 0, employeeCount)
	for i := 0; i < employeeCount; i++ {
		e, err := s.seedUser(ctx, fmt.Sprintf("employee%d", i+1), gofakeit.Name(), models.RoleEmployee)
		if err != nil {
			return nil, fmt.Errorf("failed to seed employees: %w", err)
		}
		manager := managers[i%len(managers)]
		if err := s.seedEmployee(e, manager, i+1); err != nil {
			return nil, fmt.Errorf("failed to seed employee profiles: %w", err)
		}
		employees = append(employees, e)
	}
	summary.Users += len(employees)

	logger.Log.Info("Creating forms...")
	forms, err := s.seedForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed forms: %w", err)
	}
	summary.Forms = len(forms)

	logger.Log.Info("Creating tasks...")
	if err := s.seedTasks(ctx, summary, managers, employees, forms, taskCount); err != nil {
		return nil, fmt.Errorf("failed to seed tasks: %w", err)
	}

	logger.Log.Info("Creating recurring series...")
	if _, _, err := s.tasks.CreateRecurring(ctx, managers[0], tasks.CreateRecurringRequest{
		FormID:        forms[0].ID,
		Title:         "Weekly " + forms[0].Title,
		AssigneeIDs:   []string{employees[0].ID},
		FirstDeadline: time.Now().UTC().AddDate(0, 0, 7).Truncate(time.Hour),
		Frequency:     1,
		Count:         4,
		Unit:          models.UnitWeek,
		Tags:          []string{FormTag},
	}); err != nil {
		return nil, fmt.Errorf("failed to seed recurring series: %w", err)
	}
	summary.Tasks += 4

	logger.Log.Info("Seed complete",
		logger.WithUserID(admin.ID),
		zap.Int("users", summary.Users),
		zap.Int("forms", summary.Forms),
		zap.Int("tasks", summary.Tasks),
		zap.Int("submitted", summary.Submitted),
		zap.Int("reviewed", summary.Reviewed),
	)
	return summary, nil
}

// seedUser returns the seeded account called username, creating it when
// missing.
func (s *Seeder) seedUser(ctx context.Context, username, displayName string, role models.Role) (*models.User, error) {
	address := username + "@" + Domain
	if existing, err := s.users.GetUserByEmail(ctx, address); err == nil {
		return existing, nil
	}

	if s.hash == "" {
		hash, err := auth.HashPassword(Password)
		if err != nil {
			return nil, err
		}
		s.hash = hash
	}
	hash := s.hash

	user := &models.User{
		Email:        address,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: &hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Seeder) seedEmployee(user, manager *models.User, n int) error {
	hired := gofakeit.DateRange(time.Now().AddDate(-8, 0, 0), time.Now().AddDate(0, -1, 0)).UTC()
	employee := models.Employee{
		UserID:         user.ID,
		EmployeeNumber: fmt.Sprintf("SEED-%04d", n),
		Department:     gofakeit.RandomString(departments),
		JobTitle:       gofakeit.JobTitle(),
		ManagerID:      &manager.ID,
		HiredAt:        &hired,
	}
	return s.db.Where(models.Employee{UserID: user.ID}).FirstOrCreate(&employee).Error
}

// sampleForms are created once; later runs reuse them by path.
var sampleForms = []formio.Form{
	{
		Title:   "Site Inspection",
		Path:    "seed-site-inspection",
		Display: "form",
		Tags:    []string{FormTag, "safety"},
		Components: []map[string]interface{}{
			{"type": "textfield", "key": "site", "label": "Site", "validate": map[string]interface{}{"required": true}},
			{"type": "select", "key": "condition", "label": "Condition"},
			{"type": "textarea", "key": "notes", "label": "Notes"},
		},
	},
	{
		Title:   "Expense Report",
		Path:    "seed-expense-report",
		Display: "form",
		Tags:    []string{FormTag, "finance"},
		Components: []map[string]interface{}{
			{"type": "number", "key": "amount", "label": "Amount"},
			{"type": "textfield", "key": "merchant", "label": "Merchant"},
			{"type": "datetime", "key": "spentOn", "label": "Date"},
		},
	},
	{
		Title:   "Equipment Check",
		Path:    "seed-equipment-check",
		Display: "form",
		Tags:    []string{FormTag, "facilities"},
		Components: []map[string]interface{}{
			{"type": "textfield", "key": "asset", "label": "Asset tag"},
			{"type": "checkbox", "key": "working", "label": "Working"},
		},
	},
}

func (s *Seeder) seedForms(ctx context.Context) ([]*formio.Form, error) {
	existing, err := s.forms.ListForms(ctx, formio.ListQuery{
		Limit:  100,
		Filter: map[string]string{"tags": FormTag},
	})
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]formio.Form, len(existing))
	for _, f := range existing {
		byPath[f.Path] = f
	}

	out := make([]*formio.Form, 0, len(sampleForms))
	for _, sample := range sampleForms {
		if f, ok := byPath[sample.Path]; ok {
			out = append(out, &f)
			continue
		}
		form := sample
		form.Name = strings.ReplaceAll(sample.Path, "-", "")
		created, err := s.forms.CreateForm(ctx, &form)
		if err != nil {
			return nil, fmt.Errorf("creating form %s: %w", sample.Path, err)
		}
		out = append(out, created)
	}
	return out, nil
}

func sampleAnswers(form *formio.Form) map[string]interface{} {
	data := make(map[string]interface{}, len(form.Components))
	for _, c := range form.Components {
		key, _ := c["key"].(string)
		switch c["type"] {
		case "number":
			data[key] = gofakeit.Float64Range(5, 500)
		case "checkbox":
			data[key] = gofakeit.Bool()
		case "datetime":
			data[key] = gofakeit.DateRange(time.Now().AddDate(0, -1, 0), time.Now()).UTC().Format(time.RFC3339)
		case "textarea":
			data[key] = gofakeit.HipsterSentence()
		case "select":
			data[key] = gofakeit.RandomString([]string{"good", "fair", "poor"})
		default:
			data[key] = gofakeit.Company()
		}
	}
	return data
}

// seedTasks assigns tasks, submits about half of them and reviews about
// half of the submissions.
func (s *Seeder) seedTasks(ctx context.Context, summary *Summary, managers, employees []*models.User, forms []*formio.Form, count int) error {
	for i := 0; i < count; i++ {
		manager := managers[i%len(managers)]
		assignee := employees[gofakeit.IntRange(0, len(employees)-1)]
		form := forms[i%len(forms)]

		created, err := s.tasks.CreateTasks(ctx, manager, tasks.CreateTaskRequest{
			FormID:      form.ID,
			Title:       form.Title + " " + gofakeit.City(),
			Description: gofakeit.HipsterSentence(),
			AssigneeIDs: []string{assignee.ID},
			Deadline:    time.Now().UTC().Add(time.Duration(gofakeit.IntRange(1, 21*24)) * time.Hour),
			Tags:        []string{FormTag, strings.ToLower(form.Tags[len(form.Tags)-1])},
		})
		if err != nil {
			return err
		}
		summary.Tasks += len(created)
		task := created[0]

		if !gofakeit.Bool() {
			continue
		}
		if _, err := s.tasks.Submit(ctx, assignee, task.ID, sampleAnswers(form)); err != nil {
			return fmt.Errorf("submitting task %s: %w", task.ID, err)
		}
		summary.Submitted++

		if !gofakeit.Bool() {
			continue
		}
		decision := models.ReviewApproved
		if gofakeit.IntRange(1, 4) == 1 {
			decision = models.ReviewRejected
		}
		if _, err := s.tasks.Review(ctx, manager, task.ID, tasks.ReviewRequest{
			Decision: decision,
			Comment:  gofakeit.HipsterSentence(),
		}); err != nil {
			return fmt.Errorf("reviewing task %s: %w", task.ID, err)
		}
		summary.Reviewed++
	}
	return nil
}

// Clean removes every seeded account and the tasks they created. Forms and
// submissions stay in the form backend.
func (s *Seeder) Clean(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userIDs := tx.Model(&models.User{}).Unscoped().
			Select("id").
			Where("email LIKE ?", "%@"+Domain)
		taskIDs := tx.Model(&models.Task{}).Unscoped().
			Select("id").
			Where("created_by_id IN (?) OR assignee_id IN (?)", userIDs, userIDs)

		steps := []struct {
			name  string
			model interface{}
			query *gorm.DB
		}{
			{"reviews", &models.Review{}, tx.Where("task_id IN (?)", taskIDs)},
			{"drafts", &models.Draft{}, tx.Where("task_id IN (?)", taskIDs)},
			{"tasks", &models.Task{}, tx.Unscoped().Where("id IN (?)", taskIDs)},
			{"recurrences", &models.Recurrence{}, tx.Where("created_by_id IN (?)", userIDs)},
			{"employees", &models.Employee{}, tx.Where("user_id IN (?)", userIDs)},
			{"password resets", &models.PasswordReset{}, tx.Where("user_id IN (?)", userIDs)},
			{"users", &models.User{}, tx.Unscoped().Where("email LIKE ?", "%@"+Domain)},
		}
		for _, step := range steps {
			result := step.query.Delete(step.model)
			if result.Error != nil {
				return fmt.Errorf("cleaning %s: %w", step.name, result.Error)
			}
			logger.Log.Info("Cleaned seed data",
				zap.String("table", step.name),
				zap.Int64("rows", result.RowsAffected),
			)
		}
		return nil
	})
}
