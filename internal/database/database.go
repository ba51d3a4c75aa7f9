package database

import (
	"fmt"
	"time"

	"github.com/zfogg/formdesk/internal/config"
	applogger "github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the configured database and stores it in DB.
func Initialize(cfg config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	applogger.Log.Info("Database connected", zap.String("driver", cfg.Driver))
	return nil
}

// Open creates a configured connection without touching the global.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	default:
		dialector = postgres.Open(cfg.URL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// a single connection keeps :memory: databases coherent
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Models lists every table owned by the service in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Employee{},
		&models.PasswordReset{},
		&models.Recurrence{},
		&models.Task{},
		&models.Draft{},
		&models.Review{},
	}
}

// Migrate runs auto-migration against DB.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateDB(DB)
}

// MigrateDB runs auto-migration and creates secondary indexes on db.
func MigrateDB(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			applogger.Log.Warn("Could not create uuid-ossp extension", zap.Error(err))
		}
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	applogger.Log.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",

		// task lists are filtered by assignee or form and ordered by deadline
		"CREATE INDEX IF NOT EXISTS idx_tasks_assignee_deadline ON tasks (assignee_id, deadline)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_form_deadline ON tasks (form_id, deadline)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_status_deadline ON tasks (status, deadline) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_tasks_recurrence_sequence ON tasks (recurrence_id, sequence) WHERE recurrence_id IS NOT NULL",

		"CREATE INDEX IF NOT EXISTS idx_reviews_task_created ON reviews (task_id, created_at DESC)",
	}
	if db.Dialector.Name() == "postgres" {
		statements = append(statements,
			"CREATE INDEX IF NOT EXISTS idx_tasks_tags ON tasks USING GIN (tags)",
		)
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
