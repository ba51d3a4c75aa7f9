// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/database"
	"github.com/zfogg/formdesk/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plaintext password of every user created by CreateUser.
const Password = "correct-horse-battery"

var passwordHash string

// NewDB returns a migrated in-memory SQLite database that is closed when the
// test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateDB(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateUser inserts an active user with the given role and the shared test
// password.
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	if passwordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		require.NoError(t, err)
		passwordHash = string(hash)
	}
	hash := passwordHash

	username := strings.ToLower(gofakeit.Username()) + gofakeit.DigitN(4)
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		DisplayName:  gofakeit.Name(),
		PasswordHash: &hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTask inserts a pending task for assignee on formID due at deadline.
func CreateTask(t *testing.T, db *gorm.DB, formID string, assignee, creator *models.User, deadline time.Time) *models.Task {
	t.Helper()

	task := &models.Task{
		FormID:      formID,
		FormTitle:   "Form " + formID,
		Title:       gofakeit.Sentence(3),
		AssigneeID:  assignee.ID,
		CreatedByID: creator.ID,
		Deadline:    deadline.UTC(),
		Status:      models.TaskPending,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}
