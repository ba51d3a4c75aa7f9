package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/models"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	require.NoError(t, MigrateDB(db))
	// migrating twice is a no-op
	require.NoError(t, MigrateDB(db))

	for _, model := range Models() {
		assert.True(t, db.Migrator().HasTable(model), "%T table missing", model)
	}

	task := &models.Task{FormID: "f1", Title: "t", AssigneeID: "a", CreatedByID: "c", Tags: models.StringList{"weekly", "safety"}}
	require.NoError(t, db.Create(task).Error)

	var loaded models.Task
	require.NoError(t, db.First(&loaded, "id = ?", task.ID).Error)
	assert.Equal(t, models.StringList{"weekly", "safety"}, loaded.Tags)
	assert.Equal(t, models.TaskPending, loaded.Status)
}

func TestHealthWithoutConnection(t *testing.T) {
	saved := DB
	DB = nil
	defer func() { DB = saved }()

	assert.Error(t, Health())
	assert.Error(t, Migrate())
	assert.NoError(t, Close())
}
