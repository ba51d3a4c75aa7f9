package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

func openTracedDB(t *testing.T) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	require.NoError(t, db.Use(NewGORMTracingPlugin(tp)))
	return db, recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestGORMTracingPluginRecordsOperations(t *testing.T) {
	db, recorder := openTracedDB(t)
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "gear"}).Error)
	var found widget
	require.NoError(t, db.WithContext(ctx).First(&found).Error)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "db.insert", spans[0].Name())
	assert.Equal(t, "db.select", spans[1].Name())

	system, ok := spanAttr(spans[0], dbSystemKey)
	require.True(t, ok)
	assert.Equal(t, "sqlite", system.AsString())

	table, ok := spanAttr(spans[1], dbTableKey)
	require.True(t, ok)
	assert.Equal(t, "widgets", table.AsString())

	stmt, ok := spanAttr(spans[1], dbStatementKey)
	require.True(t, ok)
	assert.Contains(t, stmt.AsString(), "SELECT")
}

func TestGORMTracingPluginIgnoresRecordNotFound(t *testing.T) {
	db, recorder := openTracedDB(t)

	var found widget
	err := db.WithContext(context.Background()).First(&found, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestGORMTracingPluginRecordsErrors(t *testing.T) {
	db, recorder := openTracedDB(t)

	err := db.WithContext(context.Background()).Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.raw", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
