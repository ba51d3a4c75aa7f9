package output

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/cli/config"
)

func capture(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	require.NoError(t, config.Init(filepath.Join(t.TempDir(), "config.toml")))
	config.Set("output.format", format)

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	t.Cleanup(SetWriter(&buf))
	return &buf
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("json"))
	assert.True(t, ValidFormat("table"))
	assert.True(t, ValidFormat("text"))
	assert.False(t, ValidFormat("yaml"))
}

func TestGetFormatDefaultsToText(t *testing.T) {
	capture(t, "yaml")
	assert.Equal(t, FormatText, GetFormat())
}

func TestPrintTable(t *testing.T) {
	buf := capture(t, "table")

	require.NoError(t, PrintTable(Table{
		Headers: []string{"ID", "STATUS"},
		Rows:    [][]string{{"t-1", "pending"}, {"t-22", "approved"}},
	}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "ID    STATUS", string(lines[0]))
	assert.Equal(t, "t-1   pending", string(lines[1]))
	assert.Equal(t, "t-22  approved", string(lines[2]))
}

func TestPrintTableEmpty(t *testing.T) {
	buf := capture(t, "text")

	require.NoError(t, PrintTable(Table{Headers: []string{"ID"}}))
	assert.Equal(t, "No results\n", buf.String())
}

func TestPrintTableJSON(t *testing.T) {
	buf := capture(t, "json")

	require.NoError(t, PrintTable(Table{
		Headers: []string{"ID"},
		Rows:    [][]string{{"t-1"}},
		Data:    []map[string]string{{"id": "t-1"}},
	}))
	assert.JSONEq(t, `[{"id":"t-1"}]`, buf.String())
}

func TestPrintRecordSortsFields(t *testing.T) {
	buf := capture(t, "text")

	require.NoError(t, PrintRecord("Task", map[string]interface{}{
		"status": "pending",
		"id":     "t-1",
	}, nil))
	assert.Equal(t, "Task\nid:      t-1\nstatus:  pending\n", buf.String())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "-", Time(nil))
	past := time.Now().Add(-3 * 24 * time.Hour)
	assert.Equal(t, "3 days ago", Time(&past))

	assert.Equal(t, "1.5 kB", Bytes(1500))
	assert.Equal(t, "-", Bytes(-1))

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
}
