package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	customConfigPath := filepath.Join(tempDir, "custom", "path", "config.toml")

	require.NoError(t, Init(customConfigPath))

	assert.Equal(t, filepath.Join(tempDir, "custom", "path"), GetConfigDir())
	assert.Equal(t, filepath.Join(tempDir, "custom", "path", "credentials"), GetCredentialsPath())

	info, err := os.Stat(GetConfigDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDefaults(t *testing.T) {
	require.NoError(t, Init(filepath.Join(t.TempDir(), "config.toml")))

	assert.Equal(t, "http://localhost:8787", GetString("api.base_url"))
	assert.Equal(t, 30, GetInt("api.timeout"))
	assert.Equal(t, "text", GetString("output.format"))
}

func TestUserConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_url = \"https://forms.example.com\"\n"), 0600))

	require.NoError(t, Init(path))
	assert.Equal(t, "https://forms.example.com", GetString("api.base_url"))
	assert.Equal(t, 30, GetInt("api.timeout"))
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	t.Setenv("FORMDESK_API_BASE_URL", "http://env.example.com")
	require.NoError(t, Init(filepath.Join(t.TempDir(), "config.toml")))

	assert.Equal(t, "http://env.example.com", GetString("api.base_url"))
}

func TestSetStringPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Init(path))
	require.NoError(t, SetString("output.format", "json"))

	require.NoError(t, Init(path))
	assert.Equal(t, "json", GetString("output.format"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "exports"), expandPath("~/exports"))
	assert.Equal(t, "/tmp/exports", expandPath("/tmp/exports"))
}
