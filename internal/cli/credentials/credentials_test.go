package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/cli/config"
)

func initConfig(t *testing.T) {
	t.Helper()
	require.NoError(t, config.Init(filepath.Join(t.TempDir(), "config.toml")))
}

func TestCredentialsIsValid(t *testing.T) {
	testCases := []struct {
		name        string
		accessToken string
		expiresAt   time.Time
		expect      bool
	}{
		{"valid credentials", "token", time.Now().Add(time.Hour), true},
		{"empty access token", "", time.Now().Add(time.Hour), false},
		{"expired token", "token", time.Now().Add(-time.Hour), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &Credentials{AccessToken: tc.accessToken, ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expect, creds.IsValid())
		})
	}
}

func TestLoadWithoutFile(t *testing.T) {
	initConfig(t)

	creds, err := Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestSaveAndLoad(t *testing.T) {
	initConfig(t)

	saved := &Credentials{
		AccessToken: "abc",
		ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		UserID:      "u-1",
		Username:    "alice",
		Email:       "alice@example.com",
		Role:        "admin",
	}
	require.NoError(t, Save(saved))

	info, err := os.Stat(config.GetCredentialsPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Username, loaded.Username)
	assert.True(t, saved.ExpiresAt.Equal(loaded.ExpiresAt))
	assert.True(t, loaded.IsAdmin())
}

func TestDelete(t *testing.T) {
	initConfig(t)

	require.NoError(t, Delete())
	require.NoError(t, Save(&Credentials{AccessToken: "abc"}))
	require.NoError(t, Delete())

	creds, err := Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}
