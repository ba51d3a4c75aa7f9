package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/cli/config"
	"github.com/zfogg/formdesk/internal/cli/credentials"
	"github.com/zfogg/formdesk/internal/cli/output"
)

// session writes a config dir holding creds and points the CLI at handler.
// It returns the --config path to pass to the command.
func session(t *testing.T, creds *credentials.Credentials, handler http.Handler) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.Init(path))
	if creds != nil {
		require.NoError(t, credentials.Save(creds))
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("FORMDESK_API_BASE_URL", srv.URL)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	t.Cleanup(output.SetWriter(&buf))
	asUser = ""

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func validCreds(role string) *credentials.Credentials {
	return &credentials.Credentials{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
		UserID:      "u-1",
		Username:    "alice",
		Role:        role,
	}
}

func TestTasksListMine(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "u-1", r.URL.Query().Get("assignee_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tasks": []map[string]interface{}{{"id": "t-1", "title": "Weekly report", "status": "pending"}},
			"total": 1,
		})
	})
	cfg := session(t, validCreds("employee"), mux)

	out, err := run(t, "--config", cfg, "-o", "json", "tasks", "list", "--mine")
	require.NoError(t, err)

	var got struct {
		Tasks []struct {
			ID string `json:"id"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "t-1", got.Tasks[0].ID)
}

func TestCommandsRequireLogin(t *testing.T) {
	cfg := session(t, nil, http.NotFoundHandler())

	_, err := run(t, "--config", cfg, "tasks", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestAsUserRequiresAdmin(t *testing.T) {
	cfg := session(t, validCreds("manager"), http.NotFoundHandler())

	_, err := run(t, "--config", cfg, "--as-user", "bob", "auth", "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only admins")
}

func TestSubmitSendsAnswers(t *testing.T) {
	var body map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/tasks/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"task": map[string]interface{}{"id": r.PathValue("id"), "title": "Weekly report", "late": true},
		})
	})
	cfg := session(t, validCreds("employee"), mux)

	answers := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(answers, []byte(`{"hours": 38}`), 0600))

	out, err := run(t, "--config", cfg, "tasks", "submit", "t-9", "--data", answers)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"data": map[string]interface{}{"hours": float64(38)}}, body)
	assert.Contains(t, out, "Warning: Submitted after the deadline")
	assert.Contains(t, out, "Submitted Weekly report")
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseTime("2030-02-03T04:05:06Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 2, 3, 4, 5, 6, 0, time.UTC)))

	got, err = parseTime("2030-02-03")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 2, 3, 0, 0, 0, 0, time.Local)))

	_, err = parseTime("next tuesday")
	assert.Error(t, err)
}

func TestReadData(t *testing.T) {
	data, err := readData(`{"a": "b"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "b"}, data)

	data, err = readData("")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = readData(`{"a": `)
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
