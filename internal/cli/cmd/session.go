package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/zfogg/formdesk/internal/cli/api"
	"github.com/zfogg/formdesk/internal/cli/client"
	"github.com/zfogg/formdesk/internal/cli/credentials"
)

var errNotLoggedIn = errors.New("not logged in, run: formdesk auth login")

// requireAuth loads the saved session into the client.
func requireAuth() (*credentials.Credentials, error) {
	creds, err := credentials.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, errNotLoggedIn
	}
	if !creds.IsValid() {
		return nil, errors.New("session expired, run: formdesk auth login")
	}
	client.SetAuthToken(creds.AccessToken)
	return creds, nil
}

// explain rewrites the errors a user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case api.IsUnauthorized(err):
		return fmt.Errorf("%w (session rejected, run: formdesk auth login)", err)
	case api.IsForbidden(err):
		return fmt.Errorf("%w (your role does not allow this)", err)
	}
	return err
}

// parseTime accepts RFC 3339 or a plain date, which is read as midnight
// local time.
func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, use YYYY-MM-DD or RFC 3339", s)
	}
	return &t, nil
}

// readData reads a JSON object from a file, "-" for stdin, or an inline
// literal starting with "{".
func readData(src string) (map[string]interface{}, error) {
	var raw []byte
	var err error
	switch {
	case src == "":
		return nil, nil
	case strings.HasPrefix(strings.TrimSpace(src), "{"):
		raw = []byte(src)
	case src == "-":
		raw, err = io.ReadAll(os.Stdin)
	default:
		raw, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("answers must be a JSON object: %w", err)
	}
	return data, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
