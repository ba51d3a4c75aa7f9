package credentials

import (
	"os"
	"time"

	json "github.com/json-iterator/go"
	"github.com/zfogg/formdesk/internal/cli/config"
)

// Credentials is the session saved by "formdesk auth login".
type Credentials struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
}

// Load returns nil without an error when nobody is logged in.
func Load() (*Credentials, error) {
	data, err := os.ReadFile(config.GetCredentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Save writes creds readable by the owner only.
func Save(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(config.GetCredentialsPath(), data, 0600)
}

// Delete removes the saved session. A missing file is not an error.
func Delete() error {
	err := os.Remove(config.GetCredentialsPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *Credentials) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

func (c *Credentials) IsValid() bool {
	return c.AccessToken != "" && !c.IsExpired()
}

// IsAdmin reports whether the session belongs to an administrator.
func (c *Credentials) IsAdmin() bool {
	return c.Role == "admin"
}
