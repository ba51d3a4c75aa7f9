package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/formdesk/internal/cli/config"
	"github.com/zfogg/formdesk/internal/cli/logger"
)

const userAgent = "formdesk-cli/0.1.0"

var (
	httpClient      *resty.Client
	impersonateUser string
)

// Init builds the HTTP client from api.base_url and api.timeout.
func Init() {
	httpClient = resty.New()
	httpClient.SetBaseURL(config.GetString("api.base_url"))
	httpClient.SetTimeout(time.Duration(config.GetInt("api.timeout")) * time.Second)
	httpClient.SetHeader("User-Agent", userAgent)

	httpClient.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP request", "method", req.Method, "url", req.URL)
		if impersonateUser != "" {
			req.Header.Set("X-Impersonate-User", impersonateUser)
			logger.Debug("Impersonating user", "user", impersonateUser)
		}
		return nil
	})

	httpClient.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP response", "status", resp.StatusCode(), "duration", resp.Time())
		return nil
	})
}

func GetClient() *resty.Client {
	if httpClient == nil {
		Init()
	}
	return httpClient
}

func SetAuthToken(token string) {
	GetClient().SetAuthToken(token)
}

// ClearAuthToken rebuilds the client without credentials.
func ClearAuthToken() {
	Init()
}

// SetImpersonateUser makes every request act as the account with this
// email. Only admins may impersonate.
func SetImpersonateUser(user string) {
	impersonateUser = user
}

func ClearImpersonateUser() {
	impersonateUser = ""
}
