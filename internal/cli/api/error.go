package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Code       string
	Message    string
	Field      string
	StatusCode int
	Details    map[string]interface{}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
	if e.Field != "" {
		msg += " (field: " + e.Field + ")"
	}
	if e.Details != nil {
		msg += fmt.Sprintf(" (details: %v)", e.Details)
	}
	return msg
}

// ParseError turns an error response into an *APIError, falling back to
// the raw body when it is not the standard error shape.
func ParseError(resp *resty.Response) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err == nil && errResp.Code != "" {
		return &APIError{
			Code:       errResp.Code,
			Message:    errResp.Message,
			Field:      errResp.Field,
			StatusCode: resp.StatusCode(),
			Details:    errResp.Details,
		}
	}

	return &APIError{
		Code:       "unknown_error",
		Message:    string(resp.Body()),
		StatusCode: resp.StatusCode(),
	}
}

// CheckResponse returns the transport error, or the API error when the
// response is not successful.
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return nil
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

func IsServerError(err error) bool {
	return statusOf(err) >= http.StatusInternalServerError
}

// decode checks resp and unmarshals its body into target.
func decode(resp *resty.Response, err error, target interface{}) error {
	if err := CheckResponse(resp, err); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(resp.Body(), target)
}
