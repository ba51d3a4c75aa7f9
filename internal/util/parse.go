package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/repository"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseList splits a comma separated query value, dropping blanks.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC
// midnight).
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// QueryTime reads an optional time query parameter.
func QueryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return nil, errors.ValidationError(name, err.Error())
	}
	return &t, nil
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.ValidationError(name, "must be true or false")
	}
	return &b, nil
}

// QueryPage reads limit and offset.
func QueryPage(c *gin.Context) repository.Page {
	return repository.Page{
		Limit:  ParseInt(c.Query("limit"), repository.DefaultLimit),
		Offset: ParseInt(c.Query("offset"), 0),
	}.Normalize()
}
