package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/auth"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/queue"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/results"
	"github.com/zfogg/formdesk/internal/tasks"
	"github.com/zfogg/formdesk/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{auth.ErrForbidden, http.StatusForbidden, apperrors.ErrForbidden},
		{tasks.ErrNotAssignee, http.StatusForbidden, apperrors.ErrForbidden},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{auth.ErrAccountInactive, http.StatusForbidden, apperrors.ErrForbidden},
		{auth.ErrWeakPassword, http.StatusUnprocessableEntity, apperrors.ErrValidation},
		{fmt.Errorf("load: %w", repository.ErrTaskNotFound), http.StatusNotFound, apperrors.ErrNotFound},
		{results.ErrFormNotFound, http.StatusNotFound, apperrors.ErrNotFound},
		{queue.ErrJobNotFound, http.StatusNotFound, apperrors.ErrNotFound},
		{repository.ErrDuplicate, http.StatusConflict, apperrors.ErrAlreadyExists},
		{repository.ErrStateConflict, http.StatusConflict, apperrors.ErrInvalidState},
		{tasks.ErrNotSubmittable, http.StatusConflict, apperrors.ErrInvalidState},
		{tasks.ErrSeriesCancelled, http.StatusConflict, apperrors.ErrInvalidState},
		{users.ErrSelfAction, http.StatusConflict, apperrors.ErrInvalidState},
		{users.ErrNotStaff, http.StatusUnprocessableEntity, apperrors.ErrValidation},
		{queue.ErrQueueFull, http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
		{&formio.Error{Status: 404}, http.StatusNotFound, apperrors.ErrNotFound},
		{&formio.Error{Status: 400, Message: "bad component"}, http.StatusBadRequest, apperrors.ErrBadRequest},
		{&formio.Error{Status: 500}, http.StatusBadGateway, apperrors.ErrUpstream},
		{apperrors.ValidationError("deadline", "in the past"), http.StatusUnprocessableEntity, apperrors.ErrValidation},
		{errors.New("boom"), http.StatusInternalServerError, apperrors.ErrInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			apiErr := ToAPIError(tt.err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}

	assert.Equal(t, "totp_code", ToAPIError(auth.ErrTOTPRequired).Field)
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(c, errors.New("database password is hunter2"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, c.IsAborted())
	assert.NotContains(t, w.Body.String(), "hunter2")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error)
}

func TestRespondBindError(t *testing.T) {
	v := validator.New()
	type req struct {
		Name string `validate:"required"`
	}
	verr := v.Struct(req{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	RespondBindError(c, verr)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error)
	assert.Equal(t, "Name", body.Field)
	assert.Equal(t, "Name is required", body.Message)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	RespondBindError(c, errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList(" a, ,b,"))
	assert.Nil(t, ParseList(""))

	ts, err := ParseTime("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T00:00:00Z", ts.Format("2006-01-02T15:04:05Z07:00"))

	ts, err = ParseTime("2026-03-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, ts.Hour())

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
