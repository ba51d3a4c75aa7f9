package util

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/queue"
	"github.com/zfogg/formdesk/internal/repository"
	"github.com/zfogg/formdesk/internal/results"
	"github.com/zfogg/formdesk/internal/tasks"
	"github.com/zfogg/formdesk/internal/users"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.String("field", apiErr.Field),
		zap.Int("status", apiErr.Status),
		zap.String("path", c.FullPath()),
	}
	if cause := stderrors.Unwrap(apiErr); cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error", fields...)
	}

	c.AbortWithStatusJSON(apiErr.Status, ErrorResponse{
		Error:   string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondWithError maps a service error to its API error and sends it.
// Errors with no mapping become a 500 that does not leak the cause.
func RespondWithError(c *gin.Context, err error) {
	RespondWithAPIError(c, ToAPIError(err))
}

// ToAPIError translates domain sentinel errors into API errors.
func ToAPIError(err error) *errors.APIError {
	if apiErr, ok := errors.As(err); ok {
		return apiErr
	}

	var formErr *formio.Error
	switch {
	// authorization
	case stderrors.Is(err, auth.ErrForbidden),
		stderrors.Is(err, tasks.ErrNotAssignee):
		return errors.Forbidden(err.Error())

	// authentication
	case stderrors.Is(err, auth.ErrInvalidCredentials),
		stderrors.Is(err, auth.ErrInvalidToken):
		return errors.Unauthorized(err.Error())
	case stderrors.Is(err, auth.ErrAccountInactive):
		return errors.Forbidden(err.Error())
	case stderrors.Is(err, auth.ErrTOTPRequired),
		stderrors.Is(err, auth.ErrInvalidTOTP):
		apiErr := errors.Unauthorized(err.Error())
		apiErr.Field = "totp_code"
		return apiErr
	case stderrors.Is(err, auth.ErrInvalidResetToken):
		return errors.BadRequest(err.Error())
	case stderrors.Is(err, auth.ErrWeakPassword):
		return errors.ValidationError("password", err.Error())
	case stderrors.Is(err, auth.ErrTOTPNotSetup),
		stderrors.Is(err, auth.ErrTOTPAlreadyEnabled):
		return errors.InvalidState(err.Error())

	// missing records
	case stderrors.Is(err, repository.ErrUserNotFound):
		return errors.NotFound("user")
	case stderrors.Is(err, repository.ErrEmployeeNotFound):
		return errors.NotFound("employee")
	case stderrors.Is(err, repository.ErrTaskNotFound):
		return errors.NotFound("task")
	case stderrors.Is(err, repository.ErrRecurrenceNotFound):
		return errors.NotFound("recurrence")
	case stderrors.Is(err, repository.ErrDraftNotFound):
		return errors.NotFound("draft")
	case stderrors.Is(err, tasks.ErrFormNotFound),
		stderrors.Is(err, results.ErrFormNotFound):
		return errors.NotFound("form")
	case stderrors.Is(err, queue.ErrJobNotFound):
		return errors.NotFound("export job")

	// state
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.AlreadyExists("record")
	case stderrors.Is(err, repository.ErrStateConflict):
		return errors.InvalidState("the record was changed by another request, reload and retry")
	case stderrors.Is(err, tasks.ErrNotSubmittable),
		stderrors.Is(err, tasks.ErrNotReviewable),
		stderrors.Is(err, tasks.ErrTaskClosed),
		stderrors.Is(err, tasks.ErrSeriesCancelled),
		stderrors.Is(err, users.ErrSelfAction):
		return errors.InvalidState(err.Error())
	case stderrors.Is(err, users.ErrNotStaff):
		return errors.ValidationError("role", err.Error())
	case stderrors.Is(err, repository.ErrInvalidInput):
		return errors.BadRequest(err.Error())

	// capacity and upstreams
	case stderrors.Is(err, queue.ErrQueueFull),
		stderrors.Is(err, queue.ErrQueueClosed):
		return errors.ServiceUnavailable("export queue").Wrap(err)
	case stderrors.As(err, &formErr):
		if formErr.Status == http.StatusNotFound {
			return errors.NotFound("form")
		}
		if formErr.Status >= 400 && formErr.Status < 500 {
			return errors.BadRequest(formErr.Message).Wrap(err)
		}
		return errors.Upstream("form backend", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout("request").Wrap(err)
	}

	return errors.InternalError("internal server error").Wrap(err)
}

// RespondBindError reports a request that failed binding. Validation
// failures name the first offending field.
func RespondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		RespondValidationError(c, fe.Field(), validationMessage(fe))
		return
	}
	RespondBadRequest(c, "invalid request body")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max", "len":
		return fe.Field() + " must satisfy " + fe.Tag() + "=" + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email address"
	case "uuid":
		return fe.Field() + " must be a UUID"
	case "tag":
		return "tags must be lowercase letters, digits, '-' or '_' (at most 32)"
	case "recurrence_unit":
		return "unit must be one of: day week month year"
	case "role":
		return "role must be one of: user employee manager admin"
	}
	return fe.Field() + " is invalid"
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "bad request"
	}
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondForbidden sends a 403 Forbidden response
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Forbidden(msg))
}

// RespondInternalError sends a 500 Internal Server Error response
func RespondInternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	RespondWithAPIError(c, errors.InternalError(message))
}

// RespondValidationError sends a 422 Unprocessable Entity response
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
