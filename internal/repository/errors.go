package repository

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrRecurrenceNotFound = errors.New("recurrence not found")
	ErrDraftNotFound      = errors.New("draft not found")
	ErrResetNotFound      = errors.New("password reset not found")

	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStateConflict reports a conditional update that matched no row
	// because the record changed state concurrently.
	ErrStateConflict = errors.New("record is not in the expected state")
)
