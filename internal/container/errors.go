package container

import (
	"slices"
	"strings"
)

// InitializationError lists the dependencies a container could not start
// without.
type InitializationError struct {
	Message     string
	MissingDeps []string
}

func NewInitializationError(message string, missing []string) *InitializationError {
	return &InitializationError{Message: message, MissingDeps: missing}
}

func (e *InitializationError) Error() string {
	if len(e.MissingDeps) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.MissingDeps, ", ")
}

// Missing reports whether dep is one of the absent dependencies.
func (e *InitializationError) Missing(dep string) bool {
	return slices.Contains(e.MissingDeps, dep)
}
