package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced case, event, or task id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means an illegal case or event or task status
	// transition was requested; prior state is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrCyclicDependency means a task dependency edge would create a cycle;
	// the task graph is left unchanged.
	ErrCyclicDependency = errors.New("cyclic dependency")
)

// ValidationError reports malformed input. It is always raised before any
// state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalidf builds a ValidationError for a field.
func Invalidf(field, format string, args ...any) error {
	return ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
