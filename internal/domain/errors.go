// Package domain provides shared domain-level sentinel errors and value types.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested team, group or entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request parameter failed validation.
var ErrValidation = errors.New("validation")

// ErrSprintConflict indicates a team set spans more than one active sprint
// on an endpoint that requires a single sprint identity.
var ErrSprintConflict = errors.New("sprint conflict")

// ErrQuery indicates the read store failed to execute a query.
var ErrQuery = errors.New("query failed")

// NotFoundError names the kind and name of an unresolved reference.
// Kind is one of the Kind constants below.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// Message returns the caller-facing message.
func (e *NotFoundError) Message() string {
	if e.Kind == KindGroupEmpty {
		return fmt.Sprintf("group '%s' has no teams", e.Name)
	}
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Not-found kinds.
const (
	KindTeam       = "team"
	KindGroup      = "group"
	KindGroupEmpty = "group has no teams"
	KindSprint     = "sprint"
	KindReport     = "report"
)

// SprintConflictError reports the distinct sprints a filter resolved to.
type SprintConflictError struct {
	Filter  string
	Sprints []string
}

func (e *SprintConflictError) Error() string {
	return "sprint conflict: " + e.Message()
}

// Message returns the caller-facing message.
func (e *SprintConflictError) Message() string {
	return fmt.Sprintf("teams in '%s' are on different active sprints (%s); select a single team or sprint",
		e.Filter, strings.Join(e.Sprints, ", "))
}

func (e *SprintConflictError) Unwrap() error { return ErrSprintConflict }

// QueryError wraps a store execution failure with the failing operation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is reports ErrQuery so callers can match any store failure.
func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// NewQueryError wraps err as a QueryError unless it is nil or already one.
func NewQueryError(op string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Op: op, Err: err}
}

// Validationf builds an ErrValidation-wrapped error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
