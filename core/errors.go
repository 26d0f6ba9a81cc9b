package core

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrAccessDenied is returned whenever an actor fails an ownership check.
var ErrAccessDenied = errors.New("access denied")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// DependentsError blocks the deletion of an entity that still has dependent
// children. Count carries the number of blocking dependents.
type DependentsError struct {
	Entity    string
	Dependent string
	Count     int
}

func NewDependentsError(entity, dependent string, count int) error {
	return &DependentsError{Entity: entity, Dependent: dependent, Count: count}
}

func (err DependentsError) Error() string {
	return fmt.Sprintf("%s still has %d %s", err.Entity, err.Count, err.Dependent)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := pkgerrors.Cause(err).(*shutdown)
	return ok
}
