// Package apperr holds the error taxonomy shared by the service, storage and API layers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrValidation           = errors.New("validation failed")
	ErrMalformedRequest     = errors.New("malformed request")
	ErrInvalidParameter     = errors.New("invalid parameter type")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrStore                = errors.New("store failure")
)

// FieldError is a single violated field constraint.
type FieldError struct {
	Field         string `json:"field" example:"title"`
	RejectedValue any    `json:"rejectedValue" swaggertype:"string" example:""`
	Message       string `json:"message" example:"Title is required and cannot be blank"`
}

// ValidationError collects every field constraint a payload violated.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a missing resource looked up by its public identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for the given resource name and id.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// StoreError wraps a failure of the backing store. Op names the repository
// operation, Err carries the driver error for logging only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// Store wraps err as a StoreError. It returns nil for a nil err.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
