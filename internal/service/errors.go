package service

import (
	"errors"
	"fmt"

	"nutrilog/internal/store"
)

// ErrForbidden is returned when the caller may not touch the resource.
var ErrForbidden = errors.New("not authorized to modify this resource")

// NotFoundError names the resource and id that could not be found.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Resource, e.ID)
}

// ValidationError rejects a request before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// notFoundOr turns store.ErrNotFound into a NotFoundError and wraps anything else.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
