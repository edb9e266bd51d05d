package database

import (
	"errors"
	"fmt"
)

// Sentinel errors for gateway failures. Callers match with errors.Is.
var (
	// ErrInvalidInput marks a request rejected before reaching the backend.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRemoteCall marks any backend call that failed; the client does
	// not classify these further.
	ErrRemoteCall = errors.New("remote call failed")
	// ErrNotFound marks an entity the backend does not have.
	ErrNotFound = errors.New("not found")
)

// NotFoundError carries the entity kind and id of a missing record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}
