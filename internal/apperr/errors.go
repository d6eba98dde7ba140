// Package apperr defines the sentinel errors shared across the service.
package apperr

import "errors"

var (
	// ErrValidation marks input rejected before any write happened.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup that resolved to nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a unique-constraint clash, e.g. a lost
	// get-or-create race. The caller may retry the get-or-create.
	ErrConflict = errors.New("integrity conflict")
)
