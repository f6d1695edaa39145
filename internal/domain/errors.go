package domain

import "errors"

var (
	// ErrNotFound is returned when a document is absent from the store.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when no caller identity is resolved.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnauthorized is returned when the caller's role does not permit the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a conditional write found an existing document.
	ErrConflict = errors.New("document already exists")
	// ErrCorruptRecord indicates a stored document failed schema validation on read.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrStoreUnavailable indicates the underlying document store call failed.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
