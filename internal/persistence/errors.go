package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrStaleState is returned when a conditional update finds the stored
	// status no longer matching the caller's expectation.
	ErrStaleState = errors.New("persistence: stale state")
	// ErrConstraintViolation is returned when a check constraint rejects the
	// row, such as an inverted time range.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced row is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
