package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate")

	// ErrConstraintViolation is returned for invalid or incomplete rows.
	ErrConstraintViolation = errors.New("persistence: constraint violation")

	// ErrForeignKeyViolation is returned when a referenced row is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
