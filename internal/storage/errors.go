package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert or update violates a
	// uniqueness constraint, e.g. a second result for (race_id, team_id).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTxConflict is returned when the backend rejects a transaction
	// because it raced with a concurrent one. The caller must re-read state.
	ErrTxConflict = errors.New("transaction conflict")
)
