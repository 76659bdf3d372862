package storage

import "errors"

// Sentinel errors shared by every store implementation. Observations and
// aggregates are append-only, so a key collision is always an error, never
// an update.
var (
	// ErrNotFound is returned when the requested lot or record has no data.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// (lot, timestamp, id) or (lot, window end) key.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when a record fails store-level validation.
	ErrInvalidInput = errors.New("invalid input")
)
