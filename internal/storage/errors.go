package storage

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned when no session key is stored.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
