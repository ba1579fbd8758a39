package domain

import "errors"

// Domain errors - callers check them with errors.Is after wrapping
var (
	// ErrLinkNotFound means no live link has the requested hash or ID
	ErrLinkNotFound = errors.New("link not found")

	// ErrMalformedLink means a stored record lacks the fields needed to redirect
	ErrMalformedLink = errors.New("link record is malformed")

	// ErrStoreUnavailable wraps connectivity and timeout failures of the store
	ErrStoreUnavailable = errors.New("link store unavailable")

	// ErrHashTaken is returned when a generated hash collides on insert
	ErrHashTaken = errors.New("hash already exists")

	// ErrHashGeneration is returned when no free hash was found
	ErrHashGeneration = errors.New("failed to generate unique hash")

	// ErrEmptyUpdate is returned when an update carries no fields
	ErrEmptyUpdate = errors.New("update has no fields")
)
