// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested event or calendar does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a missing or malformed input field.
	// Wrap it with the field detail: fmt.Errorf("%w: timeSlot is required", ErrValidation).
	ErrValidation = errors.New("validation")

	// ErrAlreadyExists indicates a unique constraint violation (calendar id taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates a wrong admin password or an invalid token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates a verified identity that may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates the admin check is not configured on this server.
	ErrUnavailable = errors.New("unavailable")

	// ErrRateLimited indicates a temporary lock after repeated admin failures.
	ErrRateLimited = errors.New("rate limited")
)
