package domain

import "errors"

var (
	// ErrNotConfigured marks missing credentials or endpoints. Fatal for
	// the run; never silently degraded.
	ErrNotConfigured = errors.New("not configured")

	// ErrUnavailable marks a breaker-open, timeout, or network failure on
	// an upstream. It triggers the fallback path rather than surfacing.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrRateLimited is surfaced distinctly so callers can back off.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is the generic cache/store miss.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists rejects a duplicate pending prediction for a game.
	ErrAlreadyExists = errors.New("already exists")
)
