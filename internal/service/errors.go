package service

import (
	"errors"
	"fmt"

	"github.com/floodwatch/auth-bridge/internal/repository"
)

// Bridge error taxonomy. Every store failure is translated into one of these
// before it crosses the service boundary; callers never see raw storage errors.
var (
	// ErrValidation marks malformed or missing required input. Caller bug, not retried.
	ErrValidation = errors.New("invalid input")

	// ErrConflict marks a uniqueness violation. Caller should re-read and retry with corrected input.
	ErrConflict = errors.New("conflicting record exists")

	// ErrNotFound marks a referenced entity that does not exist. Never silently created.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidToken marks a credential that was never issued.
	ErrInvalidToken = errors.New("token is invalid")

	// ErrExpiredToken marks a credential that existed but is past its expiry.
	// Kept distinct from ErrInvalidToken so callers can say "session expired"
	// instead of "please sign in again".
	ErrExpiredToken = errors.New("token is expired")

	// ErrIntegrity marks a broken internal invariant. Fatal to the request, logged.
	ErrIntegrity = errors.New("internal integrity violation")

	// ErrTimeout marks a transient store failure. Safe to retry with backoff.
	ErrTimeout = errors.New("operation timed out")
)

// wrapStoreError maps repository sentinels onto the bridge taxonomy.
func wrapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrTimeout):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateEmail),
		errors.Is(err, repository.ErrDuplicateExternalID):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrIntegrity, err)
	}
}
