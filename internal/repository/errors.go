package repository

import (
	"context"
	"errors"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateExternalID is returned when creating a user whose external id already exists
	ErrDuplicateExternalID = errors.New("user with this external id already exists")

	// ErrDuplicateEmail is returned when creating or updating a user with an email that already exists
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateTokenValue is returned when inserting a token whose value collides with an existing row
	ErrDuplicateTokenValue = errors.New("token with this value already exists")

	// ErrTimeout is returned when a store call exceeds the caller-supplied deadline
	ErrTimeout = errors.New("store operation timed out")
)

// classifyTimeout converts context deadline failures into ErrTimeout so the
// service layer can tell transient errors apart from data errors.
func classifyTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return err
}
