package service

import (
	"context"

	"github.com/floodwatch/auth-bridge/internal/domain"
)

// SyncService reconciles provider-asserted identities into local user records.
type SyncService interface {
	Sync(ctx context.Context, assertion *domain.IdentityAssertion) (*domain.User, error)

	// Lookup fetches the already-reconciled user for an external subject id,
	// failing with ErrNotFound when no sync has happened yet.
	Lookup(ctx context.Context, externalID string) (*domain.User, error)
}

// TokenService issues, fetches and validates the bridge's bearer tokens.
type TokenService interface {
	// Issue mints a fresh token for the user behind externalID. A non-positive
	// requestedTTLMinutes means "use the default"; requests above the maximum
	// are clamped, not rejected.
	Issue(ctx context.Context, externalID string, requestedTTLMinutes int) (*domain.IssuedToken, error)

	// GetCurrent returns the newest still-valid token for the user, without
	// ever creating one.
	GetCurrent(ctx context.Context, externalID string) (*domain.IssuedToken, error)

	// Validate resolves a presented token value to its owning user, or fails
	// with ErrInvalidToken / ErrExpiredToken. Read-only; no touch semantics.
	Validate(ctx context.Context, value string) (*domain.IssuedToken, error)
}
