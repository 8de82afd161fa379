package repository

import (
	"context"
	"time"

	"github.com/floodwatch/auth-bridge/internal/domain"
)

// UserRepository is the identity record store: local users keyed by the
// external subject id asserted by the identity provider.
type UserRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, assertion *domain.IdentityAssertion) (*domain.User, error)
	Update(ctx context.Context, externalID string, assertion *domain.IdentityAssertion) (*domain.User, error)
	Upsert(ctx context.Context, assertion *domain.IdentityAssertion) (*domain.User, error)
}

// TokenRepository is the token store for issued bearer credentials.
type TokenRepository interface {
	Insert(ctx context.Context, token *domain.Token) error
	CurrentValid(ctx context.Context, externalID string, now time.Time) (*domain.Token, error)
	GetByValue(ctx context.Context, value string) (*domain.Token, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
