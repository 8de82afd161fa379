package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/floodwatch/auth-bridge/internal/domain"
	"github.com/floodwatch/auth-bridge/internal/repository"
	"github.com/floodwatch/auth-bridge/internal/utils"
)

// syncService implements SyncService
type syncService struct {
	userRepo     repository.UserRepository
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewSyncService creates a new sync service. Every store call is bounded by
// storeTimeout so slow storage surfaces as a retryable timeout.
func NewSyncService(userRepo repository.UserRepository, storeTimeout time.Duration, logger *zap.Logger) SyncService {
	return &syncService{
		userRepo:     userRepo,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

// Sync reconciles an identity assertion into the user store via a single
// upsert. Issuance is deliberately not triggered here: a sync without a
// token request must leave no token behind.
func (s *syncService) Sync(ctx context.Context, assertion *domain.IdentityAssertion) (*domain.User, error) {
	if assertion.ExternalID == "" {
		return nil, fmt.Errorf("external id is required: %w", ErrValidation)
	}
	if assertion.Email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrValidation)
	}
	if !utils.ValidateEmail(assertion.Email) {
		return nil, fmt.Errorf("malformed email %q: %w", assertion.Email, ErrValidation)
	}
	assertion.Email = utils.SanitizeEmail(assertion.Email)

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.userRepo.Upsert(ctx, assertion)
	if err != nil {
		return nil, wrapStoreError("sync user", err)
	}

	s.logger.Info("user synchronized",
		zap.String("external_id", user.ExternalID),
		zap.String("user_id", user.ID),
	)

	return user, nil
}

// Lookup fetches the reconciled user for an external subject id
func (s *syncService) Lookup(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external id is required: %w", ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, wrapStoreError("lookup user", err)
	}
	return user, nil
}
