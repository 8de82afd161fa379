package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/floodwatch/auth-bridge/internal/domain"
	"github.com/floodwatch/auth-bridge/internal/repository"
	"github.com/floodwatch/auth-bridge/internal/utils"
)

// insertRetries bounds issuance retries on a token value collision. With
// 256-bit values a single collision is already practically impossible.
const insertRetries = 3

// TTLPolicy clamps caller-requested token lifetimes.
type TTLPolicy struct {
	Default time.Duration
	Max     time.Duration
}

// Clamp resolves a requested TTL in minutes against the policy. Non-positive
// means "not requested" and falls back to the default.
func (p TTLPolicy) Clamp(requestedMinutes int) time.Duration {
	if requestedMinutes <= 0 {
		return p.Default
	}
	ttl := time.Duration(requestedMinutes) * time.Minute
	if ttl > p.Max {
		return p.Max
	}
	return ttl
}

// tokenService implements TokenService
type tokenService struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.TokenRepository
	ttl          TTLPolicy
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewTokenService creates a new token service. Every store call is bounded by
// storeTimeout so slow storage surfaces as a retryable timeout.
func NewTokenService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	ttl TTLPolicy,
	storeTimeout time.Duration,
	logger *zap.Logger,
) TokenService {
	return &tokenService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		ttl:          ttl,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

// Issue mints a new bearer token for an already-synced user. The caller must
// sync first; an unknown external id fails with ErrNotFound rather than
// auto-syncing, keeping reconciliation and issuance independently auditable.
func (s *tokenService) Issue(ctx context.Context, externalID string, requestedTTLMinutes int) (*domain.IssuedToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, wrapStoreError("resolve user", err)
	}

	now := time.Now().UTC()

	// Best-effort housekeeping before adding a row; a failed sweep never
	// aborts issuance.
	if count, err := s.tokenRepo.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn("expired token sweep failed", zap.Error(err))
	} else if count > 0 {
		s.logger.Debug("swept expired tokens", zap.Int64("count", count))
	}

	expiresAt := now.Add(s.ttl.Clamp(requestedTTLMinutes))

	var token *domain.Token
	for attempt := 0; ; attempt++ {
		value, err := utils.GenerateTokenValue()
		if err != nil {
			return nil, fmt.Errorf("generate token value: %w: %v", ErrIntegrity, err)
		}

		token = &domain.Token{
			UserID:     user.ID,
			ExternalID: user.ExternalID,
			Value:      value,
			ExpiresAt:  expiresAt,
			CreatedAt:  now,
		}

		err = s.tokenRepo.Insert(ctx, token)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateTokenValue) && attempt < insertRetries {
			s.logger.Warn("token value collision, regenerating", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, wrapStoreError("insert token", err)
	}

	s.logger.Info("token issued",
		zap.String("external_id", user.ExternalID),
		zap.Time("expires_at", expiresAt),
	)

	return &domain.IssuedToken{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetCurrent returns the most recently created, not-yet-expired token for the
// user, letting callers reuse a still-good credential before minting a new one.
func (s *tokenService) GetCurrent(ctx context.Context, externalID string) (*domain.IssuedToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, wrapStoreError("resolve user", err)
	}

	token, err := s.tokenRepo.CurrentValid(ctx, externalID, time.Now().UTC())
	if err != nil {
		return nil, wrapStoreError("get current token", err)
	}

	return &domain.IssuedToken{User: user, Token: token, ExpiresAt: token.ExpiresAt}, nil
}

// Validate answers whether a presented value is a live credential and for
// whom. It distinguishes "never issued" from "issued but expired" and never
// mutates token state.
func (s *tokenService) Validate(ctx context.Context, value string) (*domain.IssuedToken, error) {
	if value == "" {
		return nil, fmt.Errorf("empty token value: %w", ErrInvalidToken)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	token, err := s.tokenRepo.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("unknown token: %w", ErrInvalidToken)
		}
		return nil, wrapStoreError("lookup token", err)
	}

	if token.IsExpired(time.Now().UTC()) {
		return nil, fmt.Errorf("token expired at %s: %w", token.ExpiresAt.Format(time.RFC3339), ErrExpiredToken)
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Tokens are never reassigned and users never deleted, so a
			// missing owner is a broken invariant, not a caller mistake.
			s.logger.Error("valid token references missing user",
				zap.String("token_id", token.ID),
				zap.String("user_id", token.UserID),
			)
			return nil, fmt.Errorf("token owner missing: %w", ErrIntegrity)
		}
		return nil, wrapStoreError("resolve token owner", err)
	}

	return &domain.IssuedToken{User: user, Token: token, ExpiresAt: token.ExpiresAt}, nil
}
