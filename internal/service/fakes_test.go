package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/floodwatch/auth-bridge/internal/domain"
	"github.com/floodwatch/auth-bridge/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu         sync.Mutex
	byExternal map[string]*domain.User
	forcedErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byExternal: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	user, ok := f.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, user := range f.byExternal {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
}

func (f *fakeUserRepo) Create(_ context.Context, assertion *domain.IdentityAssertion) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createLocked(assertion)
}

func (f *fakeUserRepo) Update(_ context.Context, externalID string, assertion *domain.IdentityAssertion) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	return f.updateLocked(existing, assertion)
}

func (f *fakeUserRepo) Upsert(_ context.Context, assertion *domain.IdentityAssertion) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	if existing, ok := f.byExternal[assertion.ExternalID]; ok {
		return f.updateLocked(existing, assertion)
	}
	return f.createLocked(assertion)
}

func (f *fakeUserRepo) createLocked(assertion *domain.IdentityAssertion) (*domain.User, error) {
	for _, user := range f.byExternal {
		if user.Email == assertion.Email {
			return nil, fmt.Errorf("email taken: %w", repository.ErrDuplicateEmail)
		}
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		ExternalID:   assertion.ExternalID,
		Email:        assertion.Email,
		FirstName:    assertion.FirstName,
		LastName:     assertion.LastName,
		ImageURL:     assertion.ImageURL,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSignInAt: assertion.LastSignInAt,
	}
	f.byExternal[user.ExternalID] = user
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) updateLocked(existing *domain.User, assertion *domain.IdentityAssertion) (*domain.User, error) {
	for _, user := range f.byExternal {
		if user.ExternalID != existing.ExternalID && user.Email == assertion.Email {
			return nil, fmt.Errorf("email taken: %w", repository.ErrDuplicateEmail)
		}
	}
	existing.Email = assertion.Email
	existing.FirstName = assertion.FirstName
	existing.LastName = assertion.LastName
	existing.ImageURL = assertion.ImageURL
	existing.LastSignInAt = assertion.LastSignInAt
	existing.UpdatedAt = time.Now().UTC()
	copied := *existing
	return &copied, nil
}

// fakeTokenRepo is an in-memory TokenRepository for service tests.
type fakeTokenRepo struct {
	mu            sync.Mutex
	byValue       map[string]*domain.Token
	insertErr     error
	duplicateOnce bool
	sweepErr      error
	lookupErr     error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byValue: make(map[string]*domain.Token)}
}

func (f *fakeTokenRepo) Insert(_ context.Context, token *domain.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.duplicateOnce {
		f.duplicateOnce = false
		return fmt.Errorf("collision: %w", repository.ErrDuplicateTokenValue)
	}
	if _, exists := f.byValue[token.Value]; exists {
		return fmt.Errorf("collision: %w", repository.ErrDuplicateTokenValue)
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	copied := *token
	f.byValue[token.Value] = &copied
	return nil
}

func (f *fakeTokenRepo) CurrentValid(_ context.Context, externalID string, now time.Time) (*domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *domain.Token
	for _, token := range f.byValue {
		if token.ExternalID != externalID || !token.ExpiresAt.After(now) {
			continue
		}
		if newest == nil || token.CreatedAt.After(newest.CreatedAt) {
			newest = token
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("no valid token: %w", repository.ErrNotFound)
	}
	copied := *newest
	return &copied, nil
}

func (f *fakeTokenRepo) GetByValue(_ context.Context, value string) (*domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	token, ok := f.byValue[value]
	if !ok {
		return nil, fmt.Errorf("token not found: %w", repository.ErrNotFound)
	}
	copied := *token
	return &copied, nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sweepErr != nil {
		return 0, f.sweepErr
	}
	var count int64
	for value, token := range f.byValue {
		if !token.ExpiresAt.After(now) {
			delete(f.byValue, value)
			count++
		}
	}
	return count, nil
}

// age rewrites a stored token's expiry, simulating the passage of time.
func (f *fakeTokenRepo) age(value string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token, ok := f.byValue[value]; ok {
		token.ExpiresAt = expiresAt
	}
}
