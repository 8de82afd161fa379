package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/floodwatch/auth-bridge/internal/domain"
	"github.com/floodwatch/auth-bridge/pkg/database"
)

const tokenColumns = `id, user_id, external_id, value, expires_at, created_at`

// tokenRepository implements TokenRepository on Postgres
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

// Insert stores a newly issued token. A value collision surfaces as
// ErrDuplicateTokenValue; the issuer retries with a fresh value.
func (r *tokenRepository) Insert(ctx context.Context, token *domain.Token) error {
	query := `
		INSERT INTO user_tokens (id, user_id, external_id, value, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.ExternalID,
		token.Value,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("token value collision: %w", ErrDuplicateTokenValue)
		}
		return fmt.Errorf("failed to insert token: %w", classifyTimeout(err))
	}

	return nil
}

// CurrentValid returns the newest not-yet-expired token for an external
// identity, or ErrNotFound if every row is dead.
func (r *tokenRepository) CurrentValid(ctx context.Context, externalID string, now time.Time) (*domain.Token, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM user_tokens
		WHERE external_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, tokenColumns)

	token, err := scanToken(r.db.DB.QueryRowContext(ctx, query, externalID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no valid token for external id %s: %w", externalID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get current token: %w", classifyTimeout(err))
	}

	return token, nil
}

// GetByValue looks up a token by its opaque value through the unique index.
// Expired rows are returned too; validity is the caller's call, which lets it
// distinguish a token that never existed from one that merely expired.
func (r *tokenRepository) GetByValue(ctx context.Context, value string) (*domain.Token, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_tokens WHERE value = $1`, tokenColumns)

	token, err := scanToken(r.db.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by value: %w", classifyTimeout(err))
	}

	return token, nil
}

// DeleteExpired removes all rows dead at the given instant and reports how
// many were swept. Safe concurrently with issuance: expired rows never
// transition back to valid.
func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM user_tokens WHERE expires_at <= $1`

	result, err := r.db.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", classifyTimeout(err))
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

func scanToken(row *sql.Row) (*domain.Token, error) {
	token := &domain.Token{}
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.ExternalID,
		&token.Value,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}
