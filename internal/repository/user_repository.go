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

const userColumns = `id, external_id, email, first_name, last_name, image_url, created_at, updated_at, last_sign_in_at`

// userRepository implements UserRepository on Postgres
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// GetByExternalID retrieves a user by the provider-asserted subject id
func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE external_id = $1`, userColumns)
	return r.queryUser(ctx, query, externalID)
}

// GetByID retrieves a user by its local id
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.queryUser(ctx, query, id)
}

// Create inserts a new user row for a previously unseen external id
func (r *userRepository) Create(ctx context.Context, assertion *domain.IdentityAssertion) (*domain.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (id, external_id, email, first_name, last_name, image_url, created_at, updated_at, last_sign_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		RETURNING %s
	`, userColumns)

	now := time.Now().UTC()
	row := r.db.DB.QueryRowContext(ctx, query,
		uuid.New().String(),
		assertion.ExternalID,
		assertion.Email,
		assertion.FirstName,
		assertion.LastName,
		assertion.ImageURL,
		now,
		nullableTime(assertion.LastSignInAt),
	)

	user, err := scanUser(row)
	if err != nil {
		if mapped := mapUserConflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create user: %w", classifyTimeout(err))
	}

	return user, nil
}

// Update overwrites the profile mirror fields of an existing user.
// The local id, external id and created_at are never touched.
func (r *userRepository) Update(ctx context.Context, externalID string, assertion *domain.IdentityAssertion) (*domain.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, image_url = $5, updated_at = $6, last_sign_in_at = $7
		WHERE external_id = $1
		RETURNING %s
	`, userColumns)

	row := r.db.DB.QueryRowContext(ctx, query,
		externalID,
		assertion.Email,
		assertion.FirstName,
		assertion.LastName,
		assertion.ImageURL,
		time.Now().UTC(),
		nullableTime(assertion.LastSignInAt),
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with external id %s not found: %w", externalID, ErrNotFound)
		}
		if mapped := mapUserConflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update user: %w", classifyTimeout(err))
	}

	return user, nil
}

// Upsert creates or updates the row for an external id in a single statement.
// Concurrent calls for the same external id cannot interleave field sets: the
// final row always reflects exactly one caller's assertion.
func (r *userRepository) Upsert(ctx context.Context, assertion *domain.IdentityAssertion) (*domain.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (id, external_id, email, first_name, last_name, image_url, created_at, updated_at, last_sign_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			email           = EXCLUDED.email,
			first_name      = EXCLUDED.first_name,
			last_name       = EXCLUDED.last_name,
			image_url       = EXCLUDED.image_url,
			updated_at      = EXCLUDED.updated_at,
			last_sign_in_at = EXCLUDED.last_sign_in_at
		RETURNING %s
	`, userColumns)

	now := time.Now().UTC()
	row := r.db.DB.QueryRowContext(ctx, query,
		uuid.New().String(),
		assertion.ExternalID,
		assertion.Email,
		assertion.FirstName,
		assertion.LastName,
		assertion.ImageURL,
		now,
		nullableTime(assertion.LastSignInAt),
	)

	user, err := scanUser(row)
	if err != nil {
		if mapped := mapUserConflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to upsert user: %w", classifyTimeout(err))
	}

	return user, nil
}

func (r *userRepository) queryUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", classifyTimeout(err))
	}
	return user, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var firstName, lastName, imageURL sql.NullString
	var lastSignInAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.ExternalID,
		&user.Email,
		&firstName,
		&lastName,
		&imageURL,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastSignInAt,
	)
	if err != nil {
		return nil, err
	}

	if firstName.Valid {
		user.FirstName = &firstName.String
	}
	if lastName.Valid {
		user.LastName = &lastName.String
	}
	if imageURL.Valid {
		user.ImageURL = &imageURL.String
	}
	if lastSignInAt.Valid {
		t := lastSignInAt.Time
		user.LastSignInAt = &t
	}

	return user, nil
}

// mapUserConflict translates a pq unique violation into the matching sentinel,
// or returns nil if the error is not a unique violation.
func mapUserConflict(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	if pqErr.Constraint == "users_email_key" {
		return fmt.Errorf("email already taken: %w", ErrDuplicateEmail)
	}
	return fmt.Errorf("external id already registered: %w", ErrDuplicateExternalID)
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
