package domain

import "time"

// Token is one issued bearer credential. Rows are never updated; a token is
// either valid (expires_at in the future) or logically dead.
type Token struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Value      string    `json:"-" db:"value"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the token is dead at the given instant.
// A token is invalid at or after its expiry, not just after.
func (t Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IssuedToken pairs a token with its owning user, as returned by
// issuance and lookup operations.
type IssuedToken struct {
	User      *User
	Token     *Token
	ExpiresAt time.Time
}
