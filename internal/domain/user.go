package domain

import "time"

// User is the local mirror of an identity asserted by the external provider.
// ExternalID is the reconciliation key and never changes after creation.
type User struct {
	ID           string     `json:"id" db:"id"`
	ExternalID   string     `json:"external_id" db:"external_id"`
	Email        string     `json:"email" db:"email"`
	FirstName    *string    `json:"first_name" db:"first_name"`
	LastName     *string    `json:"last_name" db:"last_name"`
	ImageURL     *string    `json:"image_url" db:"image_url"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at" db:"last_sign_in_at"`
}

// IdentityAssertion is the provider-asserted identity consumed by Sync.
// The bridge trusts that the caller has already authenticated the subject.
type IdentityAssertion struct {
	ExternalID   string
	Email        string
	FirstName    *string
	LastName     *string
	ImageURL     *string
	LastSignInAt *time.Time
}
