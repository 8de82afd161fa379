package dto

import "time"

// SyncUserRequest carries a provider identity assertion into the bridge
type SyncUserRequest struct {
	ExternalID   string     `json:"external_id" binding:"required"`
	Email        string     `json:"email" binding:"required,email"`
	FirstName    *string    `json:"first_name"`
	LastName     *string    `json:"last_name"`
	ImageURL     *string    `json:"image_url"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
}

// IssueTokenRequest asks for a fresh bearer token
type IssueTokenRequest struct {
	ExternalID       string `json:"external_id" binding:"required"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// VerifyTokenRequest presents a bearer token for validation
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// UserResponse mirrors a reconciled user
type UserResponse struct {
	ID           string  `json:"id"`
	ExternalID   string  `json:"external_id"`
	Email        string  `json:"email"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	ImageURL     *string `json:"image_url"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	LastSignInAt *string `json:"last_sign_in_at"`
}

// TokenResponse carries an issued or fetched token with its owner
type TokenResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
}

// VerifyTokenResponse is the validation verdict for a presented token
type VerifyTokenResponse struct {
	Valid bool         `json:"valid"`
	User  UserResponse `json:"user"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
