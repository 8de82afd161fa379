package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProviderVerifier checks session JWTs minted by the external identity
// provider and extracts the asserted subject id. The bridge never mints
// these tokens itself.
type ProviderVerifier struct {
	secret []byte
}

// NewProviderVerifier creates a verifier for the provider's signing secret
func NewProviderVerifier(secret string) *ProviderVerifier {
	return &ProviderVerifier{secret: []byte(secret)}
}

// VerifySessionToken validates a provider session JWT and returns the
// external subject id from its sub claim.
func (v *ProviderVerifier) VerifySessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid session token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("missing subject in session token")
	}

	if exp, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return "", fmt.Errorf("session token is expired")
		}
	}

	return sub, nil
}
