package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenEntropyBytes is the raw entropy behind each token value. 32 bytes
// keeps values practically unguessable and collisions out of the picture.
const tokenEntropyBytes = 32

// GenerateTokenValue returns a URL-safe opaque credential string drawn from a
// cryptographically secure source. The value carries no embedded structure.
func GenerateTokenValue() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
