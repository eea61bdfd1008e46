package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 64

// GenerateRefreshToken returns a high-entropy opaque token string.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
