// Package codes generates and fingerprints random bearer secrets.
package codes

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidLength = errors.New("invalid code length")

// APITokenByteLength yields a 64 character hex token.
const APITokenByteLength = 32

// GenerateSecureToken returns byteLength random bytes, hex encoded
// (twice byteLength characters, lowercase).
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SHA256Hex is the lowercase hex SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// IsLowerHex reports whether s is exactly n lowercase hex characters.
func IsLowerHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
