package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of the specified byte length.
// The token is returned as a base64url-encoded string (URL-safe, no padding).
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateNonce returns a random token with a base36 timestamp suffix, e.g.
// "Zk3...Qw.m1x2y3z". The suffix only makes nonces easier to correlate in
// logs, the random part carries all of the entropy.
func GenerateNonce(now time.Time) (string, error) {
	random, err := GenerateToken(TokenSize256)
	if err != nil {
		return "", err
	}
	return random + "." + strconv.FormatInt(now.UnixMilli(), 36), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Use it wherever a token has to be remembered without keeping the token
// itself around, e.g. the set of authorization codes already redeemed.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Equal compares two secrets in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
