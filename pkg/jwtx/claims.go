package jwtx

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Standard claim names read by the session layer.
const (
	ClaimExpiry   = "exp"
	ClaimIssuedAt = "iat"
	ClaimSubject  = "sub"
	ClaimScope    = "scope"
)

// Claims is a decoded token payload keyed by claim name. Values keep their
// JSON types: numbers are float64, booleans bool, strings string.
type Claims map[string]any

// Expiry returns the exp claim.
func (c Claims) Expiry() (time.Time, bool) {
	return numericDate(jwt.MapClaims(c).GetExpirationTime())
}

// IssuedAt returns the iat claim.
func (c Claims) IssuedAt() (time.Time, bool) {
	return numericDate(jwt.MapClaims(c).GetIssuedAt())
}

// Subject returns the sub claim, or "" when absent.
func (c Claims) Subject() string {
	sub, _ := jwt.MapClaims(c).GetSubject()
	return sub
}

// String returns a string claim, or "" when absent or not a string.
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Bool returns a boolean claim. Cognito encodes some flags (for example
// email_verified) as the strings "true"/"false", which are also accepted.
func (c Claims) Bool(name string) bool {
	switch v := c[name].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Scopes splits the space-delimited scope claim.
func (c Claims) Scopes() []string {
	return strings.Fields(c.String(ClaimScope))
}

// Audience returns the aud claim normalised to a slice.
func (c Claims) Audience() []string {
	aud, err := jwt.MapClaims(c).GetAudience()
	if err != nil {
		return nil
	}
	return aud
}

func numericDate(d *jwt.NumericDate, err error) (time.Time, bool) {
	if err != nil || d == nil {
		return time.Time{}, false
	}
	return d.Time, true
}
