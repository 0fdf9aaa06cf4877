package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode reads the payload of a compact JWS without verifying its signature.
//
// The result is only fit for client-side decisions (expiry, display claims);
// the resource server remains the authority on whether a token is genuine.
// Decode reports false for anything it cannot read, including tokens that
// lack a numeric exp claim, and never panics on malformed input.
func Decode(token string) (Claims, bool) {
	if token == "" {
		return nil, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}

	c := Claims(claims)
	if _, ok := c.Expiry(); !ok {
		return nil, false
	}
	return c, true
}

// Expiry decodes token and returns only its exp claim.
func Expiry(token string) (int64, bool) {
	c, ok := Decode(token)
	if !ok {
		return 0, false
	}
	exp, _ := c.Expiry()
	return exp.Unix(), true
}
