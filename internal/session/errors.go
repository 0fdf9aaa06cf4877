package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCode means the callback carried neither a code nor a provider error.
	ErrMissingCode = errors.New("session: authorization code missing from callback")

	// ErrCSRFMismatch means the callback state did not match the stored nonce,
	// or no nonce was stored.
	ErrCSRFMismatch = errors.New("session: state does not match login request")

	// ErrNoRefreshToken means a refresh was requested with no refresh token stored.
	ErrNoRefreshToken = errors.New("session: no refresh token")

	// ErrUnauthenticated is the guard's denial.
	ErrUnauthenticated = errors.New("session: not authenticated")
)

// TokenExchangeError is a failed authorization code exchange, or a failure
// the provider reported on the callback itself.
type TokenExchangeError struct {
	// Code and Description carry the provider's error and error_description
	// when it sent them.
	Code        string
	Description string
	Err         error
}

func (e *TokenExchangeError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("token exchange failed: %s: %s", e.Code, e.Description)
	case e.Code != "":
		return "token exchange failed: " + e.Code
	case e.Err != nil:
		return "token exchange failed: " + e.Err.Error()
	}
	return "token exchange failed"
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// RefreshRejectedError means the provider refused the refresh token. The
// stored tokens have been cleared.
type RefreshRejectedError struct {
	Err error
}

func (e *RefreshRejectedError) Error() string {
	return "refresh rejected: " + e.Err.Error()
}

func (e *RefreshRejectedError) Unwrap() error { return e.Err }

// TransientRefreshError means the refresh could not complete (network,
// timeout, provider 5xx). Stored tokens are unchanged and a later attempt may
// succeed.
type TransientRefreshError struct {
	Err error
}

func (e *TransientRefreshError) Error() string {
	return "refresh failed: " + e.Err.Error()
}

func (e *TransientRefreshError) Unwrap() error { return e.Err }
