package authsdk

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// This is used internally for parsing HTTP error responses.
// Client code should use the OAuth2Error type from errors.go instead.
type ErrorResponse struct {
	// Error is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// TokenResponse represents the token endpoint response for both the
// authorization_code and refresh_token grants.
type TokenResponse struct {
	// AccessToken authorizes calls to the task API
	AccessToken string `json:"access_token"`

	// IDToken carries the user's identity claims
	IDToken string `json:"id_token"`

	// RefreshToken is present on the initial exchange and, optionally, when rotated
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access and ID tokens
	ExpiresIn int `json:"expires_in"`
}
