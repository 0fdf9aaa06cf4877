package authsdk

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/taskdeck/pkg/cryptox"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier is kept secret by the client, and the challenge is sent to the authorization endpoint.
type PKCEChallenge struct {
	// Verifier is the high-entropy cryptographic random string (kept secret)
	Verifier string

	// Challenge is the base64url-encoded SHA256 hash of the verifier (sent to server)
	Challenge string

	// Method is always "S256" for SHA256
	Method string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair.
// Uses cryptox.TokenSize256 (256 bits of entropy) and SHA256 hashing per RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: ChallengeS256(verifier),
		Method:    "S256",
	}, nil
}

// ChallengeS256 computes BASE64URL(SHA256(verifier)).
func ChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// BuildAuthorizeURL constructs the hosted login URL for the authorization code flow.
// The browser must perform a full navigation to it.
//
// Parameters:
//   - redirectURI: must match a callback URL registered for the app client
//   - state: opaque CSRF value echoed back on the callback
//   - scopes: requested scopes, sent space-delimited
//   - pkce: optional PKCE challenge
func (c *Client) BuildAuthorizeURL(
	redirectURI, state string,
	scopes []string,
	pkce *PKCEChallenge,
) string {
	params := url.Values{}
	params.Set("client_id", c.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", redirectURI)

	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}

	if state != "" {
		params.Set("state", state)
	}

	if pkce != nil {
		params.Set("code_challenge", pkce.Challenge)
		params.Set("code_challenge_method", pkce.Method)
	}

	return c.url(c.AuthorizePath) + "?" + params.Encode()
}

// BuildLogoutURL constructs the hosted sign-out URL. The provider clears its
// own session and redirects to logoutURI.
func (c *Client) BuildLogoutURL(logoutURI string) string {
	params := url.Values{}
	params.Set("client_id", c.ClientID)
	params.Set("logout_uri", logoutURI)

	return c.url(c.LogoutPath) + "?" + params.Encode()
}

// ExchangeAuthorizationCode exchanges an authorization code for tokens.
//
// redirectURI must equal the one used to build the authorization URL.
// codeVerifier is required only when the authorization request carried a
// PKCE challenge; pass "" otherwise.
func (c *Client) ExchangeAuthorizationCode(
	ctx context.Context,
	code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.ClientID},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}

	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, data)
}

// CallbackParams is the query the provider appends to the redirect URI.
type CallbackParams struct {
	Code  string
	State string
}

// ParseAuthorizationCallback reads the callback query. A provider-reported
// failure (error, error_description) is returned as *OAuth2Error. A missing
// code without an error yields CallbackParams with an empty Code; deciding
// what that means is up to the caller.
func ParseAuthorizationCallback(query url.Values) (*CallbackParams, error) {
	if code := query.Get("error"); code != "" {
		return nil, &OAuth2Error{
			Code:        code,
			Description: query.Get("error_description"),
		}
	}

	return &CallbackParams{
		Code:  query.Get("code"),
		State: query.Get("state"),
	}, nil
}
