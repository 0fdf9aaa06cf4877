/*
Package authsdk is a client for a Cognito-style OAuth2 identity provider's
hosted endpoints.

# Overview

The provider exposes three endpoints under one domain:

  - /login: the hosted authorization page (authorization code flow)
  - /oauth2/token: the token endpoint (authorization_code and refresh_token grants)
  - /logout: the hosted sign-out endpoint

Client covers all three. It holds no credentials of its own; callers own
storage of whatever TokenResponse it returns.

	client := authsdk.NewClient("auth.example.com", "my-client-id")

	// Send the browser to the hosted login page
	loginURL := client.BuildAuthorizeURL(redirectURI, state, []string{"openid", "email"}, nil)

	// After the redirect back, read the callback query
	cb, err := authsdk.ParseAuthorizationCallback(r.URL.Query())

	// Trade the code for tokens
	tokens, err := client.ExchangeAuthorizationCode(ctx, cb.Code, redirectURI, "")

	// Later, renew the access and ID tokens
	tokens, err = client.RefreshGrant(ctx, refreshToken)

# Errors

Non-2xx token endpoint responses are returned as *OAuth2Error carrying the
HTTP status and the provider's error/error_description fields:

	var oauthErr *authsdk.OAuth2Error
	if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidGrant {
		// the refresh token is no longer usable
	}

Transport failures (connection refused, timeouts) are returned wrapped and
never as *OAuth2Error, so callers can tell a rejected grant from a provider
that was unreachable.

# PKCE

Public clients without a backend, such as the CLI loopback login, should use
GeneratePKCEChallenge and pass the verifier to ExchangeAuthorizationCode.
*/
package authsdk
