package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, "test-client")
}

func TestExchangeAuthorizationCode(t *testing.T) {
	t.Parallel()

	client := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "test-client", r.PostForm.Get("client_id"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))
		require.Equal(t, "https://app.example.com/callback", r.PostForm.Get("redirect_uri"))
		require.Equal(t, "verifier", r.PostForm.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "at",
			IDToken:      "it",
			RefreshToken: "rt",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	})

	resp, err := client.ExchangeAuthorizationCode(context.Background(), "the-code", "https://app.example.com/callback", "verifier")
	require.NoError(t, err)
	require.Equal(t, "at", resp.AccessToken)
	require.Equal(t, "it", resp.IDToken)
	require.Equal(t, "rt", resp.RefreshToken)
	require.Equal(t, 3600, resp.ExpiresIn)
}

func TestRefreshGrant(t *testing.T) {
	t.Parallel()

	t.Run("success without rotation", func(t *testing.T) {
		client := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			require.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
			_, _ = w.Write([]byte(`{"access_token":"at2","id_token":"it2","expires_in":3600,"token_type":"Bearer"}`))
		})

		resp, err := client.RefreshGrant(context.Background(), "old-refresh")
		require.NoError(t, err)
		require.Equal(t, "at2", resp.AccessToken)
		require.Empty(t, resp.RefreshToken)
	})

	t.Run("invalid_grant is an OAuth2Error", func(t *testing.T) {
		client := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			ErrInvalidGrant.WriteError(w)
		})

		_, err := client.RefreshGrant(context.Background(), "revoked")

		var oauthErr *OAuth2Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, http.StatusBadRequest, oauthErr.StatusCode)
		require.Equal(t, ErrorCodeInvalidGrant, oauthErr.Code)
	})

	t.Run("non-JSON error body falls back to server_error", func(t *testing.T) {
		client := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		})

		_, err := client.RefreshGrant(context.Background(), "rt")

		var oauthErr *OAuth2Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, http.StatusBadGateway, oauthErr.StatusCode)
		require.Equal(t, ErrorCodeServerError, oauthErr.Code)
	})

	t.Run("timeout is not an OAuth2Error", func(t *testing.T) {
		client := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		client.HTTPClient.Timeout = 20 * time.Millisecond

		_, err := client.RefreshGrant(context.Background(), "rt")
		require.Error(t, err)

		var oauthErr *OAuth2Error
		require.False(t, errors.As(err, &oauthErr))
	})

	t.Run("undecodable success body", func(t *testing.T) {
		client := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})

		_, err := client.RefreshGrant(context.Background(), "rt")
		require.ErrorContains(t, err, "failed to decode response")
	})
}
