package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	return mintClaims(t, jwt.MapClaims{"exp": exp.Unix(), "iat": exp.Add(-time.Hour).Unix(), "sub": "user-1"})
}

func mintClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

// fakeProvider scripts token endpoint behaviour and counts calls.
type fakeProvider struct {
	mu        sync.Mutex
	exchange  func(code, verifier string) (*authsdk.TokenResponse, error)
	refresh   func(rt string) (*authsdk.TokenResponse, error)
	exchanges atomic.Int32
	refreshes atomic.Int32
}

func (f *fakeProvider) BuildAuthorizeURL(redirectURI, state string, scopes []string, pkce *authsdk.PKCEChallenge) string {
	return authsdk.NewClient("idp.example.com", "client-1").BuildAuthorizeURL(redirectURI, state, scopes, pkce)
}

func (f *fakeProvider) ExchangeAuthorizationCode(_ context.Context, code, _, verifier string) (*authsdk.TokenResponse, error) {
	f.exchanges.Add(1)
	f.mu.Lock()
	fn := f.exchange
	f.mu.Unlock()
	return fn(code, verifier)
}

func (f *fakeProvider) RefreshGrant(_ context.Context, rt string) (*authsdk.TokenResponse, error) {
	f.refreshes.Add(1)
	f.mu.Lock()
	fn := f.refresh
	f.mu.Unlock()
	return fn(rt)
}

func (f *fakeProvider) setRefresh(fn func(rt string) (*authsdk.TokenResponse, error)) {
	f.mu.Lock()
	f.refresh = fn
	f.mu.Unlock()
}

type fixture struct {
	now      time.Time
	provider *fakeProvider
	manager  *Manager
	store    *credstore.MemoryStore
	sess     *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Unix(1_700_000_000, 0)}
	f.provider = &fakeProvider{
		exchange: func(string, string) (*authsdk.TokenResponse, error) {
			return f.tokenResponse(t, time.Hour, "refresh-1"), nil
		},
		refresh: func(string) (*authsdk.TokenResponse, error) {
			return f.tokenResponse(t, time.Hour, ""), nil
		},
	}
	f.manager = NewManager(f.provider, CookieConfig{Path: "/", HTTPOnly: true}, WithClock(func() time.Time { return f.now }))
	f.store = credstore.NewMemoryStore()
	f.store.Now = func() time.Time { return f.now }
	f.sess = f.manager.Session(f.store)
	return f
}

func (f *fixture) tokenResponse(t *testing.T, ttl time.Duration, refresh string) *authsdk.TokenResponse {
	return &authsdk.TokenResponse{
		AccessToken:  mintToken(t, f.now.Add(ttl)),
		IDToken:      mintClaims(t, jwt.MapClaims{"exp": f.now.Add(ttl).Unix(), "sub": "user-1", "email": "a@example.com"}),
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl / time.Second),
	}
}

// seed writes a triple whose access token expires after ttl.
func (f *fixture) seed(t *testing.T, ttl time.Duration) Tokens {
	t.Helper()
	resp := f.tokenResponse(t, ttl, "refresh-1")
	// Keep the cookie alive past the token's exp so expiry is the token's decision.
	resp.ExpiresIn = 86400
	require.NoError(t, f.sess.Save(context.Background(), resp))
	return Tokens{Access: resp.AccessToken, ID: resp.IDToken, Refresh: resp.RefreshToken}
}

func (f *fixture) get(t *testing.T, name string) string {
	t.Helper()
	v, err := f.store.Get(context.Background(), name)
	if err != nil {
		require.ErrorIs(t, err, credstore.ErrNotFound)
		return ""
	}
	return v
}
