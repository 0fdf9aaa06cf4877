package session

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/jwtx"
	"golang.org/x/sync/singleflight"
)

// Provider is the subset of the identity provider the session layer calls.
// *authsdk.Client implements it.
type Provider interface {
	BuildAuthorizeURL(redirectURI, state string, scopes []string, pkce *authsdk.PKCEChallenge) string
	ExchangeAuthorizationCode(ctx context.Context, code, redirectURI, codeVerifier string) (*authsdk.TokenResponse, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*authsdk.TokenResponse, error)
}

// Recorder receives outcome labels for metrics. See internal/obs.
type Recorder interface {
	LoginOutcome(outcome string)
	RefreshOutcome(outcome string)
	GuardDecision(decision string)
}

type nopRecorder struct{}

func (nopRecorder) LoginOutcome(string)   {}
func (nopRecorder) RefreshOutcome(string) {}
func (nopRecorder) GuardDecision(string)  {}

// Manager holds what is shared across sessions: the provider, cookie
// attributes, the clock and the refresh coalescer.
type Manager struct {
	provider Provider
	cookies  CookieConfig
	rec      Recorder
	now      func() time.Time

	refreshes singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.rec = r
		}
	}
}

// NewManager creates a Manager.
func NewManager(provider Provider, cookies CookieConfig, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		cookies:  cookies.withDefaults(),
		rec:      nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the Manager's clock reading.
func (m *Manager) Now() time.Time { return m.now() }

// Cookies returns the effective cookie configuration.
func (m *Manager) Cookies() CookieConfig { return m.cookies }

// Session binds the Manager to one credential store.
func (m *Manager) Session(store credstore.Store) *Session {
	return &Session{m: m, store: store}
}

// Tokens is the credential triple.
type Tokens struct {
	Access  string
	ID      string
	Refresh string
}

// Session reads and writes one user's tokens. It is cheap to create and
// holds no state besides the store.
type Session struct {
	m     *Manager
	store credstore.Store
}

// Store returns the underlying credential store.
func (s *Session) Store() credstore.Store { return s.store }

// Tokens reads the triple. Absent entries are empty strings.
func (s *Session) Tokens(ctx context.Context) (Tokens, error) {
	var t Tokens
	var err error
	if t.Access, err = s.get(ctx, AccessTokenName); err != nil {
		return Tokens{}, err
	}
	if t.ID, err = s.get(ctx, IDTokenName); err != nil {
		return Tokens{}, err
	}
	if t.Refresh, err = s.get(ctx, RefreshTokenName); err != nil {
		return Tokens{}, err
	}
	return t, nil
}

// AccessToken returns the stored access token, or "" when absent. It does
// not check expiry.
func (s *Session) AccessToken(ctx context.Context) string {
	v, _ := s.get(ctx, AccessTokenName)
	return v
}

// IsAuthenticated reports whether a valid access token is stored now.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return IsValid(s.AccessToken(ctx), s.m.now())
}

// HasRefreshToken reports whether a refresh token is stored.
func (s *Session) HasRefreshToken(ctx context.Context) bool {
	v, _ := s.get(ctx, RefreshTokenName)
	return v != ""
}

// Claims decodes the stored ID token.
func (s *Session) Claims(ctx context.Context) (jwtx.Claims, bool) {
	v, _ := s.get(ctx, IDTokenName)
	return jwtx.Decode(v)
}

// Save persists a token response. The access and ID tokens live for
// expires_in; the refresh token is written only when present. The access
// token is written last so it never appears without its companions.
func (s *Session) Save(ctx context.Context, resp *authsdk.TokenResponse) error {
	c := s.m.cookies
	accessOpts := c.tokenOptions(c.accessTTL(resp.ExpiresIn))

	entries := []credstore.Entry{
		{Name: IDTokenName, Value: resp.IDToken, Options: accessOpts},
	}
	if resp.RefreshToken != "" {
		entries = append(entries, credstore.Entry{
			Name:    RefreshTokenName,
			Value:   resp.RefreshToken,
			Options: c.tokenOptions(c.RefreshTokenTTL),
		})
	}
	entries = append(entries, credstore.Entry{Name: AccessTokenName, Value: resp.AccessToken, Options: accessOpts})

	return credstore.SetAll(ctx, s.store, entries)
}

// Clear removes all three tokens, access first, using the same attributes
// they were written with. Every removal is attempted.
func (s *Session) Clear(ctx context.Context) error {
	opts := s.m.cookies.tokenOptions(0)
	var errs []error
	for _, name := range []string{AccessTokenName, IDTokenName, RefreshTokenName} {
		if err := s.store.Remove(ctx, name, opts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logout clears the tokens. Redirecting to the provider's sign-out
// endpoint is the caller's job.
func (s *Session) Logout(ctx context.Context) error {
	return s.Clear(ctx)
}

func (s *Session) get(ctx context.Context, name string) (string, error) {
	v, err := s.store.Get(ctx, name)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", nil
	}
	return v, err
}
