// Package mockidp is a development identity provider speaking the hosted
// UI subset the gateway uses: an auto-approving /login, a token endpoint
// for the authorization_code and refresh_token grants, and /logout.
//
// Tokens are HS256 JWTs signed with a random key. Nothing about this
// package is suitable for production.
package mockidp

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/cryptox"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = time.Hour
	DefaultCodeTTL  = 5 * time.Minute
)

// User is the identity every login resolves to.
type User struct {
	Subject    string
	Username   string
	Email      string
	GivenName  string
	FamilyName string
}

// DefaultUser is used when Config.User is empty.
var DefaultUser = User{
	Subject:    "3f1c2a9e-7b4d-4e0a-9c39-2d8f6b1e5a70",
	Username:   "demo",
	Email:      "demo@taskdeck.local",
	GivenName:  "Demo",
	FamilyName: "User",
}

type Config struct {
	ClientID string
	Issuer   string
	User     User
	TokenTTL time.Duration

	// RotateRefresh returns a new refresh token on every refresh grant.
	RotateRefresh bool
}

type authCode struct {
	redirectURI string
	challenge   string
	scope       string
	expiresAt   time.Time
}

// Provider is an in-memory identity provider. It implements http.Handler.
type Provider struct {
	cfg Config
	key []byte
	mux *http.ServeMux

	// Now is the clock used for codes and token claims.
	Now func() time.Time

	mu      sync.Mutex
	codes   map[string]authCode // fingerprint -> code
	refresh map[string]string   // fingerprint -> scope
}

// New creates a Provider with a fresh signing key.
func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("mockidp: client id is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "taskdeck-mock-idp"
	}
	if cfg.User == (User{}) {
		cfg.User = DefaultUser
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	key, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:     cfg,
		key:     []byte(key),
		mux:     http.NewServeMux(),
		Now:     time.Now,
		codes:   make(map[string]authCode),
		refresh: make(map[string]string),
	}

	p.mux.HandleFunc("GET "+authsdk.DefaultAuthorizePath, p.handleAuthorize)
	p.mux.HandleFunc("POST "+authsdk.DefaultTokenPath, p.handleToken)
	p.mux.HandleFunc("GET "+authsdk.DefaultLogoutPath, p.handleLogout)
	return p, nil
}

func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

// Key returns the HS256 signing key, for tests that verify minted tokens.
func (p *Provider) Key() []byte { return p.key }

// RevokeRefreshTokens forgets every issued refresh token, so later refresh
// grants fail with invalid_grant.
func (p *Provider) RevokeRefreshTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.refresh)
}

func (p *Provider) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("client_id") != p.cfg.ClientID {
		authsdk.ErrInvalidClient.WriteError(w)
		return
	}
	if q.Get("response_type") != "code" {
		authsdk.ErrUnsupportedResponseType.WriteError(w)
		return
	}

	redirectURI := q.Get("redirect_uri")
	target, err := url.Parse(redirectURI)
	if redirectURI == "" || err != nil || !target.IsAbs() {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "redirect_uri must be an absolute URL").WriteError(w)
		return
	}

	challenge := q.Get("code_challenge")
	if challenge != "" && q.Get("code_challenge_method") != "S256" {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "only S256 code challenges are supported").WriteError(w)
		return
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		authsdk.NewOAuth2Error(http.StatusInternalServerError, authsdk.ErrorCodeServerError, "failed to issue code").WriteError(w)
		return
	}

	p.mu.Lock()
	p.codes[cryptox.FingerprintToken(code)] = authCode{
		redirectURI: redirectURI,
		challenge:   challenge,
		scope:       q.Get("scope"),
		expiresAt:   p.Now().Add(DefaultCodeTTL),
	}
	p.mu.Unlock()

	back := target.Query()
	back.Set("code", code)
	if state := q.Get("state"); state != "" {
		back.Set("state", state)
	}
	target.RawQuery = back.Encode()

	slogx.FromContext(r.Context()).Info("mock login approved", "user", p.cfg.User.Username)
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "content type must be application/x-www-form-urlencoded").WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if r.Form.Get("client_id") != p.cfg.ClientID {
		authsdk.ErrInvalidClient.WriteError(w)
		return
	}

	switch r.Form.Get("grant_type") {
	case "authorization_code":
		p.handleAuthorizationCodeGrant(w, r.Form)
	case "refresh_token":
		p.handleRefreshGrant(w, r.Form)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (p *Provider) handleAuthorizationCodeGrant(w http.ResponseWriter, form url.Values) {
	code := form.Get("code")
	if code == "" {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "code is required").WriteError(w)
		return
	}

	// Codes are single use whether or not the exchange succeeds.
	p.mu.Lock()
	key := cryptox.FingerprintToken(code)
	rec, ok := p.codes[key]
	delete(p.codes, key)
	p.mu.Unlock()

	if !ok || !p.Now().Before(rec.expiresAt) {
		authsdk.ErrInvalidGrant.WriteError(w)
		return
	}
	if form.Get("redirect_uri") != rec.redirectURI {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant, "redirect_uri mismatch").WriteError(w)
		return
	}
	if rec.challenge != "" && !cryptox.Equal(authsdk.ChallengeS256(form.Get("code_verifier")), rec.challenge) {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant, "code_verifier mismatch").WriteError(w)
		return
	}

	p.issue(w, rec.scope, true)
}

func (p *Provider) handleRefreshGrant(w http.ResponseWriter, form url.Values) {
	token := form.Get("refresh_token")
	if token == "" {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "refresh_token is required").WriteError(w)
		return
	}

	p.mu.Lock()
	key := cryptox.FingerprintToken(token)
	scope, ok := p.refresh[key]
	if ok && p.cfg.RotateRefresh {
		delete(p.refresh, key)
	}
	p.mu.Unlock()

	if !ok {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant, "refresh token is invalid or revoked").WriteError(w)
		return
	}

	p.issue(w, scope, p.cfg.RotateRefresh)
}

func (p *Provider) issue(w http.ResponseWriter, scope string, withRefresh bool) {
	resp, err := p.mintTokens(scope, withRefresh)
	if err != nil {
		authsdk.NewOAuth2Error(http.StatusInternalServerError, authsdk.ErrorCodeServerError, "failed to mint tokens").WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (p *Provider) mintTokens(scope string, withRefresh bool) (*authsdk.TokenResponse, error) {
	now := p.Now()
	exp := now.Add(p.cfg.TokenTTL)
	u := p.cfg.User

	access, err := p.sign(jwt.MapClaims{
		"iss":       p.cfg.Issuer,
		"sub":       u.Subject,
		"client_id": p.cfg.ClientID,
		"token_use": "access",
		"scope":     scope,
		"username":  u.Username,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	})
	if err != nil {
		return nil, err
	}

	id, err := p.sign(jwt.MapClaims{
		"iss":              p.cfg.Issuer,
		"sub":              u.Subject,
		"aud":              p.cfg.ClientID,
		"token_use":        "id",
		"cognito:username": u.Username,
		"email":            u.Email,
		"email_verified":   true,
		"given_name":       u.GivenName,
		"family_name":      u.FamilyName,
		"iat":              now.Unix(),
		"exp":              exp.Unix(),
	})
	if err != nil {
		return nil, err
	}

	resp := &authsdk.TokenResponse{
		AccessToken: access,
		IDToken:     id,
		TokenType:   "Bearer",
		ExpiresIn:   int(p.cfg.TokenTTL / time.Second),
	}

	if withRefresh {
		refresh, err := cryptox.GenerateToken(48)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.refresh[cryptox.FingerprintToken(refresh)] = scope
		p.mu.Unlock()
		resp.RefreshToken = refresh
	}

	return resp, nil
}

func (p *Provider) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
}

func (p *Provider) handleLogout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") != p.cfg.ClientID {
		authsdk.ErrInvalidClient.WriteError(w)
		return
	}

	dest, err := url.Parse(q.Get("logout_uri"))
	if err != nil || !dest.IsAbs() {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "logout_uri must be an absolute URL").WriteError(w)
		return
	}

	http.Redirect(w, r, dest.String(), http.StatusFound)
}
