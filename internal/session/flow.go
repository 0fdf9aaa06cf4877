package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/cryptox"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

// DefaultScopes is requested when FlowConfig.Scopes is empty.
var DefaultScopes = []string{"email", "openid", "profile", "aws.cognito.signin.user.admin"}

// FlowConfig configures the authorization code flow.
type FlowConfig struct {
	// RedirectURI is the registered callback URL.
	RedirectURI string
	Scopes      []string

	// UsePKCE adds an S256 challenge to the login redirect and sends the
	// verifier on exchange.
	UsePKCE bool

	// Processed remembers handled codes; nil creates a private set.
	Processed *ProcessedCodes
}

// Flow drives login: BeginLogin sends the user to the provider, and
// HandleCallback completes the exchange when they come back.
type Flow struct {
	m         *Manager
	cfg       FlowConfig
	processed *ProcessedCodes
}

// NewFlow creates a Flow.
func NewFlow(m *Manager, cfg FlowConfig) *Flow {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	processed := cfg.Processed
	if processed == nil {
		processed = NewProcessedCodes(0)
	}
	return &Flow{m: m, cfg: cfg, processed: processed}
}

// Processed exposes the handled-code set for housekeeping.
func (f *Flow) Processed() *ProcessedCodes { return f.processed }

// BeginLogin stores a fresh nonce, replacing any earlier one, remembers
// returnTo when it is a local path, and returns the provider URL to navigate to.
func (f *Flow) BeginLogin(ctx context.Context, store credstore.Store, returnTo string) (string, error) {
	nonce, err := cryptox.GenerateNonce(f.m.now())
	if err != nil {
		return "", err
	}
	if err := f.m.putFlowValue(ctx, store, NonceName, nonce); err != nil {
		return "", fmt.Errorf("failed to store login nonce: %w", err)
	}

	if dest := SanitizeReturnTo(returnTo); dest != "" {
		if err := f.m.putFlowValue(ctx, store, ReturnToName, dest); err != nil {
			return "", fmt.Errorf("failed to store return path: %w", err)
		}
	}

	var pkce *authsdk.PKCEChallenge
	if f.cfg.UsePKCE {
		if pkce, err = authsdk.GeneratePKCEChallenge(); err != nil {
			return "", err
		}
		if err := f.m.putFlowValue(ctx, store, VerifierName, pkce.Verifier); err != nil {
			return "", fmt.Errorf("failed to store code verifier: %w", err)
		}
	}

	return f.m.provider.BuildAuthorizeURL(f.cfg.RedirectURI, nonce, f.cfg.Scopes, pkce), nil
}

// Result is the outcome of a successful HandleCallback.
type Result struct {
	// Duplicate is set when the code was already handled; nothing was done.
	Duplicate bool

	// Destination is the local path to navigate to next.
	Destination string
}

// HandleCallback validates the provider redirect and exchanges the code.
//
// The nonce is consumed before any network call and whatever the outcome.
// A code seen before is a no-op, as is a callback without a code once the
// session is signed in. On success the token triple is stored in
// sess.
func (f *Flow) HandleCallback(ctx context.Context, sess *Session, store credstore.Store, query url.Values) (Result, error) {
	log := slogx.FromContext(ctx)

	cb, err := authsdk.ParseAuthorizationCallback(query)
	if err != nil {
		var oauthErr *authsdk.OAuth2Error
		if errors.As(err, &oauthErr) {
			f.m.rec.LoginOutcome("provider_error")
			return Result{}, &TokenExchangeError{Code: oauthErr.Code, Description: oauthErr.Description, Err: err}
		}
		return Result{}, err
	}

	if cb.Code == "" {
		// A revisited callback after a completed login carries no code.
		if sess.IsAuthenticated(ctx) {
			log.Info("callback without code on a signed-in session")
			f.m.rec.LoginOutcome("duplicate")
			return Result{Duplicate: true, Destination: f.destination(ctx, store)}, nil
		}
		f.m.rec.LoginOutcome("missing_code")
		return Result{}, ErrMissingCode
	}

	if !f.processed.Mark(cb.Code, f.m.now()) {
		log.Info("authorization code already handled")
		f.m.rec.LoginOutcome("duplicate")
		return Result{Duplicate: true, Destination: f.destination(ctx, store)}, nil
	}

	nonce, err := f.m.takeFlowValue(ctx, store, NonceName)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read login nonce: %w", err)
	}
	if nonce == "" || !cryptox.Equal(nonce, cb.State) {
		log.Warn("login state mismatch", "nonce_present", nonce != "")
		f.m.rec.LoginOutcome("csrf_mismatch")
		return Result{}, ErrCSRFMismatch
	}

	var verifier string
	if f.cfg.UsePKCE {
		if verifier, err = f.m.takeFlowValue(ctx, store, VerifierName); err != nil {
			return Result{}, fmt.Errorf("failed to read code verifier: %w", err)
		}
	}

	resp, err := f.m.provider.ExchangeAuthorizationCode(ctx, cb.Code, f.cfg.RedirectURI, verifier)
	if err != nil {
		log.Warn("authorization code exchange failed", "error", err)
		f.m.rec.LoginOutcome("exchange_failed")
		exErr := &TokenExchangeError{Err: err}
		var oauthErr *authsdk.OAuth2Error
		if errors.As(err, &oauthErr) {
			exErr.Code, exErr.Description = oauthErr.Code, oauthErr.Description
		}
		return Result{}, exErr
	}
	if resp.AccessToken == "" {
		f.m.rec.LoginOutcome("exchange_failed")
		return Result{}, &TokenExchangeError{Err: errors.New("token response carried no access token")}
	}

	if err := sess.Save(ctx, resp); err != nil {
		return Result{}, fmt.Errorf("failed to store tokens: %w", err)
	}

	f.m.rec.LoginOutcome("success")
	log.Info("login completed")
	return Result{Destination: f.destination(ctx, store)}, nil
}

// destination consumes the stored return path.
func (f *Flow) destination(ctx context.Context, store credstore.Store) string {
	dest, err := f.m.takeFlowValue(ctx, store, ReturnToName)
	if err != nil {
		return DefaultDestination
	}
	if dest = SanitizeReturnTo(dest); dest == "" {
		return DefaultDestination
	}
	return dest
}
