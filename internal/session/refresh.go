package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/cryptox"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

// Refresh trades the stored refresh token for new access and ID tokens.
//
// A provider rejection (HTTP 400 or 401) clears all three tokens and returns
// *RefreshRejectedError. Any other failure leaves the store untouched and
// returns *TransientRefreshError. The refresh token is replaced only when
// the provider returns a new one.
//
// Concurrent refreshes of the same refresh token share one provider call;
// each caller then writes the shared result into its own store.
func (s *Session) Refresh(ctx context.Context) error {
	log := slogx.FromContext(ctx)

	rt, err := s.get(ctx, RefreshTokenName)
	if err != nil {
		return &TransientRefreshError{Err: err}
	}
	if rt == "" {
		s.m.rec.RefreshOutcome("no_refresh_token")
		return ErrNoRefreshToken
	}

	v, err, shared := s.m.refreshes.Do(cryptox.FingerprintToken(rt), func() (any, error) {
		// Detached so one caller giving up does not fail the others; the
		// HTTP client timeout still bounds the call.
		return s.m.provider.RefreshGrant(context.WithoutCancel(ctx), rt)
	})
	if err != nil {
		if rejected(err) {
			log.Warn("refresh token rejected, clearing session", "error", err)
			s.m.rec.RefreshOutcome("rejected")
			if clearErr := s.Clear(ctx); clearErr != nil {
				return &RefreshRejectedError{Err: errors.Join(err, clearErr)}
			}
			return &RefreshRejectedError{Err: err}
		}
		log.Warn("refresh failed, keeping tokens", "error", err)
		s.m.rec.RefreshOutcome("transient")
		return &TransientRefreshError{Err: err}
	}

	resp := v.(*authsdk.TokenResponse)
	if resp.AccessToken == "" {
		s.m.rec.RefreshOutcome("transient")
		return &TransientRefreshError{Err: errors.New("token response carried no access token")}
	}

	// Keep the current refresh token unless rotated. Copy first; resp is
	// shared with other callers.
	out := *resp
	if err := s.Save(ctx, &out); err != nil {
		return &TransientRefreshError{Err: err}
	}

	log.Debug("tokens refreshed", "shared", shared, "rotated", resp.RefreshToken != "")
	s.m.rec.RefreshOutcome("success")
	return nil
}

// TryRefresh is Refresh reporting only success.
func (s *Session) TryRefresh(ctx context.Context) bool {
	return s.Refresh(ctx) == nil
}

// rejected reports whether the provider refused the grant itself, as
// opposed to failing to answer.
func rejected(err error) bool {
	var oauthErr *authsdk.OAuth2Error
	if !errors.As(err, &oauthErr) {
		return false
	}
	return oauthErr.StatusCode == http.StatusBadRequest || oauthErr.StatusCode == http.StatusUnauthorized
}
