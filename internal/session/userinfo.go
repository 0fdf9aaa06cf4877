package session

import (
	"context"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/jwtx"
)

// UserInfo is the display identity read from the ID token.
type UserInfo struct {
	Subject       string `json:"sub"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// UserInfo decodes the stored ID token. It reports false when there is no
// decodable ID token.
func (s *Session) UserInfo(ctx context.Context) (UserInfo, bool) {
	c, ok := s.Claims(ctx)
	if !ok {
		return UserInfo{}, false
	}
	return UserInfo{
		Subject:       c.Subject(),
		Username:      c.String("cognito:username"),
		Email:         c.String("email"),
		EmailVerified: c.Bool("email_verified"),
		GivenName:     c.String("given_name"),
		FamilyName:    c.String("family_name"),
		PhoneNumber:   c.String("phone_number"),
	}, true
}

// State is a point-in-time summary of the session, safe to show to the user.
// It never includes token values.
type State struct {
	Authenticated   bool      `json:"authenticated"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
	ExpiresIn       int64     `json:"expires_in"`
	NeedsRefresh    bool      `json:"needs_refresh"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	Scopes          []string  `json:"scopes,omitempty"`
	User            *UserInfo `json:"user,omitempty"`
}

// Describe derives State from the store.
func (s *Session) Describe(ctx context.Context) State {
	now := s.m.now()
	access := s.AccessToken(ctx)

	st := State{
		Authenticated:   IsValid(access, now),
		NeedsRefresh:    NeedsRefresh(access, now),
		HasRefreshToken: s.HasRefreshToken(ctx),
	}

	if c, ok := jwtx.Decode(access); ok {
		exp, _ := c.Expiry()
		st.ExpiresAt = exp.UTC()
		st.ExpiresIn = max(exp.Unix()-now.Unix(), 0)
		st.Scopes = c.Scopes()
	}

	if user, ok := s.UserInfo(ctx); ok {
		st.User = &user
	}
	return st
}
