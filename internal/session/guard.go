package session

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

// Decision is the guard's verdict.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Guard gates protected routes on a valid access token.
type Guard struct {
	m *Manager

	// LoginPath receives denied navigations with ?return_to=.
	LoginPath string
}

// NewGuard creates a Guard redirecting to /login.
func NewGuard(m *Manager) *Guard {
	return &Guard{m: m, LoginPath: "/login"}
}

// Check decides whether sess may proceed.
//
//   - valid and outside the refresh window: allow
//   - valid but inside the window: refresh (best effort), allow
//   - expired, undecodable, or absent with a refresh token stored: refresh,
//     then allow only if the re-read token is valid
//   - absent with nothing to refresh: deny
//
// Browsers drop the access cookie once its max-age (expires_in) passes, so
// an absent access token next to a stored refresh token is the expired case.
func (g *Guard) Check(ctx context.Context, sess *Session) Decision {
	d := g.check(ctx, sess)
	g.m.rec.GuardDecision(d.String())
	return d
}

func (g *Guard) check(ctx context.Context, sess *Session) Decision {
	access := sess.AccessToken(ctx)
	if access == "" && !sess.HasRefreshToken(ctx) {
		return Deny
	}

	now := g.m.now()
	if access != "" && IsValid(access, now) {
		if NeedsRefresh(access, now) && sess.HasRefreshToken(ctx) {
			if err := sess.Refresh(ctx); err != nil {
				slogx.FromContext(ctx).Debug("proactive refresh failed", "error", err)
			}
			if !sess.IsAuthenticated(ctx) {
				return Deny
			}
		}
		return Allow
	}

	if err := sess.Refresh(ctx); err != nil {
		return Deny
	}
	if sess.IsAuthenticated(ctx) {
		return Allow
	}
	return Deny
}

// Middleware guards next. newStore binds a credential store to each request.
// Allowed requests carry the guard's session, see SessionFromContext.
func (g *Guard) Middleware(newStore func(http.ResponseWriter, *http.Request) credstore.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := g.m.Session(newStore(w, r))
			if g.Check(r.Context(), sess) == Allow {
				next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
				return
			}

			slogx.FromContext(r.Context()).Info("unauthenticated access", "path", r.URL.Path)
			httpx.NoCache(w)
			http.Redirect(w, r, g.LoginURL(r.URL.RequestURI()), http.StatusFound)
		})
	}
}

// LoginURL builds the login redirect carrying returnTo.
func (g *Guard) LoginURL(returnTo string) string {
	if returnTo = SanitizeReturnTo(returnTo); returnTo == "" {
		return g.LoginPath
	}
	return g.LoginPath + "?" + url.Values{"return_to": {returnTo}}.Encode()
}

type sessionKey struct{}

// ContextWithSession returns ctx carrying sess.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session stored by the guard middleware.
// It holds any tokens the guard refreshed for this request.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok
}
