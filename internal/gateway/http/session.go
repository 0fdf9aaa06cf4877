package http

import (
	"net/http"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
)

// SessionHandler serves GET /api/session.
type SessionHandler struct {
	Manager *session.Manager
}

// ServeHTTP godoc
//
//	@Summary		Current session
//	@Description	Describes the signed-in session and the user from the ID token. Token values are never returned.
//	@Description	An expired access token is refreshed first when a refresh token is stored.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	session.State
//	@Failure		405	{object}	httpx.ErrorBody
//	@Router			/api/session [get].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	ctx := r.Context()
	sess := h.Manager.Session(credstore.NewCookieStore(w, r))

	if !sess.IsAuthenticated(ctx) && sess.HasRefreshToken(ctx) {
		sess.TryRefresh(ctx)
	}

	httpx.WriteJSON(w, http.StatusOK, sess.Describe(ctx))
}
