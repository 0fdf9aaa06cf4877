package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

// LogoutURLBuilder builds the provider's hosted sign-out URL.
// *authsdk.Client implements it.
type LogoutURLBuilder interface {
	BuildLogoutURL(logoutURI string) string
}

// AuthHandler serves the login flow routes.
type AuthHandler struct {
	Manager *session.Manager
	Flow    *session.Flow
	Guard   *session.Guard
	Views   *Views

	// IdP and LogoutURI are optional. Without them logout stays local.
	IdP       LogoutURLBuilder
	LogoutURI string
}

// HandleLoginPage godoc
//
//	@Summary		Login page
//	@Description	Renders the sign-in page and discards any pending login nonce.
//	@Description	Signed-in users, including ones whose session could be refreshed, are sent on to return_to.
//	@Tags			Auth
//	@Produce		html
//	@Param			return_to	query	string	false	"Local path to continue to after sign-in"
//	@Success		200			"Login page"
//	@Success		302			"Already signed in"
//	@Router			/login [get].
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := credstore.NewCookieStore(w, r)
	sess := h.Manager.Session(store)
	returnTo := session.SanitizeReturnTo(r.URL.Query().Get("return_to"))

	if h.Guard.Check(ctx, sess) == session.Allow {
		if returnTo == "" {
			returnTo = session.DefaultDestination
		}
		httpx.NoCache(w)
		http.Redirect(w, r, returnTo, http.StatusFound)
		return
	}

	if err := h.Manager.ClearNonce(ctx, store); err != nil {
		slogx.FromContext(ctx).Warn("failed to clear login nonce", "error", err)
	}

	start := "/login/start"
	if returnTo != "" {
		start += "?" + url.Values{"return_to": {returnTo}}.Encode()
	}
	h.Views.render(w, r, http.StatusOK, "login.html", loginPage{StartURL: start})
}

// HandleLoginStart godoc
//
//	@Summary		Start sign-in
//	@Description	Stores a fresh CSRF nonce cookie and redirects to the identity provider's authorization endpoint.
//	@Tags			Auth
//	@Param			return_to	query	string	false	"Local path to continue to after sign-in"
//	@Success		302			"Redirect to the identity provider"
//	@Failure		429			{object}	httpx.ErrorBody	"Rate limit exceeded"
//	@Router			/login/start [get].
func (h *AuthHandler) HandleLoginStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := credstore.NewCookieStore(w, r)

	target, err := h.Flow.BeginLogin(ctx, store, r.URL.Query().Get("return_to"))
	if err != nil {
		slogx.FromContext(ctx).Error("failed to begin login", "error", err)
		h.Views.renderError(w, r, http.StatusInternalServerError, "Sign-in unavailable", "We could not start sign-in. Please try again.")
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Authorization callback
//	@Description	Verifies the state parameter against the nonce cookie, exchanges the code for tokens and stores them as cookies.
//	@Description	Answers with a same-origin page that continues to the stored return path, so the first request carrying the SameSite=Strict token cookies starts on the app's own site.
//	@Description	A code that was already handled is ignored.
//	@Tags			Auth
//	@Produce		html
//	@Param			code				query	string	false	"Authorization code"
//	@Param			state				query	string	false	"CSRF state echoed by the provider"
//	@Param			error				query	string	false	"Provider error code"
//	@Param			error_description	query	string	false	"Provider error description"
//	@Success		200					"Page continuing to the stored return path"
//	@Failure		400					"Invalid callback"
//	@Failure		502					"Token exchange failed"
//	@Router			/callback [get].
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := credstore.NewCookieStore(w, r)
	sess := h.Manager.Session(store)

	res, err := h.Flow.HandleCallback(ctx, sess, store, r.URL.Query())
	if err != nil {
		status, message := callbackFailure(err)
		slogx.FromContext(ctx).Warn("login callback failed", "status", status, "error", err)
		h.Views.renderError(w, r, status, "Sign-in failed", message)
		return
	}

	// A 302 here would keep the provider as the navigation's initiator and
	// the browser would withhold the Strict token cookies on the next request.
	h.Views.render(w, r, http.StatusOK, "continue.html", continuePage{Destination: res.Destination})
}

// callbackFailure maps a flow error to a status and a user-facing message.
// CSRF failures get a generic message.
func callbackFailure(err error) (int, string) {
	var exErr *session.TokenExchangeError
	switch {
	case errors.Is(err, session.ErrCSRFMismatch):
		return http.StatusBadRequest, "Your sign-in request could not be verified. Please sign in again."
	case errors.Is(err, session.ErrMissingCode):
		return http.StatusBadRequest, "No authorization code was received from the identity provider."
	case errors.As(err, &exErr):
		if exErr.Code == "" {
			return http.StatusBadGateway, "The identity provider could not be reached. Please try again."
		}
		if exErr.Description != "" {
			return http.StatusBadRequest, "Sign-in was not completed: " + exErr.Description
		}
		return http.StatusBadRequest, "Sign-in was not completed (" + exErr.Code + ")."
	default:
		return http.StatusInternalServerError, "Something went wrong while completing sign-in."
	}
}

// HandleLogout godoc
//
//	@Summary		Sign out
//	@Description	Clears the token cookies and redirects to the identity provider's logout endpoint, or to /login when none is configured.
//	@Tags			Auth
//	@Success		302	"Redirect after sign-out"
//	@Router			/logout [get].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := credstore.NewCookieStore(w, r)
	log := slogx.FromContext(ctx)

	if err := h.Manager.Session(store).Logout(ctx); err != nil {
		log.Warn("failed to clear session", "error", err)
	}
	if err := h.Manager.ClearNonce(ctx, store); err != nil {
		log.Warn("failed to clear login nonce", "error", err)
	}

	target := "/login"
	if h.IdP != nil && h.LogoutURI != "" {
		target = h.IdP.BuildLogoutURL(h.LogoutURI)
	}

	log.Info("signed out")
	httpx.NoCache(w)
	http.Redirect(w, r, target, http.StatusFound)
}
