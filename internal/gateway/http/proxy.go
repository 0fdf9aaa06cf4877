package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/taskdeck/internal/obs"
	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/apiclient"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

// MaxProxyBody caps request bodies forwarded to the task API.
const MaxProxyBody = 10 << 20

// forwardedRequestHeaders are copied onto the upstream request.
var forwardedRequestHeaders = []string{"Accept", "Content-Type", "If-Match", "If-None-Match"}

// forwardedResponseHeaders are copied back to the browser.
var forwardedResponseHeaders = []string{"Content-Type", "Content-Length", "ETag", "Last-Modified", "Location"}

// ProxyHandler forwards /api/* to the task API with the session's bearer
// token, refreshing once on 401.
type ProxyHandler struct {
	Manager *session.Manager
	Guard   *session.Guard
	API     *apiclient.Client
	Metrics *obs.Metrics

	// Prefix is stripped from the incoming path.
	Prefix string
}

// ServeHTTP godoc
//
//	@Summary		Task API proxy
//	@Description	Forwards the request to the task API with the stored access token.
//	@Description	On a 401 the session is refreshed and the request retried once; if that fails the session is cleared.
//	@Tags			API
//	@Produce		json
//	@Param			path	path		string			true	"Task API path"
//	@Success		200		"Task API response"
//	@Failure		401		{object}	httpx.ErrorBody	"Session expired; login_url points at sign-in"
//	@Failure		413		{object}	httpx.ErrorBody	"Request body too large"
//	@Failure		502		{object}	httpx.ErrorBody	"Task API unreachable"
//	@Router			/api/{path} [get].
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxProxyBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, h.Prefix)
	if path == "" {
		path = "/"
	}

	req := apiclient.NewRequest(r.Method, path, body).WithQuery(r.URL.Query())
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			req = req.WithHeader(name, v)
		}
	}

	sess := h.Manager.Session(credstore.NewCookieStore(w, r))
	resp, err := h.API.Do(ctx, sess, req)
	if err != nil {
		var unauthorized *apiclient.UnauthorizedError
		if errors.As(err, &unauthorized) {
			h.Metrics.UpstreamStatus(http.StatusUnauthorized)
			httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{
				Error:            "unauthorized",
				ErrorDescription: "session expired, sign in again",
				LoginURL:         h.Guard.LoginURL(returnPath(r)),
			})
			return
		}

		log.Error("task api request failed", "path", path, "error", err)
		h.Metrics.UpstreamStatus(0)
		httpx.WriteError(w, http.StatusBadGateway, "upstream_unavailable", "task API unreachable")
		return
	}
	defer resp.Body.Close()

	h.Metrics.UpstreamStatus(resp.StatusCode)
	for _, name := range forwardedResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	httpx.NoCache(w)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Warn("failed to copy task api response", "path", path, "error", err)
	}
}

// returnPath is the page the browser was on, from a same-origin Referer.
func returnPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host {
		return ""
	}
	return session.SanitizeReturnTo(ref.RequestURI())
}
