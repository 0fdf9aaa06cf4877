package http

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/aussiebroadwan/taskdeck/api/gateway" // Swagger docs
	"github.com/aussiebroadwan/taskdeck/internal/obs"
	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/apiclient"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	views        *Views

	manager *session.Manager
	flow    *session.Flow
	guard   *session.Guard

	API       *apiclient.Client
	Metrics   *obs.Metrics // Optional: nil disables /metrics
	IdP       LogoutURLBuilder
	LogoutURI string
	Static    fs.FS                // Optional: built single-page app
	Checks    map[string]CheckFunc // Readiness checks
}

func NewRouter(
	manager *session.Manager,
	flow *session.Flow,
	buildVersion string,
	logger *slog.Logger,
) (*Router, error) {
	views, err := NewViews()
	if err != nil {
		return nil, err
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		views:        views,
		manager:      manager,
		flow:         flow,
		guard:        session.NewGuard(manager),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(func(req *http.Request, v any) {
			slogx.FromContext(req.Context()).Error("handler panic", "panic", v, "path", req.URL.Path)
		}),
	}

	return r, nil
}

func (r *Router) ApplyRoutes() {
	// Innermost, so the mux sets Pattern on the request Instrument holds.
	if r.Metrics != nil {
		r.middlewares = append(r.middlewares, r.Metrics.Instrument)
	}

	r.registerAuth()
	r.registerAPI()
	r.registerPages()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Taskdeck Gateway API
//	@version		0.1.0
//	@description	Backend-for-frontend for the Taskdeck task manager.
//	@description
//	@description	The gateway runs the OAuth2 authorization code flow against the identity provider,
//	@description	keeps the access, ID and refresh tokens in HttpOnly cookies and forwards /api/* to the task API.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/taskdeck
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) newStore(w http.ResponseWriter, req *http.Request) credstore.Store {
	return credstore.NewCookieStore(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Manager:   r.manager,
		Flow:      r.flow,
		Guard:     r.guard,
		Views:     r.views,
		IdP:       r.IdP,
		LogoutURI: r.LogoutURI,
	}

	// GET /login - page render only, no provider traffic
	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleLoginPage), httpx.SecurityHeaders),
	)

	// GET /login/start and /callback - strict limit, each hit costs a provider round trip
	r.Mux.Handle("GET /login/start",
		httpx.Chain(http.HandlerFunc(h.HandleLoginStart),
			httpx.SecurityHeaders,
			httpx.RateLimitByIP(httpx.LoginLimit),
		),
	)
	r.Mux.Handle("GET /callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.SecurityHeaders,
			httpx.RateLimitByIP(httpx.LoginLimit),
		),
	)

	logout := httpx.Chain(http.HandlerFunc(h.HandleLogout), httpx.SecurityHeaders)
	r.Mux.Handle("GET /logout", logout)
	r.Mux.Handle("POST /logout", logout)
}

func (r *Router) registerAPI() {
	// Both routes are limited per client; the session cookie separates users behind one NAT.
	perClient := httpx.RateLimitMiddleware(httpx.APILimit, httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.CookieKeyExtractor(session.RefreshTokenName),
	))

	r.Mux.Handle("/api/session",
		httpx.Chain(&SessionHandler{Manager: r.manager}, perClient),
	)

	proxy := &ProxyHandler{
		Manager: r.manager,
		Guard:   r.guard,
		API:     r.API,
		Metrics: r.Metrics,
		Prefix:  "/api",
	}
	r.Mux.Handle("/api/", httpx.Chain(proxy, perClient))
}

func (r *Router) registerPages() {
	pages := httpx.Chain(&PageHandler{Manager: r.manager, Views: r.views, Static: r.Static},
		httpx.SecurityHeaders,
		r.guard.Middleware(r.newStore),
	)

	for _, s := range appSections {
		r.Mux.Handle("GET "+s.Href, pages)
		r.Mux.Handle("GET "+s.Href+"/{rest...}", pages)
	}

	r.Mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, session.DefaultDestination, http.StatusFound)
	})

	if r.Static != nil {
		assets := http.FileServerFS(r.Static)
		r.Mux.Handle("GET /assets/", assets)
		r.Mux.Handle("GET /favicon.ico", assets)
	}
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.Checks))

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
