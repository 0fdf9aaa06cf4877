package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/taskdeck/internal/gateway/http"
	"github.com/aussiebroadwan/taskdeck/internal/obs"
	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/apiclient"
	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	metrics      *obs.Metrics
	provider     *authsdk.Client
	manager      *session.Manager
	flow         *session.Flow
	housekeeping *session.Housekeeping

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "taskdeck-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: obs.NewMetrics(),
	}

	httpx.LoadRateLimitsFromEnv()

	app.initSession()
	if err := app.initHTTP(); err != nil {
		return nil, err
	}

	return app, nil
}

// Handler returns the gateway's root handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion, "idp", app.provider.BaseURL)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeeping.Stop()
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var err error
	if err = app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if closeErr := app.server.Close(); closeErr != nil {
			app.logger.Error("error closing server", "error", closeErr)
		}
	}

	app.housekeeping.Stop()

	app.logger.Info("gateway stopped")
	return err
}

// initSession builds the provider client and the session core.
func (app *Application) initSession() {
	app.provider = authsdk.NewClient(app.cfg.IdPDomain, app.cfg.ClientID)
	app.provider.HTTPClient.Timeout = app.cfg.TokenTimeout

	app.manager = session.NewManager(app.provider, app.cfg.CookieConfig(),
		session.WithRecorder(app.metrics),
	)
	app.flow = session.NewFlow(app.manager, session.FlowConfig{
		RedirectURI: app.cfg.RedirectSignIn,
		Scopes:      app.cfg.Scopes,
		UsePKCE:     app.cfg.UsePKCE,
	})

	app.housekeeping = session.NewHousekeeping(app.logger, app.cfg.HousekeepingInterval)
	app.housekeeping.RegisterProcessedCodes(app.flow.Processed())
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	router, err := httpapi.NewRouter(app.manager, app.flow, BuildVersion, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	router.API = apiclient.New(app.cfg.APIBaseURL)
	router.Metrics = app.metrics
	router.IdP = app.provider
	router.LogoutURI = app.cfg.RedirectSignOut
	router.Checks = map[string]httpapi.CheckFunc{
		"identity_provider": app.checkProvider,
	}
	if app.cfg.StaticDir != "" {
		info, err := os.Stat(app.cfg.StaticDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("static dir %q is not a directory", app.cfg.StaticDir)
		}
		router.Static = os.DirFS(app.cfg.StaticDir)
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// checkProvider succeeds when the provider answers at all.
func (app *Application) checkProvider(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, app.provider.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := app.provider.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
