package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/taskdeck/internal/gateway/app"
	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore/sqlite"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
	"github.com/spf13/cobra"
)

var (
	idpDomain       string
	clientID        string
	apiBaseURL      string
	credentialsFile string
	logLevel        string
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Taskdeck gateway and command line client",
	Long: `Taskdeck signs you in to the task manager through its identity provider,
keeps your tokens refreshed and calls the task API on your behalf.

Run "taskdeck serve" for the browser gateway, or "taskdeck login" to sign in
from the terminal. Settings are read from TASKDECK_* environment variables;
flags override them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slogx.New(slogx.Config{
			Service: "taskdeck-cli",
			Version: app.BuildVersion,
			Env:     "cli",
			Level:   logLevel,
			Format:  "text",
			Output:  os.Stderr,
		})
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg := app.LoadConfig()

	rootCmd.PersistentFlags().StringVar(&idpDomain, "idp-domain", cfg.IdPDomain, "Identity provider domain (TASKDECK_IDP_DOMAIN)")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", cfg.ClientID, "App client id (TASKDECK_CLIENT_ID)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-base-url", cfg.APIBaseURL, "Task API base URL (TASKDECK_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", cfg.CredentialsFile, "Credential database (TASKDECK_CREDENTIALS_FILE, default ~/.taskdeck/credentials.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// cliEnv is what the terminal commands share: the provider client, the
// session core and the credential database.
type cliEnv struct {
	provider *authsdk.Client
	manager  *session.Manager
	store    *sqlite.Store
	sess     *session.Session
	logger   *slog.Logger
}

func (e *cliEnv) Close() error { return e.store.Close() }

// openEnv opens the credential database and prunes expired entries.
func openEnv(ctx context.Context) (*cliEnv, error) {
	if idpDomain == "" || clientID == "" {
		return nil, errors.New("identity provider domain and client id are required (--idp-domain, --client-id)")
	}

	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	store, err := sqlite.Open("file:" + path + "?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	logger := slog.Default()
	if n, err := store.DeleteExpired(ctx); err != nil {
		logger.Warn("failed to prune expired credentials", "error", err)
	} else if n > 0 {
		logger.Debug("pruned expired credentials", "count", n)
	}

	provider := authsdk.NewClient(idpDomain, clientID)
	manager := session.NewManager(provider, session.CookieConfig{})

	return &cliEnv{
		provider: provider,
		manager:  manager,
		store:    store,
		sess:     manager.Session(store),
		logger:   logger,
	}, nil
}

func credentialsPath() (string, error) {
	if credentialsFile != "" {
		return credentialsFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".taskdeck", "credentials.db"), nil
}
