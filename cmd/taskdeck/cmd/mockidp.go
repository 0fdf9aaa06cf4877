package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskdeck/internal/mockidp"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
	"github.com/spf13/cobra"
)

var (
	mockPort          int
	mockTokenTTL      time.Duration
	mockRotateRefresh bool
)

var mockIdPCmd = &cobra.Command{
	Use:   "mock-idp",
	Short: "Run a development identity provider",
	Long: `Run an in-memory identity provider for local development. Every login is
approved as a demo user and tokens are signed with a throwaway HS256 key.

Point the gateway at it with TASKDECK_IDP_DOMAIN=http://localhost:PORT.
Never expose it beyond localhost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if clientID == "" {
			return errors.New("client id is required (--client-id)")
		}

		p, err := mockidp.New(mockidp.Config{
			ClientID:      clientID,
			TokenTTL:      mockTokenTTL,
			RotateRefresh: mockRotateRefresh,
		})
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("127.0.0.1:%d", mockPort)
		fmt.Fprintf(cmd.OutOrStdout(), "Mock identity provider listening on http://%s (client id %s)\n", addr, clientID)

		srv := &http.Server{
			Addr:              addr,
			Handler:           slogx.HTTPMiddleware(slog.Default())(p),
			ReadHeaderTimeout: 3 * time.Second,
		}
		return srv.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(mockIdPCmd)
	mockIdPCmd.Flags().IntVarP(&mockPort, "port", "p", 9000, "Port to listen on")
	mockIdPCmd.Flags().DurationVar(&mockTokenTTL, "token-ttl", mockidp.DefaultTokenTTL, "Access and ID token lifetime")
	mockIdPCmd.Flags().BoolVar(&mockRotateRefresh, "rotate-refresh", false, "Issue a new refresh token on every refresh")
}
