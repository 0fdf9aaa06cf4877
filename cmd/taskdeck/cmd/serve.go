package cmd

import (
	"github.com/aussiebroadwan/taskdeck/internal/gateway/app"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser gateway",
	Long: `Run the backend-for-frontend gateway. It serves the login flow, guards the
application pages and proxies /api/* to the task API.

Configuration comes from the environment (see TASKDECK_* variables).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()
		cfg.IdPDomain = idpDomain
		cfg.ClientID = clientID
		cfg.APIBaseURL = apiBaseURL
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		application, err := app.New(cfg)
		if err != nil {
			return err
		}
		return application.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on (PORT)")
}
