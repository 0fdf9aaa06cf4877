package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutURI string

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored tokens",
	Long: `Remove the stored access, ID and refresh tokens. With --logout-uri the
provider's hosted sign-out URL is printed as well, to end the browser session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.sess.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Signed out")
		if logoutURI != "" {
			fmt.Fprintf(out, "To end the provider session, open:\n\n  %s\n", env.provider.BuildLogoutURL(logoutURI))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().StringVar(&logoutURI, "logout-uri", "", "Registered sign-out URL to print a provider logout link for")
}
