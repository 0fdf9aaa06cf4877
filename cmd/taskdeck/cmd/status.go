package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long:  `Show whether you are signed in, when the access token expires and who you are. Token values are never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		st := env.sess.Describe(cmd.Context())
		if statusJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		return printStatus(cmd.OutOrStdout(), st)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}

func printStatus(w io.Writer, st session.State) error {
	var b strings.Builder

	switch {
	case st.Authenticated:
		b.WriteString("Signed in\n")
	case st.HasRefreshToken:
		b.WriteString("Access token expired; it will be refreshed on the next API call\n")
	default:
		b.WriteString("Not signed in. Run \"taskdeck login\".\n")
	}

	if st.User != nil {
		fmt.Fprintf(&b, "  user:     %s\n", displayName(*st.User))
		fmt.Fprintf(&b, "  subject:  %s\n", st.User.Subject)
	}
	if !st.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "  expires:  %s (in %s)\n",
			st.ExpiresAt.Local().Format(time.RFC1123),
			(time.Duration(st.ExpiresIn) * time.Second).String())
	}
	if st.NeedsRefresh && st.Authenticated {
		b.WriteString("  refresh:  due\n")
	}
	if len(st.Scopes) > 0 {
		fmt.Fprintf(&b, "  scopes:   %s\n", strings.Join(st.Scopes, " "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
