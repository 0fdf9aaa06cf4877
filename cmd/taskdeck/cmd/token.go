package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/jwtx"
	"github.com/spf13/cobra"
)

var tokenKind string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect tokens",
}

var tokenDecodeCmd = &cobra.Command{
	Use:   "decode [TOKEN|-]",
	Short: "Print a token's claims without verifying its signature",
	Long: `Decode a JWT and print its claims as JSON. With no argument the stored
token selected by --kind is decoded; "-" reads a token from stdin.

The signature is not checked; never use the output to make trust decisions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw string
		switch {
		case len(args) == 1 && args[0] == "-":
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			raw = strings.TrimSpace(string(b))
		case len(args) == 1:
			raw = args[0]
		default:
			env, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			tokens, err := env.sess.Tokens(cmd.Context())
			if err != nil {
				return err
			}
			switch tokenKind {
			case "access":
				raw = tokens.Access
			case "id":
				raw = tokens.ID
			default:
				return fmt.Errorf("unknown token kind %q, want access or id", tokenKind)
			}
			if raw == "" {
				return errors.New(`no stored token, run "taskdeck login"`)
			}
		}

		return printClaims(cmd.OutOrStdout(), raw, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenDecodeCmd)
	tokenDecodeCmd.Flags().StringVar(&tokenKind, "kind", "access", "Stored token to decode (access, id)")
}

type decodedToken struct {
	Claims    jwtx.Claims `json:"claims"`
	ExpiresAt time.Time   `json:"expires_at"`
	Valid     bool        `json:"valid"`
	Refresh   bool        `json:"needs_refresh"`
}

func printClaims(w io.Writer, raw string, now time.Time) error {
	claims, ok := jwtx.Decode(raw)
	if !ok {
		return errors.New("not a decodable JWT with an exp claim")
	}
	exp, _ := claims.Expiry()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(decodedToken{
		Claims:    claims,
		ExpiresAt: exp.UTC(),
		Valid:     session.IsValid(raw, now),
		Refresh:   session.NeedsRefresh(raw, now),
	})
}
