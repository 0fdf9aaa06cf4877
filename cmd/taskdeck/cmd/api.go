package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aussiebroadwan/taskdeck/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	apiData    string
	apiHeaders []string
	apiInclude bool
)

var apiCmd = &cobra.Command{
	Use:   "api METHOD PATH",
	Short: "Call the task API with the stored session",
	Long: `Send an authenticated request to the task API and print the response body.

A 401 triggers one token refresh and a retry. If that fails too the stored
tokens are cleared and you need to sign in again.

Use --data @file to send a file, or --data - to read the body from stdin.`,
	Example: `  taskdeck api GET /tasks
  taskdeck api POST /tasks --data '{"title":"Write report"}' -H 'Content-Type: application/json'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiBaseURL == "" {
			return errors.New("task API base URL is required (--api-base-url)")
		}

		body, err := readBody(cmd.InOrStdin(), apiData)
		if err != nil {
			return err
		}

		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		req := apiclient.NewRequest(strings.ToUpper(args[0]), args[1], body)
		for _, h := range apiHeaders {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return fmt.Errorf("invalid header %q, want 'Name: value'", h)
			}
			req = req.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		return callAPI(cmd.Context(), apiclient.New(apiBaseURL), env.sess, req, cmd.OutOrStdout(), apiInclude)
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVarP(&apiData, "data", "d", "", "Request body, @file to read a file, - for stdin")
	apiCmd.Flags().StringArrayVarP(&apiHeaders, "header", "H", nil, "Extra request header 'Name: value' (repeatable)")
	apiCmd.Flags().BoolVarP(&apiInclude, "include", "i", false, "Print the response status line and headers")
}

// callAPI sends req and copies the response to out. A non-2xx status is
// printed and then returned as an error.
func callAPI(ctx context.Context, client *apiclient.Client, creds apiclient.Credentials, req apiclient.Request, out io.Writer, include bool) error {
	resp, err := client.Do(ctx, creds, req)
	if err != nil {
		var unauthorized *apiclient.UnauthorizedError
		if errors.As(err, &unauthorized) {
			return errors.New(`session expired, run "taskdeck login"`)
		}
		return err
	}
	defer resp.Body.Close()

	if include {
		fmt.Fprintf(out, "%s %s\n", resp.Proto, resp.Status)
		for name, values := range resp.Header {
			for _, v := range values {
				fmt.Fprintf(out, "%s: %s\n", name, v)
			}
		}
		fmt.Fprintln(out)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("task API returned %s", resp.Status)
	}
	return nil
}

func readBody(stdin io.Reader, data string) ([]byte, error) {
	switch {
	case data == "":
		return nil, nil
	case data == "-":
		return io.ReadAll(stdin)
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}
