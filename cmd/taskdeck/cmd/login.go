package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/spf13/cobra"
)

var (
	loginPort    int
	loginTimeout time.Duration
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in from the terminal",
	Long: `Sign in through the identity provider's hosted login page.

A one-shot listener on 127.0.0.1 receives the authorization callback; its
http://127.0.0.1:PORT/callback URL must be registered for the app client.
The tokens are stored in the local credential database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, loginTimeout)
		defer cancel()

		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", loginPort))
		if err != nil {
			return fmt.Errorf("failed to listen for the login callback: %w", err)
		}

		out := cmd.OutOrStdout()
		res, err := loopbackLogin(ctx, env.manager, env.sess, ln, func(u string) error {
			_, err := fmt.Fprintf(out, "Open this URL in your browser to sign in:\n\n  %s\n\n", u)
			return err
		})
		if err != nil {
			return err
		}

		if user, ok := env.sess.UserInfo(ctx); ok {
			fmt.Fprintf(out, "Signed in as %s\n", displayName(user))
		} else {
			fmt.Fprintln(out, "Signed in")
		}
		env.logger.Debug("login finished", "duplicate", res.Duplicate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().IntVar(&loginPort, "port", 8765, "Loopback port for the login callback")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 5*time.Minute, "How long to wait for the browser")
}

type callbackOutcome struct {
	res session.Result
	err error
}

// loopbackLogin runs the authorization code flow with PKCE against a
// callback served on ln. open is handed the provider URL. The flow values
// live in an in-memory store for the duration of the login; only the
// resulting tokens reach sess.
func loopbackLogin(
	ctx context.Context,
	manager *session.Manager,
	sess *session.Session,
	ln net.Listener,
	open func(url string) error,
) (session.Result, error) {
	flowStore := credstore.NewMemoryStore()
	flow := session.NewFlow(manager, session.FlowConfig{
		RedirectURI: "http://" + ln.Addr().String() + "/callback",
		UsePKCE:     true,
	})

	authURL, err := flow.BeginLogin(ctx, flowStore, "")
	if err != nil {
		_ = ln.Close()
		return session.Result{}, err
	}

	done := make(chan callbackOutcome, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		res, err := flow.HandleCallback(r.Context(), sess, flowStore, r.URL.Query())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "Sign-in failed. Return to the terminal for details.\n")
		} else {
			_, _ = io.WriteString(w, "Signed in. You can close this window.\n")
		}
		select {
		case done <- callbackOutcome{res: res, err: err}:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 3 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := open(authURL); err != nil {
		return session.Result{}, err
	}

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return session.Result{}, errors.New("timed out waiting for the login callback")
		}
		return session.Result{}, ctx.Err()
	}
}

func displayName(u session.UserInfo) string {
	switch {
	case u.Username != "" && u.Email != "":
		return u.Username + " <" + u.Email + ">"
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	}
	return u.Subject
}
