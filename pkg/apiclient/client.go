// Package apiclient sends authenticated requests to the task API.
//
// Each call attaches the stored access token as a bearer credential. A 401
// triggers at most one refresh and one resend; if that does not succeed the
// session is cleared and *UnauthorizedError is returned.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

// MaxRetries is the number of resends allowed per logical request.
const MaxRetries = 1

// Credentials is the session surface the pipeline needs.
type Credentials interface {
	// AccessToken returns the current token, or "" when there is none.
	AccessToken(ctx context.Context) string
	// Refresh renews the tokens.
	Refresh(ctx context.Context) error
	// Clear discards all tokens.
	Clear(ctx context.Context) error
}

// UnauthorizedError is returned when the API rejected the session and a
// refresh did not fix it. The tokens have been cleared.
type UnauthorizedError struct {
	// Cause is the refresh failure, or nil when the resend was rejected again.
	Cause error
}

func (e *UnauthorizedError) Error() string {
	if e.Cause != nil {
		return "unauthorized: refresh failed: " + e.Cause.Error()
	}
	return "unauthorized: request rejected after refresh"
}

func (e *UnauthorizedError) Unwrap() error { return e.Cause }

// Client sends requests to BaseURL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a Client with a 30 second timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Do sends req. The caller must close the returned response body.
func (c *Client) Do(ctx context.Context, creds Credentials, req Request) (*http.Response, error) {
	return c.do(ctx, creds, req, 0)
}

func (c *Client) do(ctx context.Context, creds Credentials, req Request, attempt int) (*http.Response, error) {
	httpReq, err := req.build(ctx, c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token := creds.AccessToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	log := slogx.FromContext(ctx)
	if attempt >= MaxRetries {
		log.Warn("api rejected refreshed token, clearing session", "path", req.Path)
		return nil, c.unauthorized(ctx, creds, nil)
	}

	if err := creds.Refresh(ctx); err != nil {
		log.Warn("refresh after 401 failed, clearing session", "path", req.Path, "error", err)
		return nil, c.unauthorized(ctx, creds, err)
	}

	return c.do(ctx, creds, req, attempt+1)
}

func (c *Client) unauthorized(ctx context.Context, creds Credentials, cause error) error {
	if err := creds.Clear(ctx); err != nil {
		cause = errors.Join(cause, err)
	}
	return &UnauthorizedError{Cause: cause}
}

// drain discards and closes a body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
