package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// Default hosted endpoint paths.
const (
	DefaultAuthorizePath = "/login"
	DefaultTokenPath     = "/oauth2/token"
	DefaultLogoutPath    = "/logout"

	// DefaultTimeout bounds every token endpoint round trip.
	DefaultTimeout = 10 * time.Second
)

// Client talks to the identity provider's hosted endpoints for one app client.
type Client struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client

	AuthorizePath string
	TokenPath     string
	LogoutPath    string
}

// NewClient creates a provider client. domain may be a bare host
// ("auth.example.com") or a full origin; bare hosts are assumed https.
func NewClient(domain, clientID string) *Client {
	base := strings.TrimSuffix(strings.TrimSpace(domain), "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return &Client{
		BaseURL:  base,
		ClientID: clientID,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		AuthorizePath: DefaultAuthorizePath,
		TokenPath:     DefaultTokenPath,
		LogoutPath:    DefaultLogoutPath,
	}
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}
