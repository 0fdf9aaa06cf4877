package app

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
)

type Config struct {
	IdPDomain       string   // Required: identity provider hosted UI domain
	ClientID        string   // Required: app client id
	RedirectSignIn  string   // Required: registered callback URL, e.g. https://app.example/callback
	RedirectSignOut string   // Optional: where the provider sends the browser after logout
	Scopes          []string // Optional: requested scopes (default: email openid profile aws.cognito.signin.user.admin)
	UsePKCE         bool     // Optional: add a PKCE challenge to the login redirect (default: false)

	CookieSecure           bool          // Optional: mark cookies Secure (default: true outside dev)
	CookieDomain           string        // Optional: cookie domain (default: host-only)
	CookiePath             string        // Optional: cookie path (default: /)
	AccessTokenFallbackTTL time.Duration // Optional: access/ID cookie lifetime when expires_in is missing (default: 1h)
	RefreshTokenTTL        time.Duration // Optional: refresh cookie lifetime (default: 30 days)

	APIBaseURL   string        // Required: task API base URL
	TokenTimeout time.Duration // Optional: token endpoint timeout (default: 10s)
	StaticDir    string        // Optional: built single-page app to serve on guarded routes

	CredentialsFile string // Optional: CLI credential database (default: ~/.taskdeck/credentials.db)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1m)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	cfg := Config{
		IdPDomain:       os.Getenv("TASKDECK_IDP_DOMAIN"),
		ClientID:        os.Getenv("TASKDECK_CLIENT_ID"),
		RedirectSignIn:  os.Getenv("TASKDECK_REDIRECT_SIGN_IN"),
		RedirectSignOut: os.Getenv("TASKDECK_REDIRECT_SIGN_OUT"),
		Scopes:          httpx.ParseCommaDelimitedFields(os.Getenv("TASKDECK_SCOPES")),
		UsePKCE:         getEnvBoolOrDefault("TASKDECK_USE_PKCE", false),

		CookieSecure:           getEnvBoolOrDefault("TASKDECK_COOKIE_SECURE", env != "dev"),
		CookieDomain:           os.Getenv("TASKDECK_COOKIE_DOMAIN"),
		CookiePath:             getEnvOrDefault("TASKDECK_COOKIE_PATH", "/"),
		AccessTokenFallbackTTL: getEnvDurationOrDefault("TASKDECK_ACCESS_TOKEN_FALLBACK_TTL", session.DefaultAccessTokenTTL),
		RefreshTokenTTL:        getEnvDurationOrDefault("TASKDECK_REFRESH_TOKEN_TTL", session.DefaultRefreshTokenTTL),

		APIBaseURL:   os.Getenv("TASKDECK_API_BASE_URL"),
		TokenTimeout: getEnvDurationOrDefault("TASKDECK_TOKEN_TIMEOUT", 10*time.Second),
		StaticDir:    os.Getenv("TASKDECK_STATIC_DIR"),

		CredentialsFile: os.Getenv("TASKDECK_CREDENTIALS_FILE"),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
	}

	// TASKDECK_SCOPES may also be space-delimited like the scope parameter itself.
	if len(cfg.Scopes) == 1 {
		cfg.Scopes = httpx.ParseSpaceDelimitedFields(cfg.Scopes[0])
	}

	return cfg
}

// Validate reports every missing or malformed required setting.
func (c Config) Validate() error {
	var errs []error

	if c.IdPDomain == "" {
		errs = append(errs, errors.New("TASKDECK_IDP_DOMAIN is required"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("TASKDECK_CLIENT_ID is required"))
	}
	if err := requireAbsoluteURL("TASKDECK_REDIRECT_SIGN_IN", c.RedirectSignIn); err != nil {
		errs = append(errs, err)
	}
	if c.RedirectSignOut != "" {
		if err := requireAbsoluteURL("TASKDECK_REDIRECT_SIGN_OUT", c.RedirectSignOut); err != nil {
			errs = append(errs, err)
		}
	}
	if err := requireAbsoluteURL("TASKDECK_API_BASE_URL", c.APIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.CookiePath != "" && !strings.HasPrefix(c.CookiePath, "/") {
		errs = append(errs, errors.New("TASKDECK_COOKIE_PATH must start with /"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}

	return errors.Join(errs...)
}

// CookieConfig derives the session cookie attributes.
func (c Config) CookieConfig() session.CookieConfig {
	return session.CookieConfig{
		Path:            c.CookiePath,
		Domain:          c.CookieDomain,
		Secure:          c.CookieSecure,
		HTTPOnly:        true,
		AccessTokenTTL:  c.AccessTokenFallbackTTL,
		RefreshTokenTTL: c.RefreshTokenTTL,
	}
}

func requireAbsoluteURL(key, value string) error {
	if value == "" {
		return errors.New(key + " is required")
	}
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New(key + " must be an absolute URL")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
