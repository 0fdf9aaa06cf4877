package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskdeck/internal/mockidp"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		IdPDomain:            "https://auth.example.com",
		ClientID:             "taskdeck-web",
		RedirectSignIn:       "https://app.example.com/callback",
		APIBaseURL:           "https://api.example.com",
		CookiePath:           "/",
		TokenTimeout:         time.Second,
		Env:                  "dev",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 8080,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Minute,
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TASKDECK_IDP_DOMAIN", "auth.example.com")
	t.Setenv("TASKDECK_CLIENT_ID", "client")
	t.Setenv("TASKDECK_SCOPES", "openid email")
	t.Setenv("TASKDECK_TOKEN_TIMEOUT", "5")
	t.Setenv("TASKDECK_REFRESH_TOKEN_TTL", "72h")
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()
	require.Equal(t, "auth.example.com", cfg.IdPDomain)
	require.Equal(t, []string{"openid", "email"}, cfg.Scopes)
	require.Equal(t, 5*time.Second, cfg.TokenTimeout)
	require.Equal(t, 72*time.Hour, cfg.RefreshTokenTTL)
	require.True(t, cfg.CookieSecure, "cookies default to Secure outside dev")
	require.Equal(t, 9090, cfg.Port)

	t.Setenv("TASKDECK_SCOPES", "openid,profile")
	require.Equal(t, []string{"openid", "profile"}, LoadConfig().Scopes)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.IdPDomain = ""
	cfg.RedirectSignIn = "/callback"
	cfg.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TASKDECK_IDP_DOMAIN is required")
	require.Contains(t, err.Error(), "TASKDECK_REDIRECT_SIGN_IN must be an absolute URL")
	require.Contains(t, err.Error(), "PORT")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestApplicationServesReadiness(t *testing.T) {
	idp, err := mockidp.New(mockidp.Config{ClientID: "taskdeck-web"})
	require.NoError(t, err)
	idpSrv := httptest.NewServer(idp)
	t.Cleanup(idpSrv.Close)

	cfg := validConfig()
	cfg.IdPDomain = idpSrv.URL

	app, err := New(cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "ok", body.Checks["identity_provider"])

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	require.Equal(t, http.StatusFound, rec.Code)
}
