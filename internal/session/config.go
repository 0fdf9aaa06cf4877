package session

import (
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
)

// Credential names in the store.
const (
	AccessTokenName  = "access_token"
	IDTokenName      = "id_token"
	RefreshTokenName = "refresh_token"
	NonceName        = "oauth_state"
	VerifierName     = "oauth_verifier"
	ReturnToName     = "return_to"
)

// Lifetimes used when CookieConfig leaves them unset.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	DefaultNonceTTL        = 10 * time.Minute
)

// CookieConfig is the single source of every credential's attributes, so
// writes and removals always agree on path and domain.
type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool

	// AccessTokenTTL is used for the access and ID tokens only when the
	// provider omits expires_in.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	NonceTTL        time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Path == "" {
		c.Path = "/"
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.NonceTTL <= 0 {
		c.NonceTTL = DefaultNonceTTL
	}
	return c
}

// tokenOptions are SameSite=Strict; tokens are only ever sent same-site.
func (c CookieConfig) tokenOptions(ttl time.Duration) credstore.Options {
	return credstore.Options{
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: credstore.SameSiteStrict,
		MaxAge:   int(ttl / time.Second),
	}
}

// flowOptions are SameSite=Lax. The nonce and return path must survive the
// cross-site redirect back from the provider, which Strict would drop.
func (c CookieConfig) flowOptions() credstore.Options {
	return credstore.Options{
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HTTPOnly: true,
		SameSite: credstore.SameSiteLax,
		MaxAge:   int(c.NonceTTL / time.Second),
	}
}

// accessTTL prefers the provider's expires_in.
func (c CookieConfig) accessTTL(expiresIn int) time.Duration {
	if expiresIn > 0 {
		return time.Duration(expiresIn) * time.Second
	}
	return c.AccessTokenTTL
}
