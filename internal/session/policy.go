package session

import (
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/jwtx"
)

// RefreshWindow is how long before expiry a token is due for refresh.
const RefreshWindow = 300 * time.Second

// IsValid reports whether token decodes and its exp is strictly after now,
// compared in whole epoch seconds.
func IsValid(token string, now time.Time) bool {
	exp, ok := jwtx.Expiry(token)
	if !ok {
		return false
	}
	return exp > now.Unix()
}

// NeedsRefresh reports whether token decodes and expires within
// RefreshWindow of now. Expired tokens report true; undecodable ones false.
func NeedsRefresh(token string, now time.Time) bool {
	exp, ok := jwtx.Expiry(token)
	if !ok {
		return false
	}
	return exp <= now.Add(RefreshWindow).Unix()
}
