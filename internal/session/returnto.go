package session

import (
	"net/url"
	"strings"
)

// DefaultDestination is where a completed login lands without a return path.
const DefaultDestination = "/tasks"

// reservedPaths never make sense as a post-login destination.
var reservedPaths = []string{"/login", "/callback", "/logout"}

// SanitizeReturnTo returns p if it is a same-origin absolute path, else "".
// Scheme-relative ("//host") and backslash tricks are rejected.
func SanitizeReturnTo(p string) string {
	if p == "" || p[0] != '/' || strings.HasPrefix(p, "//") || strings.ContainsAny(p, "\\\r\n") {
		return ""
	}

	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return ""
	}

	for _, reserved := range reservedPaths {
		if u.Path == reserved || strings.HasPrefix(u.Path, reserved+"/") {
			return ""
		}
	}
	return u.RequestURI()
}
