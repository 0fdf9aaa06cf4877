// Package credstore persists named credential strings with cookie-style
// attributes.
//
// The contract mirrors a browser cookie jar: values are scoped by
// (name, domain, path), expire by max-age or an absolute timestamp, and are
// removed by re-setting them with an already-elapsed lifetime. Values are
// stored as given; nothing here encrypts or signs them.
package credstore

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned by Get when no unexpired value exists.
var ErrNotFound = errors.New("credstore: not found")

// SameSite mirrors the cookie SameSite attribute.
type SameSite = http.SameSite

const (
	SameSiteLax    = http.SameSiteLaxMode
	SameSiteStrict = http.SameSiteStrictMode
	SameSiteNone   = http.SameSiteNoneMode
)

// Options are the attributes attached to a stored value.
type Options struct {
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite SameSite

	// MaxAge is the lifetime in seconds. Zero means unset; negative means
	// expire immediately.
	MaxAge int

	// Expires is used only when MaxAge is zero.
	Expires time.Time
}

// Store is a credential jar.
//
// Remove must be called with the same Path and Domain used for Set;
// implementations key values by (name, domain, path) and a mismatched Remove
// silently leaves the original in place.
type Store interface {
	Set(ctx context.Context, name, value string, opts Options) error
	Get(ctx context.Context, name string) (string, error)
	Remove(ctx context.Context, name string, opts Options) error
}

// Entry is one value in a batch write.
type Entry struct {
	Name    string
	Value   string
	Options Options
}

// Batcher is implemented by stores that can apply several writes atomically.
type Batcher interface {
	SetAll(ctx context.Context, entries []Entry) error
}

// SetAll writes entries through b when s implements Batcher, otherwise one
// at a time in the given order, stopping at the first error.
func SetAll(ctx context.Context, s Store, entries []Entry) error {
	if b, ok := s.(Batcher); ok {
		return b.SetAll(ctx, entries)
	}
	for _, e := range entries {
		if err := s.Set(ctx, e.Name, e.Value, e.Options); err != nil {
			return err
		}
	}
	return nil
}

// RemoveOptions returns opts adjusted to delete the value it describes.
func RemoveOptions(opts Options) Options {
	opts.MaxAge = -1
	opts.Expires = time.Unix(0, 0)
	return opts
}

// ExpiresAt resolves the absolute expiry for opts written at now. The zero
// time means the value does not expire.
func ExpiresAt(opts Options, now time.Time) time.Time {
	switch {
	case opts.MaxAge > 0:
		return now.Add(time.Duration(opts.MaxAge) * time.Second)
	case opts.MaxAge < 0:
		return now
	}
	return opts.Expires
}

// Expired reports whether a value with expiry exp is no longer readable at now.
func Expired(exp, now time.Time) bool {
	return !exp.IsZero() && !now.Before(exp)
}
