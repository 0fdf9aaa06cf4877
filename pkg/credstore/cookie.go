package credstore

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// CookieStore reads request cookies and writes Set-Cookie headers for one
// request/response pair. Writes are visible to later Gets on the same
// CookieStore, so a handler that refreshes tokens sees the new values before
// the browser does.
//
// The browser, not CookieStore, enforces expiry and scoping of what it sends
// back; Get only sees what arrived on the request plus local writes.
type CookieStore struct {
	r *http.Request
	w http.ResponseWriter

	mu      sync.Mutex
	written map[string]*string // nil value means removed
	Now     func() time.Time
}

// NewCookieStore binds a store to a request and its response writer.
func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{
		r:       r,
		w:       w,
		written: make(map[string]*string),
		Now:     time.Now,
	}
}

func (c *CookieStore) Set(_ context.Context, name, value string, opts Options) error {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
		SameSite: opts.SameSite,
		MaxAge:   opts.MaxAge,
	}
	if !opts.Expires.IsZero() {
		cookie.Expires = opts.Expires.UTC()
	}
	if err := cookie.Valid(); err != nil {
		return err
	}

	http.SetCookie(c.w, cookie)

	c.mu.Lock()
	defer c.mu.Unlock()
	if Expired(ExpiresAt(opts, c.Now()), c.Now()) {
		c.written[name] = nil
	} else {
		c.written[name] = &value
	}
	return nil
}

func (c *CookieStore) Get(_ context.Context, name string) (string, error) {
	c.mu.Lock()
	v, ok := c.written[name]
	c.mu.Unlock()
	if ok {
		if v == nil {
			return "", ErrNotFound
		}
		return *v, nil
	}

	cookie, err := c.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", ErrNotFound
	}
	return cookie.Value, nil
}

func (c *CookieStore) Remove(ctx context.Context, name string, opts Options) error {
	return c.Set(ctx, name, "", RemoveOptions(opts))
}
