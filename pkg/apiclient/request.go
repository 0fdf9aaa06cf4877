package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Request describes one logical API call. It is never mutated by the
// pipeline; each attempt builds a fresh *http.Request from it, so the body
// can be resent.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewRequest builds a Request with no query or extra headers.
func NewRequest(method, path string, body []byte) Request {
	return Request{Method: method, Path: path, Body: body}
}

// WithHeader returns a copy of r with key set to value.
func (r Request) WithHeader(key, value string) Request {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	r.Header = h
	return r
}

// WithQuery returns a copy of r with the query replaced.
func (r Request) WithQuery(q url.Values) Request {
	clone := make(url.Values, len(q))
	for k, v := range q {
		clone[k] = slices.Clone(v)
	}
	r.Query = clone
	return r
}

// build creates the outbound request against base.
func (r Request) build(ctx context.Context, base string) (*http.Request, error) {
	target := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
