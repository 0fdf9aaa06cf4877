package apiclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/taskdeck/pkg/apiclient"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	mu         sync.Mutex
	token      string
	next       string
	refreshErr error
	refreshes  int
	cleared    bool
}

func (f *fakeCreds) AccessToken(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCreds) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.token = f.next
	return nil
}

func (f *fakeCreds) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.cleared = "", true
	return nil
}

// apiServer accepts only the bearer token in valid.
func apiServer(t *testing.T, valid *atomic.Value, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("Authorization") != "Bearer "+valid.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("X-Echo-Body", string(body))
		w.Header().Set("X-Echo-Path", r.URL.RequestURI())
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDoAttachesBearer(t *testing.T) {
	t.Parallel()

	var valid atomic.Value
	valid.Store("good")
	var hits atomic.Int32
	srv := apiServer(t, &valid, &hits)

	creds := &fakeCreds{token: "good"}
	req := apiclient.NewRequest(http.MethodGet, "/tasks", nil).WithQuery(url.Values{"status": {"open"}})

	resp, err := apiclient.New(srv.URL).Do(context.Background(), creds, req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/tasks?status=open", resp.Header.Get("X-Echo-Path"))
	require.EqualValues(t, 1, hits.Load())
	require.Zero(t, creds.refreshes)
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	t.Parallel()

	var valid atomic.Value
	valid.Store("fresh")
	var hits atomic.Int32
	srv := apiServer(t, &valid, &hits)

	creds := &fakeCreds{token: "stale", next: "fresh"}
	req := apiclient.NewRequest(http.MethodPost, "/tasks", []byte(`{"title":"x"}`))

	resp, err := apiclient.New(srv.URL).Do(context.Background(), creds, req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `{"title":"x"}`, resp.Header.Get("X-Echo-Body"), "body is resent on retry")
	require.Equal(t, 1, creds.refreshes)
	require.EqualValues(t, 2, hits.Load())
	require.False(t, creds.cleared)
}

func TestDoRefreshFailureClearsSession(t *testing.T) {
	t.Parallel()

	var valid atomic.Value
	valid.Store("unreachable")
	var hits atomic.Int32
	srv := apiServer(t, &valid, &hits)

	boom := errors.New("invalid_grant")
	creds := &fakeCreds{token: "stale", refreshErr: boom}

	_, err := apiclient.New(srv.URL).Do(context.Background(), creds, apiclient.NewRequest(http.MethodGet, "/tasks", nil))

	var unauthorized *apiclient.UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	require.ErrorIs(t, err, boom)
	require.True(t, creds.cleared)
	require.Equal(t, 1, creds.refreshes)
	require.EqualValues(t, 1, hits.Load())
}

func TestDoSecond401DoesNotLoop(t *testing.T) {
	t.Parallel()

	var valid atomic.Value
	valid.Store("never-issued")
	var hits atomic.Int32
	srv := apiServer(t, &valid, &hits)

	creds := &fakeCreds{token: "stale", next: "also-stale"}

	_, err := apiclient.New(srv.URL).Do(context.Background(), creds, apiclient.NewRequest(http.MethodGet, "/tasks", nil))

	var unauthorized *apiclient.UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	require.Nil(t, unauthorized.Cause)
	require.Equal(t, 1, creds.refreshes)
	require.EqualValues(t, 2, hits.Load())
	require.True(t, creds.cleared)
}

func TestDoPassesThroughOtherStatuses(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	creds := &fakeCreds{token: "t"}
	resp, err := apiclient.New(srv.URL).Do(context.Background(), creds, apiclient.NewRequest("", "tasks", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, creds.refreshes)
}

func TestRequestIsImmutable(t *testing.T) {
	t.Parallel()

	base := apiclient.NewRequest(http.MethodGet, "/tasks", nil)
	withHeader := base.WithHeader("X-Trace", "1")

	require.Nil(t, base.Header)
	require.Equal(t, "1", withHeader.Header.Get("X-Trace"))

	q := url.Values{"a": {"1"}}
	withQuery := base.WithQuery(q)
	q.Set("a", "2")
	require.Equal(t, "1", withQuery.Query.Get("a"))
}
