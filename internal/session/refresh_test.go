package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRefreshSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("keeps refresh token when not rotated", func(t *testing.T) {
		f := newFixture(t)
		old := f.seed(t, time.Minute)

		require.NoError(t, f.sess.Refresh(ctx))
		require.NotEqual(t, old.Access, f.get(t, AccessTokenName))
		require.NotEqual(t, old.ID, f.get(t, IDTokenName))
		require.Equal(t, "refresh-1", f.get(t, RefreshTokenName))
	})

	t.Run("stores rotated refresh token", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, time.Minute)
		f.provider.setRefresh(func(rt string) (*authsdk.TokenResponse, error) {
			require.Equal(t, "refresh-1", rt)
			return f.tokenResponse(t, time.Hour, "refresh-2"), nil
		})

		require.NoError(t, f.sess.Refresh(ctx))
		require.Equal(t, "refresh-2", f.get(t, RefreshTokenName))
	})
}

func TestRefreshWithoutToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.ErrorIs(t, f.sess.Refresh(context.Background()), ErrNoRefreshToken)
	require.False(t, f.sess.TryRefresh(context.Background()))
	require.Zero(t, f.provider.refreshes.Load())
}

func TestRefreshRejectedClearsTokens(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.seed(t, -time.Minute)
			f.provider.setRefresh(func(string) (*authsdk.TokenResponse, error) {
				return nil, authsdk.NewOAuth2Error(status, authsdk.ErrorCodeInvalidGrant, "revoked")
			})

			err := f.sess.Refresh(ctx)

			var rejectedErr *RefreshRejectedError
			require.ErrorAs(t, err, &rejectedErr)
			require.Empty(t, f.get(t, AccessTokenName))
			require.Empty(t, f.get(t, IDTokenName))
			require.Empty(t, f.get(t, RefreshTokenName))
		})
	}
}

func TestRefreshTransientKeepsTokens(t *testing.T) {
	t.Parallel()

	failures := map[string]error{
		"network":     errors.New("failed to send request: dial tcp: connection refused"),
		"server 503":  authsdk.NewOAuth2Error(http.StatusServiceUnavailable, authsdk.ErrorCodeServerError, "down"),
		"rate limit":  authsdk.NewOAuth2Error(http.StatusTooManyRequests, "rate_limit_exceeded", ""),
		"bad payload": errors.New("failed to decode response: invalid character"),
	}

	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			seeded := f.seed(t, time.Minute)
			f.provider.setRefresh(func(string) (*authsdk.TokenResponse, error) { return nil, failure })

			err := f.sess.Refresh(ctx)

			var transient *TransientRefreshError
			require.ErrorAs(t, err, &transient)
			require.Equal(t, seeded.Access, f.get(t, AccessTokenName))
			require.Equal(t, seeded.ID, f.get(t, IDTokenName))
			require.Equal(t, seeded.Refresh, f.get(t, RefreshTokenName))
		})
	}
}

func TestRefreshTimeoutThenSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	seeded := f.seed(t, time.Minute)

	f.provider.setRefresh(func(string) (*authsdk.TokenResponse, error) {
		return nil, context.DeadlineExceeded
	})
	var transient *TransientRefreshError
	require.ErrorAs(t, f.sess.Refresh(ctx), &transient)
	require.ErrorIs(t, transient, context.DeadlineExceeded)
	require.Equal(t, seeded.Access, f.get(t, AccessTokenName))

	f.provider.setRefresh(func(string) (*authsdk.TokenResponse, error) {
		return f.tokenResponse(t, time.Hour, ""), nil
	})
	require.NoError(t, f.sess.Refresh(ctx))
	require.NotEqual(t, seeded.Access, f.get(t, AccessTokenName))
	require.EqualValues(t, 2, f.provider.refreshes.Load())
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, time.Minute)

	release := make(chan struct{})
	resp := f.tokenResponse(t, time.Hour, "")
	f.provider.setRefresh(func(string) (*authsdk.TokenResponse, error) {
		<-release
		return resp, nil
	})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.sess.Refresh(ctx)
		}()
	}

	require.Eventually(t, func() bool { return f.provider.refreshes.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.LessOrEqual(t, f.provider.refreshes.Load(), int32(callers))
	require.Equal(t, resp.AccessToken, f.get(t, AccessTokenName))
}
