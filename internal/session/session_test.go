package session

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestSaveUsesExpiresIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	resp := f.tokenResponse(t, 2*time.Hour, "r")
	resp.ExpiresIn = 120
	require.NoError(t, f.sess.Save(ctx, resp))

	f.now = f.now.Add(119 * time.Second)
	require.NotEmpty(t, f.get(t, AccessTokenName))

	f.now = f.now.Add(time.Second)
	require.Empty(t, f.get(t, AccessTokenName))
	require.Empty(t, f.get(t, IDTokenName))
	require.Equal(t, "r", f.get(t, RefreshTokenName))
}

func TestSaveFallsBackWithoutExpiresIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	resp := f.tokenResponse(t, 2*time.Hour, "r")
	resp.ExpiresIn = 0
	require.NoError(t, f.sess.Save(ctx, resp))

	f.now = f.now.Add(DefaultAccessTokenTTL - time.Second)
	require.NotEmpty(t, f.get(t, AccessTokenName))

	f.now = f.now.Add(time.Second)
	require.Empty(t, f.get(t, AccessTokenName))
}

func TestIsAuthenticatedDerivedFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	require.False(t, f.sess.IsAuthenticated(ctx))

	f.seed(t, 10*time.Minute)
	require.True(t, f.sess.IsAuthenticated(ctx))

	f.now = f.now.Add(10 * time.Minute)
	require.False(t, f.sess.IsAuthenticated(ctx), "token past exp is unauthenticated even while stored")
	require.NotEmpty(t, f.get(t, AccessTokenName))
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, time.Hour)

	require.NoError(t, f.sess.Logout(ctx))
	require.False(t, f.sess.IsAuthenticated(ctx))

	tokens, err := f.sess.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, Tokens{}, tokens)
	require.Zero(t, f.store.Len())
}

func TestUserInfoAndDescribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, ok := f.sess.UserInfo(ctx)
	require.False(t, ok)
	require.Equal(t, State{}, f.sess.Describe(ctx))

	resp := &authsdk.TokenResponse{
		AccessToken: mintClaims(t, map[string]any{"exp": f.now.Add(time.Hour).Unix(), "scope": "openid email"}),
		IDToken: mintClaims(t, map[string]any{
			"exp":              f.now.Add(time.Hour).Unix(),
			"sub":              "abc-123",
			"email":            "jane@example.com",
			"email_verified":   true,
			"given_name":       "Jane",
			"family_name":      "Doe",
			"phone_number":     "+61400000000",
			"cognito:username": "jdoe",
		}),
		RefreshToken: "r",
		ExpiresIn:    3600,
	}
	require.NoError(t, f.sess.Save(ctx, resp))

	user, ok := f.sess.UserInfo(ctx)
	require.True(t, ok)
	require.Equal(t, UserInfo{
		Subject:       "abc-123",
		Username:      "jdoe",
		Email:         "jane@example.com",
		EmailVerified: true,
		GivenName:     "Jane",
		FamilyName:    "Doe",
		PhoneNumber:   "+61400000000",
	}, user)

	st := f.sess.Describe(ctx)
	require.True(t, st.Authenticated)
	require.False(t, st.NeedsRefresh)
	require.True(t, st.HasRefreshToken)
	require.EqualValues(t, 3600, st.ExpiresIn)
	require.Equal(t, []string{"openid", "email"}, st.Scopes)
	require.Equal(t, "jdoe", st.User.Username)
}
