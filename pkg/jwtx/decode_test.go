package jwtx_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestDecode(t *testing.T) {
	t.Parallel()

	exp := time.Unix(1_700_003_600, 0)
	token := mint(t, jwt.MapClaims{
		"sub":              "user-123",
		"exp":              exp.Unix(),
		"iat":              exp.Add(-time.Hour).Unix(),
		"scope":            "openid email  profile",
		"email_verified":   "true",
		"cognito:username": "jdoe",
		"aud":              "client-1",
	})

	c, ok := jwtx.Decode(token)
	require.True(t, ok)

	gotExp, ok := c.Expiry()
	require.True(t, ok)
	require.Equal(t, exp.Unix(), gotExp.Unix())

	iat, ok := c.IssuedAt()
	require.True(t, ok)
	require.Equal(t, exp.Add(-time.Hour).Unix(), iat.Unix())

	require.Equal(t, "user-123", c.Subject())
	require.Equal(t, "jdoe", c.String("cognito:username"))
	require.Equal(t, "", c.String("missing"))
	require.True(t, c.Bool("email_verified"))
	require.False(t, c.Bool("missing"))
	require.Equal(t, []string{"openid", "email", "profile"}, c.Scopes())
	require.Equal(t, []string{"client-1"}, c.Audience())

	unix, ok := jwtx.Expiry(token)
	require.True(t, ok)
	require.Equal(t, exp.Unix(), unix)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	noExp := mint(t, jwt.MapClaims{"sub": "user-123"})
	stringExp := mint(t, jwt.MapClaims{"exp": "tomorrow"})

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	badPayload := header + "." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"

	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"two segments":    "a.b",
		"bad base64":      header + ".%%%.sig",
		"bad json":        badPayload,
		"missing exp":     noExp,
		"non-numeric exp": stringExp,
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NotPanics(t, func() {
				c, ok := jwtx.Decode(token)
				require.False(t, ok)
				require.Nil(t, c)
			})
		})
	}
}

func TestDecodeIgnoresSignature(t *testing.T) {
	t.Parallel()

	token := mint(t, jwt.MapClaims{"exp": 2_000_000_000})
	tampered := token[:len(token)-4] + "AAAA"

	_, ok := jwtx.Decode(tampered)
	require.True(t, ok)
}

func TestDecodeAcceptsPaddedSegments(t *testing.T) {
	t.Parallel()

	header := base64.URLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.URLEncoding.EncodeToString([]byte(`{"exp":2000000000,"sub":"a"}`))

	c, ok := jwtx.Decode(header + "." + payload + ".c2ln")
	require.True(t, ok)
	require.Equal(t, "a", c.Subject())
}
