package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"one second left", mintToken(t, now.Add(time.Second)), true},
		{"exp equals now", mintToken(t, now), false},
		{"one second past", mintToken(t, now.Add(-time.Second)), false},
		{"empty", "", false},
		{"garbage", "x.y.z", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsValid(tc.token, now))
		})
	}

	t.Run("sub-second now truncates", func(t *testing.T) {
		token := mintToken(t, now.Add(time.Second))
		require.True(t, IsValid(token, now.Add(999*time.Millisecond)))
		require.False(t, IsValid(token, now.Add(time.Second)))
	})
}

func TestNeedsRefresh(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"301 seconds left", mintToken(t, now.Add(301*time.Second)), false},
		{"300 seconds left", mintToken(t, now.Add(300*time.Second)), true},
		{"10 seconds left", mintToken(t, now.Add(10*time.Second)), true},
		{"already expired", mintToken(t, now.Add(-time.Hour)), true},
		{"undecodable", "garbage", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NeedsRefresh(tc.token, now))
		})
	}
}
