package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingRunOnce(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Unix(1_700_000_000, 0)

	processed := NewProcessedCodes(time.Minute)
	processed.Mark("old", now.Add(-2*time.Minute))
	processed.Mark("fresh", now)

	h := NewHousekeeping(logger, time.Hour)
	h.Now = func() time.Time { return now }
	h.RegisterProcessedCodes(processed)

	var ran atomic.Bool
	h.Register("failing", func(context.Context, time.Time) (int, error) { return 0, errors.New("boom") })
	h.Register("other", func(context.Context, time.Time) (int, error) { ran.Store(true); return 3, nil })

	h.RunOnce(context.Background())
	require.Equal(t, 1, processed.Len())
	require.True(t, ran.Load())
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHousekeeping(logger, 10*time.Millisecond)

	var runs atomic.Int32
	h.Register("count", func(context.Context, time.Time) (int, error) { runs.Add(1); return 0, nil })

	h.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	h.Stop()
}
