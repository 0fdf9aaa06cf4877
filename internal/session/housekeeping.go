package session

import (
	"context"
	"log/slog"
	"time"
)

// PruneFunc removes expired entries from some store and reports how many.
type PruneFunc func(ctx context.Context, now time.Time) (int, error)

// Housekeeping periodically prunes the processed-code set and any other
// registered stores so they do not grow without bound.
type Housekeeping struct {
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	tasks map[string]PruneFunc

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeping creates a worker. If interval is 0 or negative, defaults
// to one minute.
func NewHousekeeping(logger *slog.Logger, interval time.Duration) *Housekeeping {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Housekeeping{
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		tasks:    make(map[string]PruneFunc),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Register adds a named prune task. Call before Start.
func (h *Housekeeping) Register(name string, fn PruneFunc) {
	h.tasks[name] = fn
}

// RegisterProcessedCodes prunes p on every run.
func (h *Housekeeping) RegisterProcessedCodes(p *ProcessedCodes) {
	h.Register("processed_codes", func(_ context.Context, now time.Time) (int, error) {
		return p.Prune(now), nil
	})
}

// Start begins the background worker. Call Stop to shut it down.
func (h *Housekeeping) Start() {
	go h.run()
	h.Logger.Info("housekeeping started", "interval", h.Interval, "tasks", len(h.tasks))
}

// Stop shuts down the worker, waiting for an in-progress run to finish.
func (h *Housekeeping) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("housekeeping stopped")
}

func (h *Housekeeping) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	h.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			h.RunOnce(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// RunOnce runs every task. A failing task does not stop the others.
func (h *Housekeeping) RunOnce(ctx context.Context) {
	now := h.Now()
	for name, fn := range h.tasks {
		n, err := fn(ctx, now)
		if err != nil {
			h.Logger.Error("housekeeping task failed", "task", name, "error", err)
			continue
		}
		if n > 0 {
			h.Logger.Debug("housekeeping pruned entries", "task", name, "count", n)
		}
	}
}
