package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"assetview/internal/aggregate"
	"assetview/internal/amqp"
	"assetview/internal/core"
)

// Refresher rebuilds and distributes the overview for one request.
type Refresher interface {
	Refresh(ctx context.Context, req *amqp.RefreshRequest) (aggregate.Overview, error)
}

// RefreshWorker serves refresh requests from AMQP and, when an interval is
// set, refreshes the unfiltered overview on a ticker.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshWorker(refresher Refresher, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// HandleRefresh processes a single refresh message from AMQP
func (w *RefreshWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshRequest) error {
	slog.InfoContext(ctx, "Processing refresh request",
		"id", msg.ID,
		"category", msg.Category,
		"type", msg.Type)

	ov, err := w.refresher.Refresh(ctx, msg)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "Refresh completed",
		"id", msg.ID,
		"asset_count", ov.AssetCount,
		"grand_total", ov.GrandTotal.String())
	return nil
}

// Start begins the ticker loop. Returns an error if already running. With a
// zero interval there is nothing to schedule and Start is a no-op.
func (w *RefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		slog.InfoContext(ctx, "Periodic refresh disabled")
		return nil
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh worker started", "interval", w.interval)
	return nil
}

// Stop signals the loop to exit and waits for it, or for ctx.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresh worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// IsRunning returns whether the ticker loop is active
func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Refresh immediately on startup
	w.tick(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RefreshWorker) tick(ctx context.Context) {
	if err := w.HandleRefresh(ctx, amqp.NewRefreshRequest(core.Filters{})); err != nil {
		slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
	}
}
