package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assetview/internal/aggregate"
	"assetview/internal/amqp"
	"assetview/internal/core"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []*amqp.RefreshRequest
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, req *amqp.RefreshRequest) (aggregate.Overview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return aggregate.Overview{}, f.err
	}
	return aggregate.Overview{AssetCount: 1}, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestHandleRefresh(t *testing.T) {
	r := &fakeRefresher{}
	w := NewRefreshWorker(r, 0)
	msg := amqp.NewRefreshRequest(core.Filters{Category: "Cash"})

	if err := w.HandleRefresh(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefresh: %v", err)
	}
	if r.count() != 1 || r.calls[0].Category != "Cash" {
		t.Fatalf("unexpected calls: %+v", r.calls)
	}
}

func TestHandleRefreshWrapsError(t *testing.T) {
	cause := &core.RetrievalError{Page: 1, Err: errors.New("refused")}
	w := NewRefreshWorker(&fakeRefresher{err: cause}, 0)

	err := w.HandleRefresh(context.Background(), amqp.NewRefreshRequest(core.Filters{}))

	var re *core.RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetrievalError in chain, got %v", err)
	}
}

func TestStartDisabledWithoutInterval(t *testing.T) {
	w := NewRefreshWorker(&fakeRefresher{}, 0)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if w.IsRunning() {
		t.Error("worker should not run without an interval")
	}
}

func TestStartTickStop(t *testing.T) {
	r := &fakeRefresher{}
	w := NewRefreshWorker(r, 10*time.Millisecond)
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.count() < 2 {
		t.Fatalf("expected at least 2 refreshes, got %d", r.count())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("worker should not be running after Stop")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("second Stop should be a no-op: %v", err)
	}
}

func TestTickFailureKeepsLoopAlive(t *testing.T) {
	r := &fakeRefresher{err: errors.New("boom")}
	w := NewRefreshWorker(r, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for r.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if r.count() < 3 {
		t.Fatalf("loop stopped after failures, calls=%d", r.count())
	}
}
