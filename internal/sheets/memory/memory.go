package memory

import (
	"context"
	"fmt"
	"sync"

	"assetview/internal/aggregate"
)

// Writer keeps every overview written to it. Used when no spreadsheet is
// configured and in tests.
type Writer struct {
	mu     sync.Mutex
	writes []aggregate.Overview
}

func New() *Writer {
	return &Writer{}
}

// WriteOverview stores ov and returns a synthetic reference.
func (w *Writer) WriteOverview(ctx context.Context, ov aggregate.Overview) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, ov)
	return fmt.Sprintf("mem:%d", len(w.writes)), nil
}

// Last returns the most recent overview, if any.
func (w *Writer) Last() (aggregate.Overview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.writes) == 0 {
		return aggregate.Overview{}, false
	}
	return w.writes[len(w.writes)-1], true
}

// Count returns how many overviews were written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}
