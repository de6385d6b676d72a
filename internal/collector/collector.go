// Package collector walks a paged asset source from the first page to the
// last page the source reports, accumulating every item in order.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"assetview/internal/core"
	"assetview/internal/inventory"
)

const (
	DefaultPageSize = core.MaxPageSize
	DefaultMaxPages = 1000
)

// Config controls a collection run. Zero values select the defaults.
type Config struct {
	PageSize int
	MaxPages int
	Filters  core.Filters
}

// Collector fetches pages strictly one after another.
type Collector struct {
	src inventory.PageReader
	cfg Config
}

// New validates cfg and returns a collector reading from src.
func New(src inventory.PageReader, cfg Config) (*Collector, error) {
	if src == nil {
		return nil, errors.New("collector: nil page reader")
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize < 0 {
		return nil, fmt.Errorf("collector: page size %d: %w", cfg.PageSize, core.ErrInvalidPageSize)
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxPages < 0 {
		return nil, fmt.Errorf("collector: max pages must be positive, got %d", cfg.MaxPages)
	}
	return &Collector{src: src, cfg: cfg}, nil
}

// WithFilters returns a copy of the collector that forwards f instead.
func (c *Collector) WithFilters(f core.Filters) *Collector {
	cp := *c
	cp.cfg.Filters = f
	return &cp
}

// CollectAll returns every asset the source holds for the configured filters.
//
// Any failed page aborts the run and no partial result is returned. Failures
// are reported as *core.RetrievalError; one coming from the source is passed
// through as is. The source's page count is authoritative, except that an
// empty page after the first ends the run and MaxPages bounds it.
func (c *Collector) CollectAll(ctx context.Context) ([]core.Asset, error) {
	assets := []core.Asset{}

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &core.RetrievalError{Page: page, Err: err}
		}

		resp, err := c.src.ListPage(ctx, core.PageRequest{
			Page:     page,
			PageSize: c.cfg.PageSize,
			Filters:  c.cfg.Filters,
		})
		if err != nil {
			var re *core.RetrievalError
			if errors.As(err, &re) {
				return nil, err
			}
			return nil, &core.RetrievalError{Page: page, Err: err}
		}

		if len(resp.Items) == 0 && page > 1 && page <= resp.Pages {
			slog.WarnContext(ctx, "Source returned an empty page before its last page",
				"page", page, "pages", resp.Pages, "collected", len(assets))
			break
		}
		assets = append(assets, resp.Items...)

		if page >= resp.Pages {
			break
		}
		if page >= c.cfg.MaxPages {
			return nil, &core.RetrievalError{Page: page, Err: fmt.Errorf("%w (max %d, source reports %d)", core.ErrPageLimit, c.cfg.MaxPages, resp.Pages)}
		}
	}

	slog.DebugContext(ctx, "Collected assets", "count", len(assets))
	return assets, nil
}
