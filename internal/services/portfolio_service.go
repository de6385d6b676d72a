package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"assetview/internal/aggregate"
	"assetview/internal/amqp"
	"assetview/internal/collector"
	"assetview/internal/core"
	"assetview/internal/sheets"
)

// SnapshotPublisher is the part of the AMQP client the service needs.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap *amqp.OverviewSnapshot) error
}

// PortfolioService runs the retrieve-then-aggregate pipeline and fans the
// result out to the optional publisher and sheet exporter.
type PortfolioService struct {
	collector *collector.Collector
	publisher SnapshotPublisher
	exporter  sheets.OverviewWriter
}

func NewPortfolioService(c *collector.Collector, publisher SnapshotPublisher, exporter sheets.OverviewWriter) *PortfolioService {
	return &PortfolioService{
		collector: c,
		publisher: publisher,
		exporter:  exporter,
	}
}

// Overview collects every asset matching f and aggregates them. A retrieval
// failure is returned as is and no overview is built; an empty source
// yields an empty overview and no error.
func (s *PortfolioService) Overview(ctx context.Context, f core.Filters) (aggregate.Overview, error) {
	start := time.Now()

	assets, err := s.collector.WithFilters(f).CollectAll(ctx)
	if err != nil {
		return aggregate.Overview{}, err
	}

	grouped, grand := aggregate.Aggregate(assets)
	ov := aggregate.NewOverview(grouped, grand)

	slog.InfoContext(ctx, "Overview built",
		"asset_count", ov.AssetCount,
		"categories", len(ov.Categories),
		"grand_total", ov.GrandTotal.String(),
		"duration_ms", time.Since(start).Milliseconds())

	return ov, nil
}

// Refresh builds the overview, then publishes a snapshot and writes the
// sheet when those are configured. Both outputs are attempted even if one
// fails; their errors are joined.
func (s *PortfolioService) Refresh(ctx context.Context, req *amqp.RefreshRequest) (aggregate.Overview, error) {
	ov, err := s.Overview(ctx, req.Filters())
	if err != nil {
		return aggregate.Overview{}, fmt.Errorf("build overview: %w", err)
	}

	var errs []error

	if s.publisher != nil {
		if err := s.publisher.PublishSnapshot(ctx, amqp.NewOverviewSnapshot(ov, req.ID)); err != nil {
			errs = append(errs, fmt.Errorf("publish snapshot: %w", err))
		}
	} else {
		slog.DebugContext(ctx, "AMQP client not available, skipping snapshot")
	}

	if s.exporter != nil {
		ref, err := s.exporter.WriteOverview(ctx, ov)
		if err != nil {
			errs = append(errs, fmt.Errorf("export overview: %w", err))
		} else {
			slog.InfoContext(ctx, "Overview exported", "ref", ref, "request_id", req.ID)
		}
	}

	return ov, errors.Join(errs...)
}
