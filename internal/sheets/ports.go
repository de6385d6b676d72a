package sheets

import (
	"context"

	"assetview/internal/aggregate"
)

// Ports for outbound adapters.
type (
	// OverviewWriter publishes an overview to a spreadsheet-like target and
	// returns a reference to where it was written.
	OverviewWriter interface {
		WriteOverview(ctx context.Context, ov aggregate.Overview) (ref string, err error)
	}
)
