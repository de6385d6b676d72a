package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"assetview/internal/aggregate"
	"assetview/internal/core"
)

// RefreshRequest asks the worker to rebuild the overview. Empty filter fields
// select every asset.
type RefreshRequest struct {
	ID        string    `json:"id"`
	Category  string    `json:"primary_asset_category,omitempty"`
	Type      string    `json:"wealth_asset_type,omitempty"`
	Active    *bool     `json:"is_active,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshRequest creates a request carrying the given filters
func NewRefreshRequest(f core.Filters) *RefreshRequest {
	return &RefreshRequest{
		ID:        uuid.NewString(),
		Category:  f.Category,
		Type:      f.Type,
		Active:    f.Active,
		Timestamp: time.Now(),
	}
}

// Filters returns the request's filter set
func (m *RefreshRequest) Filters() core.Filters {
	return core.Filters{Category: m.Category, Type: m.Type, Active: m.Active}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestFromJSON creates a message from JSON bytes
func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CategoryTotal is one line of a snapshot.
type CategoryTotal struct {
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
	AssetCount int             `json:"asset_count"`
}

// OverviewSnapshot is published after every successful refresh. It carries
// totals only, not the assets themselves.
type OverviewSnapshot struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id,omitempty"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Currency    string          `json:"currency"`
	AssetCount  int             `json:"asset_count"`
	Categories  []CategoryTotal `json:"categories"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// NewOverviewSnapshot summarises ov
func NewOverviewSnapshot(ov aggregate.Overview, requestID string) *OverviewSnapshot {
	cats := make([]CategoryTotal, 0, len(ov.Categories))
	for _, c := range ov.Categories {
		cats = append(cats, CategoryTotal{Name: c.Name, Total: c.Total, AssetCount: c.AssetCount})
	}
	return &OverviewSnapshot{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		GrandTotal:  ov.GrandTotal,
		Currency:    ov.Currency,
		AssetCount:  ov.AssetCount,
		Categories:  cats,
		GeneratedAt: time.Now().UTC(),
	}
}

// ToJSON converts the snapshot to JSON bytes
func (m *OverviewSnapshot) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OverviewSnapshotFromJSON creates a snapshot from JSON bytes
func OverviewSnapshotFromJSON(data []byte) (*OverviewSnapshot, error) {
	var msg OverviewSnapshot
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
