package core

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultPageSize is the page size servers use when the request leaves it unset.
	DefaultPageSize = 20
	// MaxPageSize is the largest page a server will return.
	MaxPageSize = 100
)

type (
	// Asset is a single financial holding as exposed by the inventory service.
	// Only WID, PrimaryAssetCategory, WealthAssetType and BalanceCurrent are
	// interpreted by aggregation; everything else is carried through. Fields
	// without a typed counterpart (cognito_id, asset_info, holdings, ...) are
	// kept verbatim in Extra and written back out under their own keys.
	Asset struct {
		WID                  string           `json:"wid"`
		AssetID              string           `json:"asset_id,omitempty"`
		Nickname             string           `json:"nickname,omitempty"`
		AssetName            string           `json:"asset_name,omitempty"`
		AssetDescription     string           `json:"asset_description,omitempty"`
		AssetInfoType        string           `json:"asset_info_type,omitempty"`
		WealthAssetType      string           `json:"wealth_asset_type,omitempty"`      // subcategory
		PrimaryAssetCategory string           `json:"primary_asset_category,omitempty"` // category
		BalanceCurrent       *decimal.Decimal `json:"balance_current"`
		BalanceCostBasis     *decimal.Decimal `json:"balance_cost_basis,omitempty"`
		BalanceAsOf          *time.Time       `json:"balance_as_of,omitempty"`
		CurrencyCode         string           `json:"currency_code,omitempty"`
		InstitutionName      string           `json:"institution_name,omitempty"`
		IsActive             *bool            `json:"is_active,omitempty"`
		IsFavorite           *bool            `json:"is_favorite,omitempty"`
		IncludeInNetWorth    *bool            `json:"include_in_net_worth,omitempty"`
		Note                 string           `json:"note,omitempty"`
		CreationDate         *time.Time       `json:"creation_date,omitempty"`
		ModificationDate     *time.Time       `json:"modification_date,omitempty"`

		Extra map[string]json.RawMessage `json:"-"`
	}

	// Filters narrow a page query. Sources apply them; the collector only forwards them.
	Filters struct {
		Category string // primary_asset_category
		Type     string // wealth_asset_type
		Active   *bool  // is_active
	}

	// PageRequest asks a source for one page of assets.
	PageRequest struct {
		Page     int
		PageSize int
		Filters  Filters
	}

	// Page is one response unit from a paged source.
	Page struct {
		Items    []Asset `json:"items"`
		Total    int     `json:"total"`
		Page     int     `json:"page"`
		PageSize int     `json:"page_size"`
		Pages    int     `json:"pages"`
	}

	// ImportResult reports the outcome of loading a batch of assets into a store.
	ImportResult struct {
		Inserted int      `json:"inserted"`
		Skipped  int      `json:"skipped"`
		Errors   []string `json:"errors"`
	}
)

var (
	ErrNotFound        = errors.New("asset not found")
	ErrInvalidID       = errors.New("invalid asset id")
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size out of range")
	ErrPageLimit       = errors.New("page limit reached before source reported the last page")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// DisplayName returns the nickname, then the asset name, then a placeholder.
func (a Asset) DisplayName() string {
	switch {
	case a.Nickname != "":
		return a.Nickname
	case a.AssetName != "":
		return a.AssetName
	default:
		return "Unnamed Asset"
	}
}

// Balance returns the current balance, or zero when the asset has none.
func (a Asset) Balance() decimal.Decimal {
	if a.BalanceCurrent == nil {
		return decimal.Zero
	}
	return *a.BalanceCurrent
}

// Match reports whether the asset passes every set filter.
func (f Filters) Match(a Asset) bool {
	if f.Category != "" && a.PrimaryAssetCategory != f.Category {
		return false
	}
	if f.Type != "" && a.WealthAssetType != f.Type {
		return false
	}
	if f.Active != nil {
		if a.IsActive == nil || *a.IsActive != *f.Active {
			return false
		}
	}
	return true
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Category == "" && f.Type == "" && f.Active == nil
}

// Validate checks the request against the server-side paging bounds.
func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return ErrInvalidPage
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	return nil
}

// Offset returns the number of items preceding the requested page.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// NewPage builds the page envelope for a slice of items drawn from total matches.
// An empty result still reports one page.
func NewPage(items []Asset, total int, req PageRequest) Page {
	pages := 1
	if total > 0 {
		pages = (total + req.PageSize - 1) / req.PageSize
	}
	if items == nil {
		items = []Asset{}
	}
	return Page{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Pages:    pages,
	}
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
