// Package seed loads asset exports (a JSON array of camelCase records) into
// an inventory store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"assetview/internal/core"
	"assetview/internal/inventory"
)

// ErrSeedFileNotFound is returned when the seed file does not exist.
var ErrSeedFileNotFound = errors.New("seed file not found")

// record is the export format. Keys without a field here are carried into
// Asset.Extra under their snake_case name.
type record struct {
	AssetID              string           `json:"assetId"`
	Nickname             string           `json:"nickname"`
	AssetName            string           `json:"assetName"`
	AssetDescription     string           `json:"assetDescription"`
	AssetInfoType        string           `json:"assetInfoType"`
	WealthAssetType      string           `json:"wealthAssetType"`
	PrimaryAssetCategory string           `json:"primaryAssetCategory"`
	BalanceCurrent       *decimal.Decimal `json:"balanceCurrent"`
	BalanceCostBasis     *decimal.Decimal `json:"balanceCostBasis"`
	BalanceAsOf          *string          `json:"balanceAsOf"`
	CurrencyCode         string           `json:"currencyCode"`
	InstitutionName      string           `json:"institutionName"`
	IsActive             *bool            `json:"isActive"`
	IsFavorite           *bool            `json:"isFavorite"`
	IncludeInNetWorth    *bool            `json:"includeInNetWorth"`
	Note                 string           `json:"note"`
	CreationDate         *string          `json:"creationDate"`
	ModificationDate     *string          `json:"modificationDate"`
}

func (r record) asset() core.Asset {
	return core.Asset{
		AssetID:              r.AssetID,
		Nickname:             r.Nickname,
		AssetName:            r.AssetName,
		AssetDescription:     r.AssetDescription,
		AssetInfoType:        r.AssetInfoType,
		WealthAssetType:      r.WealthAssetType,
		PrimaryAssetCategory: r.PrimaryAssetCategory,
		BalanceCurrent:       r.BalanceCurrent,
		BalanceCostBasis:     r.BalanceCostBasis,
		BalanceAsOf:          parseTime(r.BalanceAsOf),
		CurrencyCode:         r.CurrencyCode,
		InstitutionName:      r.InstitutionName,
		IsActive:             r.IsActive,
		IsFavorite:           r.IsFavorite,
		IncludeInNetWorth:    r.IncludeInNetWorth,
		Note:                 r.Note,
		CreationDate:         parseTime(r.CreationDate),
		ModificationDate:     parseTime(r.ModificationDate),
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseTime accepts ISO-8601 timestamps with or without a zone. Anything
// else is treated as absent.
func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// Decode reads a JSON array of records. A malformed record is reported in
// the returned messages and skipped; a malformed document is an error.
func Decode(r io.Reader) ([]core.Asset, []string, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode seed data: %w", err)
	}

	assets := make([]core.Asset, 0, len(raw))
	var problems []string
	for i, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		a := rec.asset()
		extra, err := extraFields(msg)
		if err != nil {
			problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		a.Extra = extra
		assets = append(assets, a)
	}
	return assets, problems, nil
}

// extraFields returns the record's keys that have no typed Asset field,
// renamed to snake_case. The wid is assigned on import, never taken from input.
func extraFields(msg json.RawMessage) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range m {
		key := snakeCase(k)
		if key == "wid" || core.IsAssetField(key) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = v
	}
	return extra, nil
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LoadFile decodes the seed file at path.
func LoadFile(path string) ([]core.Asset, []string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrSeedFileNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Run loads path into dst.
func Run(ctx context.Context, dst inventory.Importer, path string) (core.ImportResult, error) {
	assets, problems, err := LoadFile(path)
	if err != nil {
		return core.ImportResult{}, err
	}

	res, err := dst.Import(ctx, assets)
	if err != nil {
		return res, fmt.Errorf("import seed data: %w", err)
	}
	res.Errors = append(problems, res.Errors...)
	if res.Errors == nil {
		res.Errors = []string{}
	}

	slog.InfoContext(ctx, "Seed completed",
		"file", path,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"errors", len(res.Errors))
	return res, nil
}

// Message summarises a seed run for humans.
func Message(res core.ImportResult) string {
	switch {
	case res.Inserted > 0:
		return fmt.Sprintf("Successfully seeded %d assets", res.Inserted)
	case res.Skipped > 0:
		return fmt.Sprintf("All %d assets already exist in the database", res.Skipped)
	default:
		return "No assets were processed"
	}
}
