package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"assetview/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListPage implements inventory.PageReader
func (r *SQLiteRepository) ListPage(ctx context.Context, req core.PageRequest) (core.Page, error) {
	if err := req.Validate(); err != nil {
		return core.Page{}, err
	}

	filter := FilterParams{
		PrimaryAssetCategory: req.Filters.Category,
		WealthAssetType:      req.Filters.Type,
	}
	if req.Filters.Active != nil {
		filter.IsActive = sql.NullBool{Bool: *req.Filters.Active, Valid: true}
	}

	total, err := r.queries.CountAssets(ctx, filter)
	if err != nil {
		return core.Page{}, fmt.Errorf("count assets: %w", err)
	}

	rows, err := r.queries.ListAssets(ctx, ListAssetsParams{
		FilterParams: filter,
		Limit:        int64(req.PageSize),
		Offset:       int64(req.Offset()),
	})
	if err != nil {
		return core.Page{}, fmt.Errorf("list assets: %w", err)
	}

	items := make([]core.Asset, len(rows))
	for i, row := range rows {
		items[i] = row.toAsset()
	}

	slog.DebugContext(ctx, "Listed assets from SQLite",
		"page", req.Page,
		"page_size", req.PageSize,
		"total", total,
		"returned", len(items))

	return core.NewPage(items, int(total), req), nil
}

// GetAsset implements inventory.AssetGetter
func (r *SQLiteRepository) GetAsset(ctx context.Context, wid string) (core.Asset, error) {
	row, err := r.queries.GetAsset(ctx, wid)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Asset{}, core.ErrNotFound
	}
	if err != nil {
		return core.Asset{}, fmt.Errorf("get asset by wid: %w", err)
	}
	return row.toAsset(), nil
}

// Import implements inventory.Importer. Each new asset gets a fresh wid;
// rows whose asset_id is already stored are skipped. A row that fails to
// insert is reported in the result and does not stop the batch.
func (r *SQLiteRepository) Import(ctx context.Context, assets []core.Asset) (core.ImportResult, error) {
	res := core.ImportResult{Errors: []string{}}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	for _, a := range assets {
		if a.AssetID != "" {
			exists, err := q.AssetIDExists(ctx, a.AssetID)
			if err != nil {
				return res, fmt.Errorf("check asset_id %s: %w", a.AssetID, err)
			}
			if exists {
				res.Skipped++
				continue
			}
		}

		a.WID = uuid.NewString()
		if err := q.InsertAsset(ctx, fromAsset(a)); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("insert asset %q: %v", a.AssetID, err))
			continue
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return core.ImportResult{Errors: []string{}}, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Imported assets into SQLite",
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"errors", len(res.Errors))

	return res, nil
}

func (row AssetRow) toAsset() core.Asset {
	return core.Asset{
		WID:                  row.Wid,
		AssetID:              row.AssetID.String,
		Nickname:             row.Nickname,
		AssetName:            row.AssetName,
		AssetDescription:     row.AssetDescription,
		AssetInfoType:        row.AssetInfoType,
		WealthAssetType:      row.WealthAssetType,
		PrimaryAssetCategory: row.PrimaryAssetCategory,
		BalanceCurrent:       decimalPtr(row.BalanceCurrent),
		BalanceCostBasis:     decimalPtr(row.BalanceCostBasis),
		BalanceAsOf:          timePtr(row.BalanceAsOf),
		CurrencyCode:         row.CurrencyCode,
		InstitutionName:      row.InstitutionName,
		IsActive:             boolPtr(row.IsActive),
		IsFavorite:           boolPtr(row.IsFavorite),
		IncludeInNetWorth:    boolPtr(row.IncludeInNetWorth),
		Note:                 row.Note,
		CreationDate:         timePtr(row.CreationDate),
		ModificationDate:     timePtr(row.ModificationDate),
		Extra:                extraFields(row.Extra),
	}
}

func fromAsset(a core.Asset) AssetRow {
	return AssetRow{
		Wid:                  a.WID,
		AssetID:              sql.NullString{String: a.AssetID, Valid: a.AssetID != ""},
		Nickname:             a.Nickname,
		AssetName:            a.AssetName,
		AssetDescription:     a.AssetDescription,
		AssetInfoType:        a.AssetInfoType,
		WealthAssetType:      a.WealthAssetType,
		PrimaryAssetCategory: a.PrimaryAssetCategory,
		BalanceCurrent:       nullDecimal(a.BalanceCurrent),
		BalanceCostBasis:     nullDecimal(a.BalanceCostBasis),
		BalanceAsOf:          nullTime(a.BalanceAsOf),
		CurrencyCode:         a.CurrencyCode,
		InstitutionName:      a.InstitutionName,
		IsActive:             nullBool(a.IsActive),
		IsFavorite:           nullBool(a.IsFavorite),
		IncludeInNetWorth:    nullBool(a.IncludeInNetWorth),
		Note:                 a.Note,
		CreationDate:         nullTime(a.CreationDate),
		ModificationDate:     nullTime(a.ModificationDate),
		Extra:                extraJSON(a.Extra),
	}
}

// extraFields decodes the extra column. Empty or unreadable values yield nil.
func extraFields(s string) map[string]json.RawMessage {
	if s == "" {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}

func extraJSON(m map[string]json.RawMessage) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func timePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}
