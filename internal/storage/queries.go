package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// AssetRow mirrors the assets table.
type AssetRow struct {
	Wid                  string
	AssetID              sql.NullString
	Nickname             string
	AssetName            string
	AssetDescription     string
	AssetInfoType        string
	WealthAssetType      string
	PrimaryAssetCategory string
	BalanceCurrent       decimal.NullDecimal
	BalanceCostBasis     decimal.NullDecimal
	BalanceAsOf          sql.NullString
	CurrencyCode         string
	InstitutionName      string
	IsActive             sql.NullBool
	IsFavorite           sql.NullBool
	IncludeInNetWorth    sql.NullBool
	Note                 string
	CreationDate         sql.NullString
	ModificationDate     sql.NullString
	Extra                string
}

const assetColumns = `wid, asset_id, nickname, asset_name, asset_description, asset_info_type,
    wealth_asset_type, primary_asset_category, balance_current, balance_cost_basis, balance_as_of,
    currency_code, institution_name, is_active, is_favorite, include_in_net_worth, note,
    creation_date, modification_date, extra`

const assetFilter = `(? = '' OR primary_asset_category = ?)
  AND (? = '' OR wealth_asset_type = ?)
  AND (? IS NULL OR is_active = ?)`

type FilterParams struct {
	PrimaryAssetCategory string
	WealthAssetType      string
	IsActive             sql.NullBool
}

func (p FilterParams) args() []interface{} {
	return []interface{}{
		p.PrimaryAssetCategory, p.PrimaryAssetCategory,
		p.WealthAssetType, p.WealthAssetType,
		p.IsActive, p.IsActive,
	}
}

const countAssets = `SELECT COUNT(*) FROM assets WHERE ` + assetFilter

func (q *Queries) CountAssets(ctx context.Context, arg FilterParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAssets, arg.args()...)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listAssets = `SELECT ` + assetColumns + ` FROM assets WHERE ` + assetFilter + `
ORDER BY rowid
LIMIT ? OFFSET ?`

type ListAssetsParams struct {
	FilterParams
	Limit  int64
	Offset int64
}

func (q *Queries) ListAssets(ctx context.Context, arg ListAssetsParams) ([]AssetRow, error) {
	args := append(arg.FilterParams.args(), arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, listAssets, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AssetRow
	for rows.Next() {
		var i AssetRow
		if err := scanAsset(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAsset = `SELECT ` + assetColumns + ` FROM assets WHERE wid = ? LIMIT 1`

func (q *Queries) GetAsset(ctx context.Context, wid string) (AssetRow, error) {
	row := q.db.QueryRowContext(ctx, getAsset, wid)
	var i AssetRow
	err := scanAsset(row, &i)
	return i, err
}

const assetIDExists = `SELECT EXISTS(SELECT 1 FROM assets WHERE asset_id = ?)`

func (q *Queries) AssetIDExists(ctx context.Context, assetID string) (bool, error) {
	row := q.db.QueryRowContext(ctx, assetIDExists, assetID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertAsset = `INSERT INTO assets (` + assetColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertAsset(ctx context.Context, arg AssetRow) error {
	_, err := q.db.ExecContext(ctx, insertAsset,
		arg.Wid,
		arg.AssetID,
		arg.Nickname,
		arg.AssetName,
		arg.AssetDescription,
		arg.AssetInfoType,
		arg.WealthAssetType,
		arg.PrimaryAssetCategory,
		arg.BalanceCurrent,
		arg.BalanceCostBasis,
		arg.BalanceAsOf,
		arg.CurrencyCode,
		arg.InstitutionName,
		arg.IsActive,
		arg.IsFavorite,
		arg.IncludeInNetWorth,
		arg.Note,
		arg.CreationDate,
		arg.ModificationDate,
		arg.Extra,
	)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(s scanner, i *AssetRow) error {
	return s.Scan(
		&i.Wid,
		&i.AssetID,
		&i.Nickname,
		&i.AssetName,
		&i.AssetDescription,
		&i.AssetInfoType,
		&i.WealthAssetType,
		&i.PrimaryAssetCategory,
		&i.BalanceCurrent,
		&i.BalanceCostBasis,
		&i.BalanceAsOf,
		&i.CurrencyCode,
		&i.InstitutionName,
		&i.IsActive,
		&i.IsFavorite,
		&i.IncludeInNetWorth,
		&i.Note,
		&i.CreationDate,
		&i.ModificationDate,
		&i.Extra,
	)
}
