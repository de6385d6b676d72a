// Package inventory declares the ports every asset source implements.
package inventory

import (
	"context"

	"assetview/internal/core"
)

// Ports for asset sources.
type (
	// PageReader returns one page of assets. The returned Page.Pages is the
	// source's own count and drives collection.
	PageReader interface {
		ListPage(ctx context.Context, req core.PageRequest) (core.Page, error)
	}

	// AssetGetter looks up a single asset by wid. Missing assets yield core.ErrNotFound.
	AssetGetter interface {
		GetAsset(ctx context.Context, wid string) (core.Asset, error)
	}

	// Importer loads assets, skipping those whose asset_id is already stored.
	Importer interface {
		Import(ctx context.Context, assets []core.Asset) (core.ImportResult, error)
	}

	// Source is what the HTTP server and the pipeline need from a backend.
	Source interface {
		PageReader
		AssetGetter
	}
)
