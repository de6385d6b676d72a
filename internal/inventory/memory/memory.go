package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"assetview/internal/core"
)

// Store keeps assets in insertion order.
type Store struct {
	mu     sync.Mutex
	items  []core.Asset
	byWID  map[string]int
	byAsID map[string]struct{}
}

func New(assets ...core.Asset) *Store {
	s := &Store{byWID: map[string]int{}, byAsID: map[string]struct{}{}}
	for _, a := range assets {
		if a.WID == "" {
			a.WID = uuid.NewString()
		}
		s.add(a)
	}
	return s
}

// ListPage filters, then slices the requested page out of the matches.
func (s *Store) ListPage(ctx context.Context, req core.PageRequest) (core.Page, error) {
	if err := ctx.Err(); err != nil {
		return core.Page{}, err
	}
	if err := req.Validate(); err != nil {
		return core.Page{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []core.Asset
	for _, a := range s.items {
		if req.Filters.Match(a) {
			matched = append(matched, a)
		}
	}

	start := min(req.Offset(), len(matched))
	end := min(start+req.PageSize, len(matched))
	items := append([]core.Asset(nil), matched[start:end]...)
	return core.NewPage(items, len(matched), req), nil
}

// GetAsset returns the asset with the given wid.
func (s *Store) GetAsset(ctx context.Context, wid string) (core.Asset, error) {
	if err := ctx.Err(); err != nil {
		return core.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byWID[wid]
	if !ok {
		return core.Asset{}, core.ErrNotFound
	}
	return s.items[i], nil
}

// Import assigns a fresh wid to every new asset.
func (s *Store) Import(ctx context.Context, assets []core.Asset) (core.ImportResult, error) {
	res := core.ImportResult{Errors: []string{}}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if a.AssetID != "" {
			if _, ok := s.byAsID[a.AssetID]; ok {
				res.Skipped++
				continue
			}
		}
		a.WID = uuid.NewString()
		s.add(a)
		res.Inserted++
	}
	return res, nil
}

// Len returns the number of stored assets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) add(a core.Asset) {
	s.byWID[a.WID] = len(s.items)
	if a.AssetID != "" {
		s.byAsID[a.AssetID] = struct{}{}
	}
	s.items = append(s.items, a)
}

// String is used in startup logs.
func (s *Store) String() string {
	return fmt.Sprintf("memory(%d assets)", s.Len())
}
