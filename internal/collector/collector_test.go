package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetview/internal/core"
	"assetview/internal/inventory/memory"
)

// fakeSource serves canned pages and records every request.
type fakeSource struct {
	pages    map[int]core.Page
	errs     map[int]error
	requests []core.PageRequest
}

func (f *fakeSource) ListPage(_ context.Context, req core.PageRequest) (core.Page, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.errs[req.Page]; ok {
		return core.Page{}, err
	}
	p, ok := f.pages[req.Page]
	if !ok {
		return core.Page{Items: []core.Asset{}, Page: req.Page, Pages: 1}, nil
	}
	return p, nil
}

func assets(prefix string, n int) []core.Asset {
	out := make([]core.Asset, n)
	for i := range out {
		out[i] = core.Asset{WID: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

func TestNewDefaultsAndValidation(t *testing.T) {
	c, err := New(&fakeSource{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, c.cfg.PageSize)
	assert.Equal(t, DefaultMaxPages, c.cfg.MaxPages)

	_, err = New(&fakeSource{}, Config{PageSize: -1})
	assert.ErrorIs(t, err, core.ErrInvalidPageSize)

	c, err = New(&fakeSource{}, Config{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 500, c.cfg.PageSize)

	_, err = New(&fakeSource{}, Config{MaxPages: -3})
	assert.Error(t, err)

	_, err = New(nil, Config{})
	assert.Error(t, err)
}

func TestCollectAllTwoPages(t *testing.T) {
	src := &fakeSource{pages: map[int]core.Page{
		1: {Items: assets("p1", 100), Page: 1, Pages: 2},
		2: {Items: assets("p2", 37), Page: 2, Pages: 2},
	}}
	c, err := New(src, Config{PageSize: 100})
	require.NoError(t, err)

	got, err := c.CollectAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 137)
	assert.Len(t, src.requests, 2)
	assert.Equal(t, "p1-0", got[0].WID)
	assert.Equal(t, "p2-36", got[136].WID)
}

func TestCollectAllSinglePage(t *testing.T) {
	src := &fakeSource{pages: map[int]core.Page{
		1: {Items: assets("only", 3), Page: 1, Pages: 1},
	}}
	c, _ := New(src, Config{})

	got, err := c.CollectAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Len(t, src.requests, 1)
}

func TestCollectAllEmptySource(t *testing.T) {
	src := &fakeSource{pages: map[int]core.Page{
		1: {Items: []core.Asset{}, Page: 1, Pages: 1},
	}}
	c, _ := New(src, Config{})

	got, err := c.CollectAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCollectAllForwardsFiltersOnEveryPage(t *testing.T) {
	filters := core.Filters{Category: "Bank", Type: "Checking", Active: core.BoolPtr(true)}
	src := &fakeSource{pages: map[int]core.Page{
		1: {Items: assets("a", 2), Page: 1, Pages: 3},
		2: {Items: assets("b", 2), Page: 2, Pages: 3},
		3: {Items: assets("c", 1), Page: 3, Pages: 3},
	}}
	c, _ := New(src, Config{PageSize: 2, Filters: filters})

	_, err := c.CollectAll(context.Background())

	require.NoError(t, err)
	require.Len(t, src.requests, 3)
	for i, req := range src.requests {
		assert.Equal(t, i+1, req.Page)
		assert.Equal(t, 2, req.PageSize)
		assert.Equal(t, filters, req.Filters)
	}
}

func TestCollectAllFirstPageFailure(t *testing.T) {
	transport := errors.New("connection refused")
	src := &fakeSource{errs: map[int]error{1: transport}}
	c, _ := New(src, Config{})

	got, err := c.CollectAll(context.Background())

	assert.Nil(t, got)
	var re *core.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Page)
	assert.ErrorIs(t, err, transport)
}

func TestCollectAllLaterPageFailureDiscardsPartialResult(t *testing.T) {
	upstream := &core.RetrievalError{Page: 2, StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway"}
	src := &fakeSource{
		pages: map[int]core.Page{1: {Items: assets("a", 5), Page: 1, Pages: 3}},
		errs:  map[int]error{2: upstream},
	}
	c, _ := New(src, Config{PageSize: 5})

	got, err := c.CollectAll(context.Background())

	assert.Nil(t, got)
	assert.Same(t, upstream, err)
	assert.Len(t, src.requests, 2)
}

func TestCollectAllStopsOnEmptyPage(t *testing.T) {
	src := &fakeSource{pages: map[int]core.Page{
		1: {Items: assets("a", 10), Page: 1, Pages: 50},
		2: {Items: []core.Asset{}, Page: 2, Pages: 50},
	}}
	c, _ := New(src, Config{PageSize: 10})

	got, err := c.CollectAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Len(t, src.requests, 2)
}

func TestCollectAllPageLimit(t *testing.T) {
	pages := map[int]core.Page{}
	for i := 1; i <= 5; i++ {
		pages[i] = core.Page{Items: assets(fmt.Sprint(i), 1), Page: i, Pages: 1_000_000}
	}
	src := &fakeSource{pages: pages}
	c, _ := New(src, Config{PageSize: 1, MaxPages: 3})

	got, err := c.CollectAll(context.Background())

	assert.Nil(t, got)
	assert.ErrorIs(t, err, core.ErrPageLimit)
	var re *core.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Page)
	assert.Len(t, src.requests, 3)
}

func TestCollectAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{}
	c, _ := New(src, Config{})

	_, err := c.CollectAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.requests)
}

func TestCollectAllAgainstMemoryStore(t *testing.T) {
	seed := make([]core.Asset, 0, 237)
	for i := 0; i < 237; i++ {
		seed = append(seed, core.Asset{WID: fmt.Sprintf("w%d", i), PrimaryAssetCategory: "Bank"})
	}
	c, _ := New(memory.New(seed...), Config{})

	got, err := c.CollectAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 237)
	seen := map[string]bool{}
	for _, a := range got {
		assert.False(t, seen[a.WID], "duplicate %s", a.WID)
		seen[a.WID] = true
	}
}

func TestWithFiltersLeavesOriginalUntouched(t *testing.T) {
	c, _ := New(&fakeSource{}, Config{})
	f := c.WithFilters(core.Filters{Category: "Bank"})

	assert.Equal(t, "Bank", f.cfg.Filters.Category)
	assert.True(t, c.cfg.Filters.IsZero())
}
