package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetview/internal/aggregate"
	"assetview/internal/collector"
	"assetview/internal/core"
	"assetview/internal/inventory/memory"
	"assetview/internal/services"
)

var checkingWID = uuid.NewString()

type failingOverview struct{ err error }

func (f failingOverview) Overview(context.Context, core.Filters) (aggregate.Overview, error) {
	return aggregate.Overview{}, f.err
}

func bal(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleStore() *memory.Store {
	return memory.New(
		core.Asset{WID: checkingWID, AssetID: "a-1", Nickname: "Checking", PrimaryAssetCategory: "Bank", WealthAssetType: "Checking", BalanceCurrent: bal("100"), IsActive: core.BoolPtr(true)},
		core.Asset{AssetID: "a-2", PrimaryAssetCategory: "Bank", WealthAssetType: "Savings", BalanceCurrent: bal("250"), IsActive: core.BoolPtr(true)},
		core.Asset{AssetID: "a-3", BalanceCurrent: bal("-50"), IsActive: core.BoolPtr(false)},
	)
}

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	store := sampleStore()
	c, err := collector.New(store, collector.Config{PageSize: 2})
	require.NoError(t, err)

	opts := Options{
		Source:   store,
		Importer: store,
		Overview: services.NewPortfolioService(c, nil, nil),
		SeedFile: filepath.Join(t.TempDir(), "missing.json"),
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := NewServer(":0", opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, rr))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestListAssets(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/api/v1/assets?page_size=2")
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[core.Page](t, rr)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Items, 2)

	rr = do(t, srv, http.MethodGet, "/api/v1/assets?primary_asset_category=Bank&is_active=true")
	require.Equal(t, http.StatusOK, rr.Code)
	page = decode[core.Page](t, rr)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Pages)
	assert.Equal(t, 20, page.PageSize)
}

func TestListAssetsInvalidParams(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, q := range []string{"page=0", "page_size=101", "page_size=x", "is_active=sometimes"} {
		rr := do(t, srv, http.MethodGet, "/api/v1/assets?"+q)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, q)
		assert.NotEmpty(t, decode[ErrorBody](t, rr).Detail, q)
	}
}

func TestGetAsset(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/api/v1/assets/"+checkingWID)
	require.Equal(t, http.StatusOK, rr.Code)
	asset := decode[core.Asset](t, rr)
	assert.Equal(t, "Checking", asset.Nickname)
	assert.True(t, asset.Balance().Equal(decimal.NewFromInt(100)))

	rr = do(t, srv, http.MethodGet, "/api/v1/assets/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Asset not found", decode[ErrorBody](t, rr).Detail)

	rr = do(t, srv, http.MethodGet, "/api/v1/assets/not-a-uuid")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestOverview(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/api/v1/overview")
	require.Equal(t, http.StatusOK, rr.Code)
	ov := decode[aggregate.Overview](t, rr)
	assert.True(t, ov.GrandTotal.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 3, ov.AssetCount)
	require.Len(t, ov.Categories, 2)
	assert.Equal(t, "Bank", ov.Categories[0].Name)
	assert.Equal(t, aggregate.Other, ov.Categories[1].Name)

	rr = do(t, srv, http.MethodGet, "/api/v1/overview?is_active=true")
	require.Equal(t, http.StatusOK, rr.Code)
	ov = decode[aggregate.Overview](t, rr)
	assert.True(t, ov.GrandTotal.Equal(decimal.NewFromInt(350)))

	rr = do(t, srv, http.MethodGet, "/api/v1/overview?primary_asset_category=Nothing")
	require.Equal(t, http.StatusOK, rr.Code)
	ov = decode[aggregate.Overview](t, rr)
	assert.True(t, ov.GrandTotal.IsZero())
	assert.Empty(t, ov.Categories)
}

func TestOverviewRetrievalFailure(t *testing.T) {
	cause := &core.RetrievalError{Page: 2, StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable", Err: errors.New("upstream down")}
	srv := newTestServer(t, func(o *Options) { o.Overview = failingOverview{err: cause} })

	rr := do(t, srv, http.MethodGet, "/api/v1/overview")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, decode[ErrorBody](t, rr).Detail, "page 2")
}

func TestOverviewUnexpectedFailure(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.Overview = failingOverview{err: errors.New("boom")} })

	rr := do(t, srv, http.MethodGet, "/api/v1/overview")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"assetId":"new-1","primaryAssetCategory":"Cash","wealthAssetType":"Wallet","balanceCurrent":"12.50"},
		{"assetId":"a-1","primaryAssetCategory":"Bank","wealthAssetType":"Checking","balanceCurrent":100}
	]`), 0o644))
	srv := newTestServer(t, func(o *Options) { o.SeedFile = path })

	rr := do(t, srv, http.MethodPost, "/api/v1/seed")
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[SeedResponse](t, rr)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "Successfully seeded 1 assets", res.Message)
	assert.NotNil(t, res.Errors)

	rr = do(t, srv, http.MethodPost, "/api/v1/seed")
	res = decode[SeedResponse](t, rr)
	assert.Equal(t, "All 2 assets already exist in the database", res.Message)
}

func TestSeedMissingFile(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/v1/seed")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decode[ErrorBody](t, rr).Detail, "Seed file not found")
}

func TestSeedReadOnlyBackend(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.Importer = nil })

	rr := do(t, srv, http.MethodPost, "/api/v1/seed")

	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodDelete, "/api/v1/assets").Code)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.RateLimitRPS = 0.001
		o.RateLimitBurst = 2
	})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health").Code)
	rr := do(t, srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestExtractClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", extractClientIP(r))

	r.RemoteAddr = "198.51.100.2:5555"
	assert.Equal(t, "198.51.100.2", extractClientIP(r), "untrusted peers cannot spoof forwarding headers")
}
