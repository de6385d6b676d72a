package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetview/internal/collector"
	"assetview/internal/core"
)

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://example.com/api/v1/", RateLimit: 2})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/assets", c.endpoint("assets").Path)
	assert.NotNil(t, c.limiter)
}

func TestListPageSendsQueryAndDecodes(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"wid":"w1","primary_asset_category":"Cash","balance_current":"10.25"},
			{"wid":"w2","balance_current":null}],"total":2,"page":1,"page_size":50,"pages":1}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/api/v1"})
	require.NoError(t, err)

	page, err := c.ListPage(context.Background(), core.PageRequest{
		Page:     1,
		PageSize: 50,
		Filters:  core.Filters{Category: "Cash", Type: "Checking", Active: core.BoolPtr(false)},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/assets", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "50", q.Get("page_size"))
	assert.Equal(t, "Cash", q.Get("primary_asset_category"))
	assert.Equal(t, "Checking", q.Get("wealth_asset_type"))
	assert.Equal(t, "false", q.Get("is_active"))

	require.Len(t, page.Items, 2)
	assert.Equal(t, "10.25", page.Items[0].Balance().String())
	assert.Nil(t, page.Items[1].BalanceCurrent)
	assert.Equal(t, 1, page.Pages)
}

func TestListPageNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"database unavailable"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	_, err := c.ListPage(context.Background(), core.PageRequest{Page: 3, PageSize: 10})

	var re *core.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Page)
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
	assert.Contains(t, re.Error(), "database unavailable")
	assert.True(t, re.Temporary())
}

func TestListPageTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url})
	_, err := c.ListPage(context.Background(), core.PageRequest{Page: 1, PageSize: 10})

	var re *core.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.StatusCode)
}

func TestListPageRejectsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[],"pages":0}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	_, err := c.ListPage(context.Background(), core.PageRequest{Page: 1, PageSize: 10})

	var re *core.RetrievalError
	assert.ErrorAs(t, err, &re)
}

func TestGetAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/known" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Asset not found"}`))
			return
		}
		json.NewEncoder(w).Encode(core.Asset{WID: "known", Nickname: "Brokerage"})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	a, err := c.GetAsset(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, "Brokerage", a.Nickname)

	_, err = c.GetAsset(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetAssetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"database unavailable"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	_, err := c.GetAsset(context.Background(), "known")

	var re *core.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 0, re.Page)
	assert.Equal(t, "retrieve asset: 500 Internal Server Error: database unavailable", err.Error())
}

func TestCollectorUsesLargeRemotePages(t *testing.T) {
	var sizes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sizes = append(sizes, r.URL.Query().Get("page_size"))
		json.NewEncoder(w).Encode(core.Page{Items: make([]core.Asset, 3), Total: 3, Page: 1, PageSize: 500, Pages: 1})
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	coll, err := collector.New(c, collector.Config{PageSize: 500})
	require.NoError(t, err)

	got, err := coll.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, []string{"500"}, sizes)
}

func TestCollectorOverRemoteSource(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		n := 100
		if page == 2 {
			n = 37
		}
		items := make([]core.Asset, n)
		for i := range items {
			items[i] = core.Asset{WID: strconv.Itoa(page*1000 + i)}
		}
		json.NewEncoder(w).Encode(core.Page{Items: items, Total: 137, Page: page, PageSize: 100, Pages: 2})
	}))
	defer srv.Close()

	src, _ := New(Config{BaseURL: srv.URL})
	c, err := collector.New(src, collector.Config{PageSize: 100})
	require.NoError(t, err)

	got, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 137)
	assert.EqualValues(t, 2, calls.Load())
}
