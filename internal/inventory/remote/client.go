// Package remote reads assets from another assetview (or compatible) API over HTTP.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"assetview/internal/core"
)

const maxErrorBody = 4 << 10

// Config for the remote client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
	Client    *http.Client
}

// Client implements inventory.Source against GET {base}/assets and {base}/assets/{wid}.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("remote: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: unsupported scheme %q", base.Scheme)
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	c := &Client{base: base, http: hc}
	if cfg.RateLimit > 0 {
		burst := max(1, int(cfg.RateLimit))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// ListPage implements inventory.PageReader. Every failure is a *core.RetrievalError.
func (c *Client) ListPage(ctx context.Context, req core.PageRequest) (core.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("page_size", strconv.Itoa(req.PageSize))
	if req.Filters.Category != "" {
		q.Set("primary_asset_category", req.Filters.Category)
	}
	if req.Filters.Type != "" {
		q.Set("wealth_asset_type", req.Filters.Type)
	}
	if req.Filters.Active != nil {
		q.Set("is_active", strconv.FormatBool(*req.Filters.Active))
	}

	var page core.Page
	if err := c.getJSON(ctx, req.Page, c.endpoint("assets"), q, &page); err != nil {
		return core.Page{}, err
	}
	if page.Pages < 1 {
		return core.Page{}, &core.RetrievalError{Page: req.Page, Err: fmt.Errorf("invalid page count %d in response", page.Pages)}
	}

	slog.DebugContext(ctx, "Fetched remote page",
		"page", req.Page,
		"pages", page.Pages,
		"items", len(page.Items))
	return page, nil
}

// GetAsset implements inventory.AssetGetter.
func (c *Client) GetAsset(ctx context.Context, wid string) (core.Asset, error) {
	var a core.Asset
	err := c.getJSON(ctx, 0, c.endpoint("assets", wid), nil, &a)
	var re *core.RetrievalError
	if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
		return core.Asset{}, core.ErrNotFound
	}
	if err != nil {
		return core.Asset{}, err
	}
	return a, nil
}

func (c *Client) endpoint(parts ...string) *url.URL {
	u := *c.base
	for _, p := range parts {
		u.Path += "/" + url.PathEscape(p)
	}
	return &u
}

func (c *Client) getJSON(ctx context.Context, page int, u *url.URL, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &core.RetrievalError{Page: page, Err: err}
		}
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &core.RetrievalError{Page: page, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &core.RetrievalError{Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		re := &core.RetrievalError{Page: page, StatusCode: resp.StatusCode, Status: resp.Status}
		if detail := errorDetail(body); detail != "" {
			re.Err = errors.New(detail)
		}
		return re
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.RetrievalError{Page: page, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorDetail pulls the "detail" field out of an error body, or returns the
// trimmed body when it is not JSON.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(payload.Detail)
		return string(b)
	}
	return strings.TrimSpace(string(body))
}
