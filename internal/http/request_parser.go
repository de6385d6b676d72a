// Package http provides HTTP server and handler implementations.
//
// This file implements parsing and validation of query parameters shared
// by the inventory and overview endpoints.

package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"assetview/internal/core"
)

// ParamError describes an invalid query or path parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Reason)
}

// ParseFilters reads primary_asset_category, wealth_asset_type and is_active.
// Empty values leave the filter unset.
func ParseFilters(query url.Values) (core.Filters, error) {
	f := core.Filters{
		Category: sanitizeInput(query.Get("primary_asset_category")),
		Type:     sanitizeInput(query.Get("wealth_asset_type")),
	}
	if v := strings.TrimSpace(query.Get("is_active")); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return core.Filters{}, &ParamError{Param: "is_active", Reason: "must be a boolean"}
		}
		f.Active = &b
	}
	return f, nil
}

// ParsePageRequest reads page (default 1) and page_size (default 20) plus
// the filters, and checks them against the paging bounds.
func ParsePageRequest(query url.Values) (core.PageRequest, error) {
	req := core.PageRequest{Page: 1, PageSize: core.DefaultPageSize}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return core.PageRequest{}, &ParamError{Param: "page", Reason: "must be an integer greater than or equal to 1"}
		}
		req.Page = p
	}
	if v := strings.TrimSpace(query.Get("page_size")); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil || s < 1 || s > core.MaxPageSize {
			return core.PageRequest{}, &ParamError{Param: "page_size", Reason: fmt.Sprintf("must be an integer between 1 and %d", core.MaxPageSize)}
		}
		req.PageSize = s
	}

	f, err := ParseFilters(query)
	if err != nil {
		return core.PageRequest{}, err
	}
	req.Filters = f
	return req, nil
}

// ParseWID validates an asset wid path segment.
func ParseWID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", &ParamError{Param: "wid", Reason: "must be a valid UUID"}
	}
	return id.String(), nil
}

// parseBool accepts the spellings query-string clients commonly send.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
