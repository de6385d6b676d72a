package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"assetview/internal/core"
)

type (
	// Overview is an ordered, presentation-ready view of a Grouped aggregate.
	Overview struct {
		GrandTotal decimal.Decimal    `json:"grand_total"`
		AssetCount int                `json:"asset_count"`
		Currency   string             `json:"currency"`
		Categories []CategoryOverview `json:"categories"`
	}

	CategoryOverview struct {
		Name          string                `json:"name"`
		Total         decimal.Decimal       `json:"total"`
		AssetCount    int                   `json:"asset_count"`
		Subcategories []SubcategoryOverview `json:"subcategories"`
	}

	SubcategoryOverview struct {
		Name   string          `json:"name"`
		Total  decimal.Decimal `json:"total"`
		Assets []core.Asset    `json:"assets"`
	}
)

// NewOverview orders categories and subcategories by name, case-insensitively.
// Assets keep their input order inside a subcategory.
func NewOverview(g Grouped, grand decimal.Decimal) Overview {
	ov := Overview{
		GrandTotal: grand,
		Categories: make([]CategoryOverview, 0, len(g)),
	}
	currencies := map[string]struct{}{}

	for _, name := range sortedKeys(g) {
		bucket := g[name]
		cat := CategoryOverview{
			Name:          name,
			Total:         bucket.Total,
			Subcategories: make([]SubcategoryOverview, 0, len(bucket.Subcategories)),
		}
		for _, subName := range sortedKeys(bucket.Subcategories) {
			sub := bucket.Subcategories[subName]
			for _, a := range sub.Assets {
				currencies[strings.ToUpper(a.CurrencyCode)] = struct{}{}
			}
			cat.AssetCount += len(sub.Assets)
			cat.Subcategories = append(cat.Subcategories, SubcategoryOverview{
				Name:   subName,
				Total:  sub.Total,
				Assets: sub.Assets,
			})
		}
		ov.AssetCount += cat.AssetCount
		ov.Categories = append(ov.Categories, cat)
	}

	ov.Currency = core.DefaultCurrency
	if len(currencies) == 1 {
		for code := range currencies {
			if code != "" {
				ov.Currency = code
			}
		}
	}
	return ov
}

// IsEmpty reports whether the overview holds no assets.
func (o Overview) IsEmpty() bool { return o.AssetCount == 0 }

// Category returns the named category, if present.
func (o Overview) Category(name string) (CategoryOverview, bool) {
	for _, c := range o.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryOverview{}, false
}

// Subcategory returns the named subcategory, if present.
func (c CategoryOverview) Subcategory(name string) (SubcategoryOverview, bool) {
	for _, s := range c.Subcategories {
		if s.Name == name {
			return s, true
		}
	}
	return SubcategoryOverview{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
