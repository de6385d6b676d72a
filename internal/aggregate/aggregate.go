// Package aggregate groups assets into a category → subcategory hierarchy and
// computes totals at every level.
//
// Aggregate is a pure function of its input: it performs no I/O and builds a
// fresh Grouped value on every call. Totals use exact decimal arithmetic, so
// many small balances sum without binary floating-point drift.
package aggregate

import (
	"github.com/shopspring/decimal"

	"assetview/internal/core"
)

// Other is the bucket name for assets without a category or subcategory.
const Other = "Other"

type (
	// SubcategoryBucket holds the assets of one subcategory in input order.
	SubcategoryBucket struct {
		Total  decimal.Decimal
		Assets []core.Asset
	}

	// CategoryBucket holds the subcategories of one category.
	CategoryBucket struct {
		Total         decimal.Decimal
		Subcategories map[string]*SubcategoryBucket
	}

	// Grouped maps category name to its bucket. Keys are never empty.
	Grouped map[string]*CategoryBucket
)

// Normalize resolves the bucket keys and the amount an asset contributes.
// Empty classifiers become Other and a missing balance becomes zero. Any
// other value, whitespace included, is used verbatim.
func Normalize(a core.Asset) (category, subcategory string, amount decimal.Decimal) {
	category = classifier(a.PrimaryAssetCategory)
	subcategory = classifier(a.WealthAssetType)
	return category, subcategory, a.Balance()
}

func classifier(s string) string {
	if s == "" {
		return Other
	}
	return s
}

// Aggregate groups assets and returns the hierarchy with the grand total.
// An empty input yields an empty Grouped and a zero total.
func Aggregate(assets []core.Asset) (Grouped, decimal.Decimal) {
	grouped := make(Grouped)
	grand := decimal.Zero

	for _, a := range assets {
		category, subcategory, amount := Normalize(a)

		cat, ok := grouped[category]
		if !ok {
			cat = &CategoryBucket{Total: decimal.Zero, Subcategories: make(map[string]*SubcategoryBucket)}
			grouped[category] = cat
		}
		sub, ok := cat.Subcategories[subcategory]
		if !ok {
			sub = &SubcategoryBucket{Total: decimal.Zero}
			cat.Subcategories[subcategory] = sub
		}

		sub.Assets = append(sub.Assets, a)
		sub.Total = sub.Total.Add(amount)
		cat.Total = cat.Total.Add(amount)
		grand = grand.Add(amount)
	}

	return grouped, grand
}

// Total sums the category totals.
func (g Grouped) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range g {
		sum = sum.Add(c.Total)
	}
	return sum
}

// AssetCount returns the number of assets across all buckets.
func (g Grouped) AssetCount() int {
	n := 0
	for _, c := range g {
		n += c.AssetCount()
	}
	return n
}

// AssetCount returns the number of assets in the category.
func (c *CategoryBucket) AssetCount() int {
	n := 0
	for _, s := range c.Subcategories {
		n += len(s.Assets)
	}
	return n
}
