package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetview/internal/core"
)

func bal(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func asset(wid, category, subcategory string, balance *decimal.Decimal) core.Asset {
	return core.Asset{
		WID:                  wid,
		PrimaryAssetCategory: category,
		WealthAssetType:      subcategory,
		BalanceCurrent:       balance,
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      core.Asset
		wantCat string
		wantSub string
		wantAmt string
	}{
		{"classified", asset("a", "Bank", "Checking", bal("10.5")), "Bank", "Checking", "10.5"},
		{"missing both", asset("b", "", "", bal("3")), Other, Other, "3"},
		{"missing subcategory", asset("c", "Investment", "", nil), "Investment", Other, "0"},
		{"whitespace category kept verbatim", asset("d", "  ", "Savings", bal("-1")), "  ", "Savings", "-1"},
		{"tab subcategory kept verbatim", asset("e", " ", "\t", bal("2")), " ", "\t", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, sub, amt := Normalize(tt.in)
			assert.Equal(t, tt.wantCat, cat)
			assert.Equal(t, tt.wantSub, sub)
			assert.True(t, amt.Equal(decimal.RequireFromString(tt.wantAmt)), "amount %s", amt)
		})
	}
}

func TestAggregateWhitespaceClassifiersFormOwnBuckets(t *testing.T) {
	grouped, grand := Aggregate([]core.Asset{
		asset("1", " ", "\t", bal("5")),
		asset("2", "", "", bal("7")),
	})

	assert.True(t, grand.Equal(decimal.NewFromInt(12)))
	require.Len(t, grouped, 2)
	ws, ok := grouped[" "]
	require.True(t, ok)
	sub, ok := ws.Subcategories["\t"]
	require.True(t, ok)
	assert.True(t, sub.Total.Equal(decimal.NewFromInt(5)))
	other, ok := grouped[Other]
	require.True(t, ok)
	assert.True(t, other.Total.Equal(decimal.NewFromInt(7)))
}

func TestAggregateMixedBalances(t *testing.T) {
	assets := []core.Asset{
		asset("1", "Bank", "Checking", bal("100")),
		asset("2", "Bank", "Savings", bal("250")),
		asset("3", "", "", bal("-50")),
	}

	grouped, grand := Aggregate(assets)

	assert.True(t, grand.Equal(decimal.NewFromInt(300)), "grand total %s", grand)
	require.Contains(t, grouped, "Bank")
	assert.True(t, grouped["Bank"].Total.Equal(decimal.NewFromInt(350)))
	require.Contains(t, grouped, Other)
	require.Contains(t, grouped[Other].Subcategories, Other)
	assert.True(t, grouped[Other].Subcategories[Other].Total.Equal(decimal.NewFromInt(-50)))
}

func TestAggregateEmpty(t *testing.T) {
	grouped, grand := Aggregate(nil)

	assert.NotNil(t, grouped)
	assert.Empty(t, grouped)
	assert.True(t, grand.IsZero())
}

func TestAggregateInvariants(t *testing.T) {
	assets := []core.Asset{
		asset("1", "Bank", "Checking", bal("12.34")),
		asset("2", "Bank", "Checking", bal("0.66")),
		asset("3", "Bank", "", nil),
		asset("4", "Investment", "Brokerage", bal("1000")),
		asset("5", "Investment", "Retirement", bal("-200.5")),
		asset("6", "", "Cash", bal("7")),
	}

	grouped, grand := Aggregate(assets)

	seen := map[string]int{}
	for catName, cat := range grouped {
		assert.NotEmpty(t, catName)
		subSum := decimal.Zero
		for subName, sub := range cat.Subcategories {
			assert.NotEmpty(t, subName)
			assetSum := decimal.Zero
			for _, a := range sub.Assets {
				assetSum = assetSum.Add(a.Balance())
				seen[a.WID]++
			}
			assert.True(t, sub.Total.Equal(assetSum), "%s/%s total %s != %s", catName, subName, sub.Total, assetSum)
			subSum = subSum.Add(sub.Total)
		}
		assert.True(t, cat.Total.Equal(subSum), "%s total %s != %s", catName, cat.Total, subSum)
	}

	assert.Len(t, seen, len(assets))
	for wid, n := range seen {
		assert.Equal(t, 1, n, "asset %s placed %d times", wid, n)
	}
	assert.True(t, grand.Equal(grouped.Total()))
	assert.Equal(t, len(assets), grouped.AssetCount())
}

func TestAggregatePreservesInputOrder(t *testing.T) {
	assets := []core.Asset{
		asset("first", "Bank", "Checking", bal("1")),
		asset("other", "Bank", "Savings", bal("1")),
		asset("second", "Bank", "Checking", bal("1")),
		asset("third", "Bank", "Checking", bal("1")),
	}

	grouped, _ := Aggregate(assets)

	var wids []string
	for _, a := range grouped["Bank"].Subcategories["Checking"].Assets {
		wids = append(wids, a.WID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, wids)
}

func TestAggregateIsDeterministic(t *testing.T) {
	assets := []core.Asset{
		asset("1", "Bank", "Checking", bal("1.10")),
		asset("2", "Crypto", "", bal("2.20")),
		asset("3", "", "", nil),
	}

	first, firstTotal := Aggregate(assets)
	second, secondTotal := Aggregate(assets)

	assert.True(t, firstTotal.Equal(secondTotal))
	require.Len(t, second, len(first))
	for name, cat := range first {
		require.Contains(t, second, name)
		assert.True(t, cat.Total.Equal(second[name].Total))
		assert.Equal(t, cat.AssetCount(), second[name].AssetCount())
	}

	// a second run must not share buckets with the first
	first["Bank"].Total = decimal.NewFromInt(999)
	assert.True(t, second["Bank"].Total.Equal(decimal.RequireFromString("1.10")))
}

func TestAggregateDecimalPrecision(t *testing.T) {
	assets := make([]core.Asset, 0, 10)
	for i := 0; i < 10; i++ {
		assets = append(assets, asset("x", "Cash", "Wallet", bal("0.1")))
	}

	grouped, grand := Aggregate(assets)

	assert.Equal(t, "1", grand.String())
	assert.True(t, grouped["Cash"].Subcategories["Wallet"].Total.Equal(decimal.NewFromInt(1)))
}

func TestAggregateNegativeBalancesSubtract(t *testing.T) {
	assets := []core.Asset{
		asset("1", "Liabilities", "Credit Card", bal("-1500.25")),
		asset("2", "Liabilities", "Loan", bal("-20000")),
		asset("3", "Bank", "Checking", bal("500")),
	}

	grouped, grand := Aggregate(assets)

	assert.True(t, grouped["Liabilities"].Total.Equal(decimal.RequireFromString("-21500.25")))
	assert.True(t, grand.Equal(decimal.RequireFromString("-21000.25")))
}
