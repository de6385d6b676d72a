package google

import (
	"assetview/internal/aggregate"
)

var header = []any{"Category", "Subcategory", "Assets", "Total", "Currency"}

// overviewRows lays the overview out one category row followed by its
// subcategory rows, closed by a grand total row. Totals are decimal strings.
func overviewRows(ov aggregate.Overview) [][]any {
	rows := make([][]any, 0, 2+len(ov.Categories)*3)
	rows = append(rows, header)
	for _, c := range ov.Categories {
		rows = append(rows, []any{c.Name, "", c.AssetCount, c.Total.String(), ov.Currency})
		for _, s := range c.Subcategories {
			rows = append(rows, []any{"", s.Name, len(s.Assets), s.Total.String(), ov.Currency})
		}
	}
	rows = append(rows, []any{"Total", "", ov.AssetCount, ov.GrandTotal.String(), ov.Currency})
	return rows
}
