// Package report renders an aggregate.Overview for terminals and documents.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"assetview/internal/aggregate"
	"assetview/internal/core"
)

// Options control how much detail a rendering includes.
type Options struct {
	// ShowAssets lists every asset under its subcategory.
	ShowAssets bool
}

// Text writes the overview as a bordered table followed by the grand total.
func Text(w io.Writer, ov aggregate.Overview, opts Options) error {
	if ov.IsEmpty() {
		_, err := fmt.Fprintln(w, "No assets found.")
		return err
	}

	money := func(d decimal.Decimal) string { return core.FormatMoney(d, ov.Currency) }

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Category", "Subcategory", "Assets", "Total").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if col >= 2 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	for _, cat := range ov.Categories {
		t.Row(cat.Name, "", strconv.Itoa(cat.AssetCount), money(cat.Total))
		for _, sub := range cat.Subcategories {
			t.Row("", sub.Name, strconv.Itoa(len(sub.Assets)), money(sub.Total))
			if opts.ShowAssets {
				for _, a := range sub.Assets {
					t.Row("", "  "+a.DisplayName(), "", core.FormatMoney(a.Balance(), currencyOf(a, ov.Currency)))
				}
			}
		}
	}

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total: %s (%d assets)\n", money(ov.GrandTotal), ov.AssetCount)
	return err
}

// Markdown renders the overview as a GitHub-flavoured Markdown document.
func Markdown(ov aggregate.Overview, opts Options) string {
	var b strings.Builder
	money := func(d decimal.Decimal) string { return core.FormatMoney(d, ov.Currency) }

	b.WriteString("# Asset Overview\n\n")
	fmt.Fprintf(&b, "**Total:** %s across %d assets\n\n", money(ov.GrandTotal), ov.AssetCount)

	if ov.IsEmpty() {
		b.WriteString("_No assets found._\n")
		return b.String()
	}

	b.WriteString("| Category | Assets | Total |\n|---|---:|---:|\n")
	for _, cat := range ov.Categories {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", escape(cat.Name), cat.AssetCount, money(cat.Total))
	}

	for _, cat := range ov.Categories {
		fmt.Fprintf(&b, "\n## %s\n\n", escape(cat.Name))
		b.WriteString("| Subcategory | Assets | Total |\n|---|---:|---:|\n")
		for _, sub := range cat.Subcategories {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", escape(sub.Name), len(sub.Assets), money(sub.Total))
		}
		if !opts.ShowAssets {
			continue
		}
		for _, sub := range cat.Subcategories {
			fmt.Fprintf(&b, "\n### %s\n\n", escape(sub.Name))
			for _, a := range sub.Assets {
				fmt.Fprintf(&b, "- %s: %s\n", escape(a.DisplayName()), core.FormatMoney(a.Balance(), currencyOf(a, ov.Currency)))
			}
		}
	}
	return b.String()
}

// RenderMarkdown styles md for a terminal. style is a glamour standard style
// name ("dark", "light", "notty", ...); empty picks one from the terminal.
func RenderMarkdown(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}

// Asset writes a key/value listing of one asset.
func Asset(w io.Writer, a core.Asset) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return lipgloss.NewStyle().PaddingRight(2) })

	add := func(k, v string) {
		if v != "" {
			t.Row(k, v)
		}
	}
	add("Name", a.DisplayName())
	add("WID", a.WID)
	add("Asset ID", a.AssetID)
	add("Category", a.PrimaryAssetCategory)
	add("Type", a.WealthAssetType)
	add("Balance", core.FormatMoney(a.Balance(), a.CurrencyCode))
	if a.BalanceCostBasis != nil {
		add("Cost basis", core.FormatMoney(*a.BalanceCostBasis, a.CurrencyCode))
	}
	if a.BalanceAsOf != nil {
		add("As of", a.BalanceAsOf.Format("2006-01-02"))
	}
	add("Institution", a.InstitutionName)
	if a.IsActive != nil {
		add("Active", strconv.FormatBool(*a.IsActive))
	}
	add("Note", a.Note)

	_, err := fmt.Fprintln(w, t.String())
	return err
}

func currencyOf(a core.Asset, fallback string) string {
	if a.CurrencyCode != "" {
		return a.CurrencyCode
	}
	return fallback
}

// escape keeps names from breaking table cells.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
