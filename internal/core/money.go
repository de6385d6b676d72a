// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and rendering decimal amounts with a currency.
package core

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an amount carries no currency code.
const DefaultCurrency = money.USD

// ParseMoney converts a decimal string to an exact decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Balances may be negative, so unlike expense amounts
// zero and negative values are accepted.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34, nil
//	ParseMoney("-12,34") -> -12.34, nil
//	ParseMoney("1.2.3")  -> 0, ErrInvalidAmount
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 || digits == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	dots := 0
	for _, r := range digits {
		switch {
		case r == '.':
			dots++
		case !unicode.IsDigit(r):
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if dots > 1 || digits == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatMoney renders an amount with the currency's symbol, grouping and
// fraction digits. Unknown or empty codes fall back to DefaultCurrency.
// Amounts whose minor units overflow int64 are rendered as plain fixed-point
// digits followed by the currency code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || money.GetCurrency(code) == nil {
		code = DefaultCurrency
	}
	// the Money constructor is the only way to get a never-nil currency
	cur := money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		return amount.StringFixed(int32(cur.Fraction)) + " " + code
	}
	return cur.Formatter().Format(minor.IntPart())
}
