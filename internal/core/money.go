// Package core provides amount parsing for chat input.
//
// Amounts are typed the way the ledger's users write them: "25.000",
// "1,000,000" or "15000". Both '.' and ',' are treated as thousand
// separators, so fractional currency input is not supported.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount strips grouping separators from raw and parses the remainder
// as a decimal magnitude.
//
// Examples:
//
//	ParseAmount("1.000.000") -> 1000000, nil
//	ParseAmount("1,000,000") -> 1000000, nil
//	ParseAmount("abc")       -> 0, *ValidationError
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Input: raw, Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Input: raw, Err: ErrInvalidAmount}
	}
	return d, nil
}

// ParseExpenseAmount is ParseAmount for new entries: zero and negative
// values are rejected.
func ParseExpenseAmount(raw string) (decimal.Decimal, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Input: raw, Err: ErrNonPositiveAmount}
	}
	return d, nil
}

// ParseLedgerAmount reads an amount cell as stored in a ledger, which may
// carry a currency prefix ("Rp10,000", "Rp. 5.000").
func ParseLedgerAmount(cell string) (decimal.Decimal, error) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "Rp")
	return ParseAmount(s)
}
