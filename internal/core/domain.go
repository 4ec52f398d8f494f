package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category labels. The set is closed: buttons and ledger rows only ever
// carry one of these.
const (
	Makan        Category = "Makan"
	Jajan        Category = "Jajan"
	Hiburan      Category = "Hiburan"
	Transportasi Category = "Transportasi"
	Bulanan      Category = "Bulanan"
	Lainnya      Category = "Lainnya"
)

const (
	// TimestampLayout is how entry timestamps are written to a ledger.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is the day prefix of TimestampLayout.
	DateLayout = "2006-01-02"
)

type (
	Category string

	// LedgerEntry is one committed expense row.
	LedgerEntry struct {
		Timestamp time.Time
		Category  Category
		Amount    decimal.Decimal
		Note      string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrZeroTimestamp     = errors.New("timestamp cannot be zero")
)

// ValidationError reports user input that could not be turned into a value.
type ValidationError struct {
	Field string
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Categories returns the category labels in menu order.
func Categories() []Category {
	return []Category{Makan, Jajan, Hiburan, Transportasi, Bulanan, Lainnya}
}

// ParseCategory matches label against the closed category set.
func ParseCategory(label string) (Category, error) {
	label = strings.TrimSpace(label)
	for _, c := range Categories() {
		if string(c) == label {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Input: label, Err: ErrUnknownCategory}
}

func (c Category) String() string {
	return string(c)
}

func (e LedgerEntry) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// Row renders the entry in ledger column order. The amount stays a
// decimal so adapters can store it as a number.
func (e LedgerEntry) Row() []any {
	return []any{
		e.Timestamp.Format(TimestampLayout),
		string(e.Category),
		e.Amount,
		e.Note,
	}
}
