package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pengeluaran/internal/core"
	"pengeluaran/internal/sheets"
)

// Line is one ledger row shown in a summary.
type Line struct {
	Timestamp string
	Category  string
	// Amount is the parsed value when the cell is valid, otherwise the
	// cell text without its currency prefix.
	Amount string
	Note   string
	// Valid is false when Amount did not parse and was left out of the total.
	Valid bool
}

// Summary lists a day's rows and their total.
type Summary struct {
	Day   string
	Lines []Line
	Total decimal.Decimal
}

func (s Summary) Empty() bool { return len(s.Lines) == 0 }

// Summarize keeps the records whose timestamp starts with day's date and
// totals their amounts. Rows with malformed amounts are listed but add
// nothing to the total.
func Summarize(records []sheets.Record, day time.Time) Summary {
	prefix := day.Format(core.DateLayout)
	sum := Summary{Day: prefix, Total: decimal.Zero}
	for _, rec := range records {
		if !strings.HasPrefix(strings.TrimSpace(rec[Header[0]]), prefix) {
			continue
		}
		cell := rec[Header[2]]
		line := Line{
			Timestamp: rec[Header[0]],
			Category:  rec[Header[1]],
			Amount:    strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cell), "Rp")),
			Note:      rec[Header[3]],
		}
		if amt, err := core.ParseLedgerAmount(cell); err == nil {
			line.Amount = amt.String()
			line.Valid = true
			sum.Total = sum.Total.Add(amt)
		}
		sum.Lines = append(sum.Lines, line)
	}
	return sum
}
