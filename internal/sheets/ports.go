package sheets

import (
	"context"
	"errors"
)

// ErrWorksheetNotFound is returned by Spreadsheet.Worksheet when no table
// carries the requested name.
var ErrWorksheetNotFound = errors.New("worksheet not found")

// Ports for outbound adapters.
type (
	// Spreadsheet is a named collection of tables.
	Spreadsheet interface {
		// Worksheet returns the table titled name or ErrWorksheetNotFound.
		Worksheet(ctx context.Context, name string) (Table, error)
		// AddWorksheet creates an empty table sized rows x cols.
		AddWorksheet(ctx context.Context, name string, rows, cols int) (Table, error)
	}

	// Table is an append-only grid whose first row is the header.
	Table interface {
		ID() int64
		Title() string
		AppendRow(ctx context.Context, values []any) error
		// Header returns the first row, or nil when the table is empty.
		Header(ctx context.Context) ([]string, error)
		// Records returns every row after the header keyed by header cell.
		Records(ctx context.Context) ([]Record, error)
	}

	// Record is one data row keyed by the header row. Missing cells are "".
	Record map[string]string
)

// RecordsFromValues turns a raw grid into header-keyed records. The first
// row is the header; empty header cells are ignored and short rows are
// padded with "".
func RecordsFromValues(values [][]string) []Record {
	if len(values) < 2 {
		return nil
	}
	header := values[0]
	out := make([]Record, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(Record, len(header))
		empty := true
		for i, key := range header {
			if key == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if v != "" {
				empty = false
			}
			rec[key] = v
		}
		if empty {
			continue
		}
		out = append(out, rec)
	}
	return out
}
