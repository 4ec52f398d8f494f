package memory

import (
	"context"
	"fmt"
	"sync"

	"pengeluaran/internal/sheets"
)

// Store is an in-process spreadsheet. Tables are kept as string grids.
type Store struct {
	mu     sync.Mutex
	nextID int64
	tables map[string]*Table
	order  []string
}

// Table is one in-memory worksheet.
type Table struct {
	store *Store
	id    int64
	title string
	rows  [][]string
}

var (
	_ sheets.Spreadsheet = (*Store)(nil)
	_ sheets.Table       = (*Table)(nil)
)

func New() *Store {
	return &Store{tables: make(map[string]*Table)}
}

func (s *Store) Worksheet(_ context.Context, name string) (sheets.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheets.ErrWorksheetNotFound, name)
	}
	return t, nil
}

func (s *Store) AddWorksheet(_ context.Context, name string, rows, cols int) (sheets.Table, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid worksheet size %dx%d", rows, cols)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return nil, fmt.Errorf("worksheet %q already exists", name)
	}
	s.nextID++
	t := &Table{store: s, id: s.nextID, title: name}
	s.tables[name] = t
	s.order = append(s.order, name)
	return t, nil
}

// Titles lists worksheet names in creation order.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (t *Table) ID() int64 { return t.id }

func (t *Table) Title() string { return t.title }

// AppendRow stores the row with every value rendered through fmt.Sprint.
func (t *Table) AppendRow(_ context.Context, values []any) error {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.rows = append(t.rows, row)
	return nil
}

func (t *Table) Header(_ context.Context) ([]string, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if len(t.rows) == 0 {
		return nil, nil
	}
	return append([]string(nil), t.rows[0]...), nil
}

func (t *Table) Records(_ context.Context) ([]sheets.Record, error) {
	return sheets.RecordsFromValues(t.Rows()), nil
}

// Rows returns a copy of the raw grid, header included.
func (t *Table) Rows() [][]string {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
