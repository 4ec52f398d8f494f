// Package storage keeps ledgers in SQLite. Worksheets and their rows are
// stored generically so the same monthly-ledger logic runs unchanged on top.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"pengeluaran/internal/sheets"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

type sqliteTable struct {
	repo  *SQLiteRepository
	id    int64
	title string
}

var (
	_ sheets.Spreadsheet = (*SQLiteRepository)(nil)
	_ sheets.Table       = (*sqliteTable)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Worksheet(ctx context.Context, name string) (sheets.Table, error) {
	w, err := r.queries.GetWorksheetByTitle(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", sheets.ErrWorksheetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get worksheet %q: %w", name, err)
	}
	return &sqliteTable{repo: r, id: w.ID, title: w.Title}, nil
}

func (r *SQLiteRepository) AddWorksheet(ctx context.Context, name string, rows, cols int) (sheets.Table, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid worksheet size %dx%d", rows, cols)
	}
	w, err := r.queries.CreateWorksheet(ctx, CreateWorksheetParams{
		Title:    name,
		RowCount: int64(rows),
		ColCount: int64(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("create worksheet %q: %w", name, err)
	}
	return &sqliteTable{repo: r, id: w.ID, title: w.Title}, nil
}

// Titles lists worksheet names in creation order.
func (r *SQLiteRepository) Titles(ctx context.Context) ([]string, error) {
	titles, err := r.queries.ListWorksheetTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	return titles, nil
}

// EventProcessed reports whether eventID was already mirrored.
func (r *SQLiteRepository) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := r.queries.EventProcessed(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", eventID, err)
	}
	return ok, nil
}

// MarkEventProcessed records eventID. Marking twice is a no-op.
func (r *SQLiteRepository) MarkEventProcessed(ctx context.Context, eventID string) error {
	if err := r.queries.MarkEventProcessed(ctx, eventID); err != nil {
		return fmt.Errorf("mark event %s: %w", eventID, err)
	}
	return nil
}

func (t *sqliteTable) ID() int64 { return t.id }

func (t *sqliteTable) Title() string { return t.title }

func (t *sqliteTable) AppendRow(ctx context.Context, values []any) error {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = cellText(v)
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if err := t.repo.queries.InsertRow(ctx, t.id, string(data)); err != nil {
		return fmt.Errorf("append row to %q: %w", t.title, err)
	}
	return nil
}

func (t *sqliteTable) Header(ctx context.Context) ([]string, error) {
	raw, err := t.repo.queries.FirstRow(ctx, t.id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %q: %w", t.title, err)
	}
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decode header of %q: %w", t.title, err)
	}
	return cells, nil
}

func (t *sqliteTable) Records(ctx context.Context) ([]sheets.Record, error) {
	raw, err := t.repo.queries.ListRows(ctx, t.id)
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", t.title, err)
	}
	grid := make([][]string, 0, len(raw))
	for _, r := range raw {
		var cells []string
		if err := json.Unmarshal([]byte(r), &cells); err != nil {
			return nil, fmt.Errorf("decode row of %q: %w", t.title, err)
		}
		grid = append(grid, cells)
	}
	return sheets.RecordsFromValues(grid), nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case decimal.Decimal:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
