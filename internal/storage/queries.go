package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Worksheet struct {
	ID       int64
	Title    string
	RowCount int64
	ColCount int64
}

const getWorksheetByTitle = `
SELECT id, title, row_count, col_count FROM worksheets WHERE title = ?
`

func (q *Queries) GetWorksheetByTitle(ctx context.Context, title string) (Worksheet, error) {
	row := q.db.QueryRowContext(ctx, getWorksheetByTitle, title)
	var w Worksheet
	err := row.Scan(&w.ID, &w.Title, &w.RowCount, &w.ColCount)
	return w, err
}

const createWorksheet = `
INSERT INTO worksheets (title, row_count, col_count) VALUES (?, ?, ?)
RETURNING id, title, row_count, col_count
`

type CreateWorksheetParams struct {
	Title    string
	RowCount int64
	ColCount int64
}

func (q *Queries) CreateWorksheet(ctx context.Context, arg CreateWorksheetParams) (Worksheet, error) {
	row := q.db.QueryRowContext(ctx, createWorksheet, arg.Title, arg.RowCount, arg.ColCount)
	var w Worksheet
	err := row.Scan(&w.ID, &w.Title, &w.RowCount, &w.ColCount)
	return w, err
}

const listWorksheetTitles = `
SELECT title FROM worksheets ORDER BY id
`

func (q *Queries) ListWorksheetTitles(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listWorksheetTitles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		items = append(items, title)
	}
	return items, rows.Err()
}

const insertRow = `
INSERT INTO worksheet_rows (worksheet_id, cells) VALUES (?, ?)
`

func (q *Queries) InsertRow(ctx context.Context, worksheetID int64, cells string) error {
	_, err := q.db.ExecContext(ctx, insertRow, worksheetID, cells)
	return err
}

const listRows = `
SELECT cells FROM worksheet_rows WHERE worksheet_id = ? ORDER BY id
`

func (q *Queries) ListRows(ctx context.Context, worksheetID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listRows, worksheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		items = append(items, cells)
	}
	return items, rows.Err()
}

const firstRow = `
SELECT cells FROM worksheet_rows WHERE worksheet_id = ? ORDER BY id LIMIT 1
`

// FirstRow returns sql.ErrNoRows when the worksheet has no rows.
func (q *Queries) FirstRow(ctx context.Context, worksheetID int64) (string, error) {
	var cells string
	err := q.db.QueryRowContext(ctx, firstRow, worksheetID).Scan(&cells)
	return cells, err
}

const eventProcessed = `
SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = ?)
`

func (q *Queries) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, eventProcessed, eventID).Scan(&exists)
	return exists, err
}

const markEventProcessed = `
INSERT OR IGNORE INTO processed_events (event_id) VALUES (?)
`

func (q *Queries) MarkEventProcessed(ctx context.Context, eventID string) error {
	_, err := q.db.ExecContext(ctx, markEventProcessed, eventID)
	return err
}
