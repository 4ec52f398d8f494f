// Package ledger appends expense entries to month-partitioned tables and
// reads them back for daily summaries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"pengeluaran/internal/cache"
	"pengeluaran/internal/core"
	"pengeluaran/internal/log"
	"pengeluaran/internal/sheets"
)

// Header is the first row of every monthly ledger.
var Header = []string{"Waktu", "Kategori", "Jumlah", "Catatan"}

const (
	DefaultRows      = 1000
	DefaultCols      = 100
	DefaultHandleTTL = 10 * time.Minute
)

// StoreError reports a failed ledger operation against the tabular store.
type StoreError struct {
	Op     string
	Ledger string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger %s %q: %v", e.Op, e.Ledger, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Options tunes a Store. Zero values fall back to the defaults.
type Options struct {
	Rows      int
	Cols      int
	WithYear  bool
	Location  *time.Location
	HandleTTL time.Duration
	Logger    *log.Logger
}

// Store is the only writer of monthly ledgers.
type Store struct {
	book     sheets.Spreadsheet
	tables   *cache.LRUCache[sheets.Table]
	group    singleflight.Group
	logger   *log.Logger
	rows     int
	cols     int
	withYear bool
	loc      *time.Location
}

func NewStore(book sheets.Spreadsheet, opts Options) *Store {
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = DefaultCols
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HandleTTL == 0 {
		opts.HandleTTL = DefaultHandleTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Store{
		book:     book,
		tables:   cache.NewLRUCache[sheets.Table](24, opts.HandleTTL),
		logger:   opts.Logger.WithComponent(log.ComponentLedger),
		rows:     opts.Rows,
		cols:     opts.Cols,
		withYear: opts.WithYear,
		loc:      opts.Location,
	}
}

// Cache exposes the handle cache so a cache.Manager can sweep it.
func (s *Store) Cache() cache.Cleaner { return s.tables }

// Location is the zone entries are stamped and bucketed in.
func (s *Store) Location() *time.Location { return s.loc }

// Name returns the ledger name that holds entries committed at t.
func (s *Store) Name(t time.Time) string {
	return core.LedgerName(t.In(s.loc), s.withYear)
}

// Resolve returns the ledger for t's month, creating it with its header row
// when it does not exist yet. Concurrent calls for one month share a single
// lookup.
func (s *Store) Resolve(ctx context.Context, t time.Time) (sheets.Table, error) {
	name := s.Name(t)
	if tbl, ok := s.tables.Get(name); ok {
		return tbl, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		if tbl, ok := s.tables.Get(name); ok {
			return tbl, nil
		}
		tbl, err := s.resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		s.tables.Set(name, tbl)
		return tbl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(sheets.Table), nil
}

func (s *Store) resolve(ctx context.Context, name string) (sheets.Table, error) {
	tbl, err := s.book.Worksheet(ctx, name)
	if err == nil {
		return s.ensureHeader(ctx, name, tbl)
	}
	if !errors.Is(err, sheets.ErrWorksheetNotFound) {
		return nil, &StoreError{Op: log.OpResolve, Ledger: name, Err: err}
	}

	tbl, err = s.book.AddWorksheet(ctx, name, s.rows, s.cols)
	if err != nil {
		// Another writer may have created it in the meantime.
		if existing, lookupErr := s.book.Worksheet(ctx, name); lookupErr == nil {
			return s.ensureHeader(ctx, name, existing)
		}
		return nil, &StoreError{Op: log.OpCreate, Ledger: name, Err: err}
	}

	if err := s.writeHeader(ctx, name, tbl); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Ledger created", log.FieldLedger, name)
	return tbl, nil
}

// ensureHeader writes the header into an existing ledger that has no rows,
// which is what a failed header write during creation leaves behind.
func (s *Store) ensureHeader(ctx context.Context, name string, tbl sheets.Table) (sheets.Table, error) {
	header, err := tbl.Header(ctx)
	if err != nil {
		return nil, &StoreError{Op: log.OpResolve, Ledger: name, Err: err}
	}
	if len(header) > 0 {
		return tbl, nil
	}
	if err := s.writeHeader(ctx, name, tbl); err != nil {
		return nil, err
	}
	s.logger.WarnContext(ctx, "Ledger header restored", log.FieldLedger, name)
	return tbl, nil
}

func (s *Store) writeHeader(ctx context.Context, name string, tbl sheets.Table) error {
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := tbl.AppendRow(ctx, header); err != nil {
		return &StoreError{Op: log.OpCreate, Ledger: name, Err: fmt.Errorf("write header: %w", err)}
	}
	return nil
}

// Append writes entry as one row of its month's ledger. The timestamp is
// rendered in the store's zone.
func (s *Store) Append(ctx context.Context, entry core.LedgerEntry) error {
	name := s.Name(entry.Timestamp)
	if err := entry.Validate(); err != nil {
		return &StoreError{Op: log.OpValidate, Ledger: name, Err: err}
	}
	entry.Timestamp = entry.Timestamp.In(s.loc)

	tbl, err := s.Resolve(ctx, entry.Timestamp)
	if err != nil {
		return err
	}
	if err := tbl.AppendRow(ctx, entry.Row()); err != nil {
		s.tables.Delete(name)
		return &StoreError{Op: log.OpAppend, Ledger: name, Err: err}
	}

	s.logger.DebugContext(ctx, "Entry appended",
		log.NewFields().WithEntry(name, entry.Category.String(), entry.Amount.String()).ToSlice()...)
	return nil
}

// Records reads every data row of the ledger for t's month.
func (s *Store) Records(ctx context.Context, t time.Time) ([]sheets.Record, error) {
	tbl, err := s.Resolve(ctx, t)
	if err != nil {
		return nil, err
	}
	recs, err := tbl.Records(ctx)
	if err != nil {
		name := s.Name(t)
		s.tables.Delete(name)
		return nil, &StoreError{Op: log.OpRead, Ledger: name, Err: err}
	}
	return recs, nil
}

// Daily summarizes the entries recorded on now's calendar day.
func (s *Store) Daily(ctx context.Context, now time.Time) (Summary, error) {
	now = now.In(s.loc)
	recs, err := s.Records(ctx, now)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs, now), nil
}
