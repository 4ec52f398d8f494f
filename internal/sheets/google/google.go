package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "pengeluaran/internal/sheets"
)

// Client is a spreadsheet opened by identifier through the Sheets v4 API.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

type worksheet struct {
	c     *Client
	id    int64
	title string
}

// Ensure interface conformance
var (
	_ ports.Spreadsheet = (*Client)(nil)
	_ ports.Table       = (*worksheet)(nil)
)

// Options selects the spreadsheet and the service account used to reach it.
type Options struct {
	// SpreadsheetID may also be a full spreadsheet URL.
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

var spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SpreadsheetIDFromURL extracts the identifier from a spreadsheet URL. Input
// that is not a URL is returned trimmed.
func SpreadsheetIDFromURL(s string) string {
	s = strings.TrimSpace(s)
	if m := spreadsheetURLPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// Open creates a Sheets client bound to one spreadsheet.
func Open(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := SpreadsheetIDFromURL(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over the credentials file.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Worksheet(ctx context.Context, name string) (ports.Table, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	props := findSheet(resp.Sheets, name)
	if props == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrWorksheetNotFound, name)
	}
	return &worksheet{c: c, id: props.SheetId, title: props.Title}, nil
}

func (c *Client) AddWorksheet(ctx context.Context, name string, rows, cols int) (ports.Table, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{
					Title: name,
					GridProperties: &gsheet.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", name, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return nil, fmt.Errorf("add sheet %s: empty reply", name)
	}
	props := resp.Replies[0].AddSheet.Properties
	return &worksheet{c: c, id: props.SheetId, title: props.Title}, nil
}

func (w *worksheet) ID() int64 { return w.id }

func (w *worksheet) Title() string { return w.title }

// AppendRow adds values after the last non-empty row. Values are written
// RAW so timestamps keep their text form.
func (w *worksheet) AppendRow(ctx context.Context, values []any) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = cellValue(v)
	}
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := w.c.svc.Spreadsheets.Values.Append(w.c.spreadsheetID, a1Range(w.title, "A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", w.title, err)
	}
	return nil
}

func (w *worksheet) Header(ctx context.Context) ([]string, error) {
	rng := a1Range(w.title, "1:1")
	resp, err := w.c.svc.Spreadsheets.Values.Get(w.c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	grid := toGrid(resp.Values)
	if len(grid) == 0 {
		return nil, nil
	}
	return grid[0], nil
}

func (w *worksheet) Records(ctx context.Context) ([]ports.Record, error) {
	rng := a1Range(w.title, "")
	resp, err := w.c.svc.Spreadsheets.Values.Get(w.c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return ports.RecordsFromValues(toGrid(resp.Values)), nil
}

func findSheet(sheets []*gsheet.Sheet, title string) *gsheet.SheetProperties {
	for _, s := range sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		if s.Properties.Title == title {
			return s.Properties
		}
	}
	return nil
}

// a1Range quotes a sheet title for A1 notation and appends cell when set.
func a1Range(title, cell string) string {
	q := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if cell == "" {
		return q
	}
	return q + "!" + cell
}

// cellValue maps values to what the API serializes as a number where it can.
func cellValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}

func toGrid(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cols := make([]string, len(row))
		for j, v := range row {
			cols[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		out[i] = cols
	}
	return out
}
