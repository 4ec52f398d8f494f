package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestOpen_MissingSpreadsheetID(t *testing.T) {
	_, err := Open(context.Background(), Options{SpreadsheetID: "   "})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing spreadsheet id" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpen_MissingCredentials(t *testing.T) {
	old := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	defer os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", old)
	os.Unsetenv("GOOGLE_APPLICATION_CREDENTIALS")

	_, err := Open(context.Background(), Options{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected credentials error, got: %v", err)
	}
}

func TestOpen_UnreadableCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	_, err := Open(context.Background(), Options{SpreadsheetID: "test-id", CredentialsFile: path})
	if err == nil {
		t.Fatal("expected error for missing credentials file")
	}
	if !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got: %v", err)
	}
}

func TestSpreadsheetIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-d_E/edit#gid=0", "1AbC-d_E"},
		{"https://docs.google.com/spreadsheets/d/xyz", "xyz"},
		{"  1AbC-d_E  ", "1AbC-d_E"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SpreadsheetIDFromURL(tt.in); got != tt.want {
			t.Errorf("SpreadsheetIDFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestA1Range(t *testing.T) {
	tests := []struct {
		title, cell, want string
	}{
		{"Oktober", "A1", "'Oktober'!A1"},
		{"2026 Oktober", "", "'2026 Oktober'"},
		{"Rina's", "A1", "'Rina''s'!A1"},
	}
	for _, tt := range tests {
		if got := a1Range(tt.title, tt.cell); got != tt.want {
			t.Errorf("a1Range(%q, %q) = %q, want %q", tt.title, tt.cell, got, tt.want)
		}
	}
}

func TestFindSheet(t *testing.T) {
	sheets := []*gsheet.Sheet{
		nil,
		{Properties: &gsheet.SheetProperties{SheetId: 1, Title: "September"}},
		{Properties: &gsheet.SheetProperties{SheetId: 7, Title: "Oktober"}},
	}
	if p := findSheet(sheets, "Oktober"); p == nil || p.SheetId != 7 {
		t.Fatalf("expected Oktober with id 7, got %+v", p)
	}
	if p := findSheet(sheets, "oktober"); p != nil {
		t.Fatalf("lookup must be exact, got %+v", p)
	}
}

func TestCellValue(t *testing.T) {
	if v, ok := cellValue(decimal.NewFromInt(15000)).(float64); !ok || v != 15000 {
		t.Fatalf("decimal should become float64, got %#v", cellValue(decimal.NewFromInt(15000)))
	}
	if v := cellValue("nasi goreng"); v != "nasi goreng" {
		t.Fatalf("strings pass through, got %#v", v)
	}
}

func TestToGrid(t *testing.T) {
	grid := toGrid([][]any{{"Waktu", "Jumlah"}, {"2026-10-17 09:00:00", 10000.0}, {" x "}})
	if grid[1][1] != "10000" {
		t.Fatalf("expected number rendered without exponent, got %q", grid[1][1])
	}
	if grid[2][0] != "x" {
		t.Fatalf("expected trimmed cell, got %q", grid[2][0])
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Worksheet(context.Background(), "Oktober"); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
	if _, err := c.AddWorksheet(context.Background(), "Oktober", 1000, 100); err == nil {
		t.Fatal("expected error")
	}
}
