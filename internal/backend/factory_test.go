package backend

import (
	"context"
	"path/filepath"
	"testing"

	"pengeluaran/internal/config"
	"pengeluaran/internal/sheets/memory"
	"pengeluaran/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "mongo"}); err == nil {
		t.Error("unknown backend should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:              "sheets",
		GoogleSpreadsheetID:      "abc",
		GoogleServiceAccountFile: "credentials.json",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleSpreadsheetID != "abc" || cfg.GoogleServiceAccountFile != "credentials.json" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"invalid", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := res.Spreadsheet.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", res.Spreadsheet)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := res.Spreadsheet.(*storage.SQLiteRepository); !ok {
		t.Errorf("expected sqlite repository, got %T", res.Spreadsheet)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := f.CreateBackend(ctx, Config{Type: SheetsBackend, GoogleSpreadsheetID: "abc"}); err == nil {
		t.Error("sheets backend without credentials should fail")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "sqlite" || got[1] != "sheets" || got[2] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}
