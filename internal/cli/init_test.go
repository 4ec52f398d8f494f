package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"pengeluaran/internal/config"
	apphttp "pengeluaran/internal/http"
	"pengeluaran/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "warn"})
	if logger.Component() != log.ComponentApp {
		t.Fatalf("component = %q", logger.Component())
	}
	if logger.Enabled(context.Background(), -4) {
		t.Fatal("debug must be disabled at warn level")
	}
}

func TestInitSQLite(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})

	repo, err := InitSQLite(logger, filepath.Join(t.TempDir(), "nested", "mirror.db"))
	if err != nil {
		t.Fatalf("InitSQLite() error = %v", err)
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestServeHealthStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	cleaned := make(chan struct{})
	srv := apphttp.NewServer("127.0.0.1:0", nil)
	ServeHealth(gctx, g, srv, log.Nop(), func() { close(cleaned) })

	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop")
	}
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup was not called")
	}
}
