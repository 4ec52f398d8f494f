package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/cache"
	"pengeluaran/internal/cli"
	"pengeluaran/internal/config"
	apphttp "pengeluaran/internal/http"
	"pengeluaran/internal/ledger"
	"pengeluaran/internal/log"
	"pengeluaran/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger.Info("Starting ledger-worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo, err := cli.InitSQLite(logger, cfg.MirrorDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	mirror := ledger.NewStore(repo, ledger.Options{
		Rows:     cfg.LedgerRows,
		Cols:     cfg.LedgerCols,
		WithYear: cfg.LedgerYearPrefix,
		Location: loc,
		Logger:   logger,
	})

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register("ledger_handles", mirror.Cache())
	caches.StartCleanup(cfg.CacheSweepInterval)
	defer caches.Stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}
	defer client.Close()

	w := worker.NewMirrorWorker(mirror, repo, logger)

	health := apphttp.NewServer(":"+cfg.HealthPort, logger)
	health.AddCheck("storage", repo.Ping)
	health.AddCheck("amqp", client.Check)
	health.AddGauge("entries_mirrored_total", "Entries appended to the mirror ledger", func() int64 { return w.Stats().Mirrored })
	health.AddGauge("entries_duplicate_total", "Redelivered entries skipped", func() int64 { return w.Stats().Duplicates })
	health.AddGauge("entries_failed_total", "Entries that failed to mirror", func() int64 { return w.Stats().Failed })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeEntryRecorded(gctx, w.HandleEntryRecorded)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			return err
		}
		return nil
	})
	cli.ServeHealth(gctx, g, health, logger, nil)

	logger.Info("Consuming entry events", "queue", cfg.AMQPQueue, "port", cfg.HealthPort)
	return g.Wait()
}
