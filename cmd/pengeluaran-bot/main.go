package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/backend"
	"pengeluaran/internal/bot"
	"pengeluaran/internal/cache"
	"pengeluaran/internal/cli"
	"pengeluaran/internal/config"
	"pengeluaran/internal/discord"
	apphttp "pengeluaran/internal/http"
	"pengeluaran/internal/ledger"
	"pengeluaran/internal/log"
	"pengeluaran/internal/ratelimit"
	"pengeluaran/internal/session"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).Validate)

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	ledgers := ledger.NewStore(store.Spreadsheet, ledger.Options{
		Rows:     cfg.LedgerRows,
		Cols:     cfg.LedgerCols,
		WithYear: cfg.LedgerYearPrefix,
		Location: loc,
		Logger:   logger,
	})
	sessions := session.NewStore(session.Options{
		TTL:       cfg.SessionTTL,
		MaxActive: cfg.SessionMaxActive,
	})

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register("sessions", sessions)
	caches.Register("ledger_handles", ledgers.Cache())
	caches.StartCleanup(cfg.CacheSweepInterval)
	defer caches.Stop()

	transportOpts := discord.Options{
		ChannelID: cfg.DiscordChannelID,
		Timeout:   cfg.HandlerTimeout,
		Logger:    logger,
	}
	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{EventsPerMinute: cfg.RateLimitPerMinute})
		caches.Register("rate_limit", limiter)
		transportOpts.Limiter = limiter
	}
	transport, err := discord.New(cfg.DiscordBotToken, transportOpts)
	if err != nil {
		return err
	}

	opts := []bot.Option{
		bot.WithLogger(logger),
		bot.WithClock(func() time.Time { return time.Now().In(loc) }),
	}

	health := apphttp.NewServer(":"+cfg.HealthPort, logger)
	health.AddCheck("discord", func(context.Context) error {
		if !transport.Ready() {
			return errors.New("discord session not open")
		}
		return nil
	})
	health.AddGauge("sessions_active", "Conversations in progress", func() int64 { return int64(sessions.Len()) })
	if limiter != nil {
		health.AddGauge("rate_limit_hits_total", "Events dropped by the per-user rate limit", limiter.Hits)
	}

	if cfg.AMQPURL != "" {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, entry events disabled", log.FieldError, err)
		} else {
			defer publisher.Close()
			opts = append(opts, bot.WithPublisher(publisher))
			health.AddCheck("amqp", publisher.Check)
			logger.Info("Publishing entry events", "exchange", cfg.AMQPExchange)
		}
	}

	transport.SetHandler(bot.New(transport, ledgers, sessions, opts...))
	if err := transport.Open(); err != nil {
		return err
	}
	logger.Info("Starting pengeluaran bot",
		log.FieldBackend, cfg.DataBackend,
		"port", cfg.HealthPort,
		"timezone", loc.String())

	g, gctx := errgroup.WithContext(ctx)
	cli.ServeHealth(gctx, g, health, logger, func() {
		if err := transport.Close(); err != nil {
			logger.Error("Discord close error", log.FieldError, err)
		}
	})
	return g.Wait()
}
