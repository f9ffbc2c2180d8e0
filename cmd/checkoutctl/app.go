package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/services"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/events"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/checkoutapi"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/redisstore"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/sqlite"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
	"github.com/spf13/cobra"
)

// app holds everything a command needs to drive payment handlers.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	repo      application.PaymentRepository
	closeRepo func() error

	loop     *looper.Loop
	stopLoop context.CancelFunc
	registry *services.Registry

	publisher events.Publisher
	relay     *events.ResultRelay
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (application.PaymentRepository, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		repo, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case config.StorePostgres:
		db, err := persistence.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPaymentRepository(db), func() error { db.Close(); return nil }, nil
	case config.StoreRedis:
		repo, err := redisstore.Open(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case config.StoreMemory:
		return memory.NewPaymentRepository(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		return nil, err
	}

	client := checkoutapi.NewClient(checkoutapi.NewHTTPPoster(cfg.CheckoutAPI), logger)
	api := checkoutapi.NewRetryClient(client, cfg.Retry)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := looper.New()
	loop.Start(loopCtx)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		closeRepo: closeRepo,
		loop:      loop,
		stopLoop:  stopLoop,
		registry:  services.NewRegistry(loop, repo, api, cfg.Handler, logger),
	}

	if cfg.Events.Enabled {
		a.publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, logger)
		a.relay = events.NewResultRelay(a.publisher, logger)
	}

	logger.Debug("checkoutctl ready",
		"env", cfg.Primary.Env,
		"store", cfg.Store.Driver,
		"events", cfg.Events.Enabled,
	)
	return a, nil
}

// handler resolves a reference argument to a live handler.
func (a *app) handler(ctx context.Context, arg string) (*services.PaymentHandler, error) {
	ref, err := domain.ParsePaymentReference(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid payment reference %q: %w", arg, err)
	}

	h, err := a.registry.PaymentHandler(ctx, ref)
	if err != nil {
		if errors.Is(err, application.ErrPaymentSessionNotFound) {
			return nil, fmt.Errorf("no payment session for reference %s", ref)
		}
		return nil, err
	}

	if a.relay != nil {
		if err := a.loop.Do(ctx, func() { a.relay.Watch(h) }); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Close waits for background writes and publishes before releasing the
// store.
func (a *app) Close() {
	a.registry.Close()

	// Flush work the closed handlers posted back to the loop.
	_ = a.loop.Do(context.Background(), func() {})

	if a.relay != nil {
		a.relay.Wait()
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close event publisher", "error", err)
		}
	}

	if err := a.closeRepo(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
	a.stopLoop()
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
