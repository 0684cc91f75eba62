package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/debatequest/platform/internal/app"
	"github.com/debatequest/platform/internal/catalog"
	"github.com/debatequest/platform/internal/events"
	"github.com/debatequest/platform/internal/guard"
	"github.com/debatequest/platform/internal/infra"
	"github.com/debatequest/platform/internal/persistence"
	"github.com/debatequest/platform/internal/progression"
	"github.com/debatequest/platform/internal/projection"
	"github.com/debatequest/platform/internal/reaction"
	"github.com/debatequest/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Content
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "title", cat.Title, "levels", len(cat.Levels))

	bus := events.NewBus(logger)

	// Progress storage
	var (
		slots repository.SlotRepository
		db    infra.Pinger
	)
	switch cfg.StoreDriver {
	case infra.DriverPostgres:
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to postgres")

		slots = repository.NewPgSlotRepository(pool)
		db = pool
		bus.Subscribe(events.NewOutboxSink(pool, repository.NewOutboxRepository(), logger))
	case infra.DriverSQLite:
		sqlDB, err := infra.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer sqlDB.Close()
		logger.Info("opened sqlite store", "path", cfg.SQLitePath)

		slots = repository.NewSQLiteSlotRepository(sqlDB)
		db = infra.PingFunc(sqlDB.PingContext)
	default:
		logger.Warn("using in-memory store, progress is lost on exit")
		slots = repository.NewInMemorySlotRepository()
	}

	// Without an outbox, events go straight to Kafka when enabled.
	if cfg.StoreDriver != infra.DriverPostgres && cfg.KafkaEnabled {
		producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
		defer producer.Close()
		bus.Subscribe(events.NewKafkaSink(producer, guard.NewCircuitBreaker(3, 30*time.Second), logger))
	}

	hub := infra.NewWSHub(cfg.CORSAllowedOrigins, logger)
	bus.Subscribe(events.NewHubSink(hub))

	store := persistence.NewAdapter(slots, cfg.StateKey, cat.FirstLevelID(), logger)
	engine := progression.NewEngine(ctx, cat, store, bus, logger)
	stage := reaction.NewStage(ctx, bus, cfg.ReactionInterval, logger)
	projector := projection.NewProjector(projection.NewInMemoryStore(), cat)

	r := app.NewRouter(app.RouterDeps{
		Engine:      engine,
		Projector:   projector,
		Stage:       stage,
		Hub:         hub,
		DB:          db,
		Persistence: store,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	stage.Wait()

	logger.Info("server stopped gracefully")
	return nil
}
