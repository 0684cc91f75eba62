//go:build integration

package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/debatequest/platform/internal/app"
	"github.com/debatequest/platform/internal/catalog"
	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/events"
	"github.com/debatequest/platform/internal/infra"
	"github.com/debatequest/platform/internal/persistence"
	"github.com/debatequest/platform/internal/progression"
	"github.com/debatequest/platform/internal/projection"
	"github.com/debatequest/platform/internal/reaction"
	"github.com/debatequest/platform/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TestDBHost = "localhost"
	TestDBPort = 5435
	TestDBUser = "debatequest"
	TestDBPass = "debatequest"
	TestDBName = "debatequest_test"
	TestKey    = "debateQuestProgress"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server  *httptest.Server
	Pool    *pgxpool.Pool
	Catalog *domain.Catalog
	Store   *persistence.Adapter
	t       *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testConfig() *infra.Config {
	return &infra.Config{
		StoreDriver: infra.DriverPostgres,
		PGHost:      envOr("PGHOST", TestDBHost),
		PGPort:      TestDBPort,
		PGUser:      TestDBUser,
		PGPassword:  TestDBPass,
		PGDatabase:  TestDBName,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ensureTestDB(cfg *infra.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bootstrap := *cfg
	bootstrap.PGDatabase = "postgres"
	bPool, err := pgxpool.New(ctx, bootstrap.DSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.PGDatabase).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}
	if !exists {
		if _, err := bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", cfg.PGDatabase)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		cfg := testConfig()
		if err := ensureTestDB(cfg); err != nil {
			poolErr = err
			return
		}
		if err := infra.RunMigrations(cfg, Logger()); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sharedPool, poolErr = infra.NewPostgresPool(ctx, cfg)
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// Logger returns a discarding logger unless TEST_VERBOSE is set.
func Logger() *slog.Logger {
	if os.Getenv("TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestEnv creates a test environment with an httptest.Server backed by
// the real router, the Postgres slot store and the event outbox.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	env := &TestEnv{Pool: pool, Catalog: cat, t: t}
	env.CleanAll()
	env.Restart()

	t.Cleanup(func() {
		env.Server.Close()
		env.CleanAll()
	})
	return env
}

// Restart replaces the server with a fresh engine that restores its state
// from Postgres, as a process restart would.
func (env *TestEnv) Restart() {
	env.t.Helper()
	if env.Server != nil {
		env.Server.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	env.t.Cleanup(cancel)
	logger := Logger()

	bus := events.NewBus(logger)
	bus.Subscribe(events.NewOutboxSink(env.Pool, repository.NewOutboxRepository(), logger))
	hub := infra.NewWSHub("*", logger)
	bus.Subscribe(events.NewHubSink(hub))

	env.Store = persistence.NewAdapter(repository.NewPgSlotRepository(env.Pool), TestKey, env.Catalog.FirstLevelID(), logger)
	engine := progression.NewEngine(ctx, env.Catalog, env.Store, bus, logger)
	stage := reaction.NewStage(ctx, bus, time.Millisecond, logger)

	router := app.NewRouter(app.RouterDeps{
		Engine:      engine,
		Projector:   projection.NewProjector(projection.NewInMemoryStore(), env.Catalog),
		Stage:       stage,
		Hub:         hub,
		DB:          env.Pool,
		Persistence: env.Store,
		CORSOrigins: "*",
		Logger:      logger,
	})
	env.Server = httptest.NewServer(router)
}
