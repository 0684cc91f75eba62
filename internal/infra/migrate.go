package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/debatequest/platform/db"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// RunMigrations applies all pending migrations for the configured store driver.
// The memory driver has no schema and is a no-op.
func RunMigrations(cfg *Config, logger *slog.Logger) error {
	var (
		fsys fs.FS
		dir  string
	)
	switch cfg.StoreDriver {
	case DriverPostgres:
		fsys, dir = db.PostgresFS, "migrations/postgres"
	case DriverSQLite:
		fsys, dir = db.SQLiteFS, "migrations/sqlite"
	default:
		return nil
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrationURL())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied", "driver", cfg.StoreDriver, "version", version, "dirty", dirty)

	return nil
}
