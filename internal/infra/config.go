package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Progress storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"debatequest.db"`
	StateKey    string `env:"STATE_KEY" envDefault:"debateQuestProgress"`

	// Database
	DatabaseURL   string `env:"DATABASE_URL"`
	PGHost        string `env:"PGHOST" envDefault:"localhost"`
	PGPort        int    `env:"PGPORT" envDefault:"5432"`
	PGUser        string `env:"PGUSER" envDefault:"debatequest"`
	PGPassword    string `env:"PGPASSWORD" envDefault:"debatequest"`
	PGDatabase    string `env:"PGDATABASE" envDefault:"debatequest"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Content
	CatalogPath string `env:"CATALOG_PATH"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Outbox relay
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Finale reaction pacing
	ReactionInterval time.Duration `env:"REACTION_INTERVAL" envDefault:"2s"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres; got %q", c.StoreDriver)
	}
	if c.StateKey == "" {
		return fmt.Errorf("STATE_KEY must not be empty")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval)
	}
	if c.ReactionInterval <= 0 {
		return fmt.Errorf("REACTION_INTERVAL must be positive, got %s", c.ReactionInterval)
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// MigrationURL returns the golang-migrate database URL for the active driver.
func (c *Config) MigrationURL() string {
	if c.StoreDriver == DriverSQLite {
		return "sqlite3://" + c.SQLitePath
	}
	return c.DSN()
}
