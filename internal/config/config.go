package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	HTTP      HTTPConfig
	Store     StoreConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	DND5E     DND5EConfig
	Combat    CombatConfig
	Telemetry TelemetryConfig
}

// HTTPConfig holds transport configuration
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StoreConfig selects the game-state backend
type StoreConfig struct {
	Driver     string        `env:"STORE_DRIVER" envDefault:"redis"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
}

// RedisConfig holds Redis-specific configuration. URL wins over Addr when set.
type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	// Channel is the pub/sub channel combat events are pushed to
	Channel string `env:"REDIS_EVENTS_CHANNEL" envDefault:"dm-table:events"`
}

// SQLiteConfig holds the SQLite store location
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"dm-table.db"`
}

// DND5EConfig holds D&D 5e API configuration
type DND5EConfig struct {
	Enabled bool          `env:"DND5E_ENABLED" envDefault:"true"`
	Timeout time.Duration `env:"DND5E_TIMEOUT" envDefault:"10s"`
}

// CombatConfig tunes the combat engine
type CombatConfig struct {
	MaxConflictRetries int `env:"COMBAT_MAX_CONFLICT_RETRIES" envDefault:"3"`
}

// TelemetryConfig enables OTLP trace export
type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"dm-table"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values env parsing cannot
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreRedis, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of redis, sqlite, memory; got %q", c.Store.Driver)
	}

	if c.Store.Driver == StoreSQLite && c.SQLite.Path == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
	}
	if c.Combat.MaxConflictRetries < 0 {
		return fmt.Errorf("COMBAT_MAX_CONFLICT_RETRIES cannot be negative")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is set")
	}

	return nil
}
