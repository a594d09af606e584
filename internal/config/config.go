// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Cursor policies applied when a chat's stored cursor is not among the
// fetched messages.
const (
	CursorPolicyResync = "resync"
	CursorPolicyFail   = "fail"
)

type Config struct {
	Spanner SpannerConfig `envPrefix:"SPANNER_"`
	HTTP    HTTPConfig    `envPrefix:"HTTP_"`
	Kafka   KafkaConfig   `envPrefix:"KAFKA_"`
	Ingest  IngestConfig  `envPrefix:"INGEST_"`
	Sync    SyncConfig    `envPrefix:"SYNC_"`
	Catalog CatalogConfig `envPrefix:"CATALOG_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

type SpannerConfig struct {
	Database string `env:"DATABASE" envDefault:"projects/test-project/instances/dev-instance/databases/chatsync-db"`
}

type HTTPConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"chat.messages"`
	GroupID string   `env:"GROUP_ID" envDefault:"chatsync"`
}

type IngestConfig struct {
	Window       int           `env:"WINDOW" envDefault:"1000"`
	CursorPolicy string        `env:"CURSOR_POLICY" envDefault:"resync"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"2m"`
	// MediaConcurrency bounds parallel image downloads per product.
	MediaConcurrency int `env:"MEDIA_CONCURRENCY" envDefault:"4"`
}

type SyncConfig struct {
	MaxAttempts       int64         `env:"MAX_ATTEMPTS" envDefault:"1"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT" envDefault:"30m"`
	PollInterval      time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"10s"`
	StallTimeout      time.Duration `env:"STALL_TIMEOUT" envDefault:"1m"`
}

type CatalogConfig struct {
	Driver string  `env:"DRIVER" envDefault:"memory"`
	RPS    float64 `env:"RPS" envDefault:"2"`
	Burst  int     `env:"BURST" envDefault:"4"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return Parse()
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	switch c.Ingest.CursorPolicy {
	case CursorPolicyResync, CursorPolicyFail:
	default:
		errs = append(errs, fmt.Errorf("INGEST_CURSOR_POLICY must be %q or %q, got %q",
			CursorPolicyResync, CursorPolicyFail, c.Ingest.CursorPolicy))
	}
	if c.Ingest.Window < 1 {
		errs = append(errs, fmt.Errorf("INGEST_WINDOW must be positive, got %d", c.Ingest.Window))
	}
	if c.Sync.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1, got %d", c.Sync.MaxAttempts))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
