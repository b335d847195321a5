package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for pitwall-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8088"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (optional job-status mirror)
	Redis RedisConfig `yaml:"redis"`

	// Provider configuration (fastf1 bridge)
	Provider ProviderConfig `yaml:"provider"`

	// Ingest pipeline configuration
	Ingest IngestConfig `yaml:"ingest"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"pitwall"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"pitwall_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis connection configuration. An empty host disables
// the Redis job-status mirror; job status is then served from memory only.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// ProviderConfig holds fastf1 bridge settings.
type ProviderConfig struct {
	// BaseURL of the bridge service exposing FastF1 data as JSON.
	BaseURL string `yaml:"base_url" env:"PROVIDER_BASE_URL" env-default:"http://localhost:8500"`
	// CacheDir is the process-wide on-disk response cache location.
	CacheDir string `yaml:"cache_dir" env:"PROVIDER_CACHE_DIR" env-default:"f1_cache"`
	// ScheduleTTLMinutes is how long season schedules stay cached in memory.
	ScheduleTTLMinutes int `yaml:"schedule_ttl_minutes" env:"PROVIDER_SCHEDULE_TTL_MINUTES" env-default:"15"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// Source is the provenance tag written on every session.
	Source string `yaml:"source" env:"INGEST_SOURCE" env-default:"fastf1"`
	// MaxConcurrent bounds how many ingest tasks may hit the provider at
	// once. 1 serializes provider access.
	MaxConcurrent int `yaml:"max_concurrent" env:"INGEST_MAX_CONCURRENT" env-default:"1"`
	// FirstSeason is the earliest year exposed by the years endpoint.
	FirstSeason int `yaml:"first_season" env:"INGEST_FIRST_SEASON" env-default:"2002"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml does not exist, environment variables and
// defaults alone apply. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Ingest.MaxConcurrent < 1 {
		return nil, fmt.Errorf("ingest.max_concurrent must be at least 1, got %d", cfg.Ingest.MaxConcurrent)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
