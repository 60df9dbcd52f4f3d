package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. ROOMD_AUTH_SECRET.
const EnvPrefix = "ROOMD"

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	LogLevel string         `yaml:"log_level" split_words:"true"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" split_words:"true"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" split_words:"true"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" split_words:"true"`
	ShutdownSeconds int     `yaml:"shutdown_seconds" split_words:"true"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns           int    `yaml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" split_words:"true"`
}

// AuthConfig configures bearer token signing and credential hashing.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	Issuer          string        `yaml:"issuer"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes" split_words:"true"`
	TokenTTL        time.Duration `yaml:"-" ignored:"true"`
	LeewaySeconds   int           `yaml:"leeway_seconds" split_words:"true"`
	BcryptCost      int           `yaml:"bcrypt_cost" split_words:"true"`
}

// CatalogConfig configures slot provisioning.
type CatalogConfig struct {
	SeedFile        string            `yaml:"seed_file" split_words:"true"`
	SyncEnabled     bool              `yaml:"sync_enabled" split_words:"true"`
	SyncURL         string            `yaml:"sync_url" split_words:"true"`
	HTTPProxy       string            `yaml:"http_proxy" envconfig:"HTTP_PROXY"`
	Headers         map[string]string `yaml:"headers" ignored:"true"`
	PageSize        int               `yaml:"page_size" split_words:"true"`
	IntervalSeconds int               `yaml:"interval_seconds" split_words:"true"`
	Interval        time.Duration     `yaml:"-" ignored:"true"`
}

// Load reads the configuration from the given path, then applies environment
// overrides and defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret must be set (or %s_AUTH_SECRET)", EnvPrefix)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds < 0 {
		cfg.Server.CacheTTLSeconds = 0
	}
	if cfg.Server.ShutdownSeconds <= 0 {
		cfg.Server.ShutdownSeconds = 5
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "studyroom"
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	if cfg.Auth.BcryptCost <= 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Catalog.PageSize <= 0 {
		cfg.Catalog.PageSize = 100
	}
	if cfg.Catalog.IntervalSeconds <= 0 {
		cfg.Catalog.IntervalSeconds = 300
	}
	cfg.Catalog.Interval = time.Duration(cfg.Catalog.IntervalSeconds) * time.Second
	if cfg.Catalog.SyncEnabled && cfg.Catalog.SyncURL == "" {
		slog.Warn("catalog.sync_enabled is set without catalog.sync_url; disabling sync")
		cfg.Catalog.SyncEnabled = false
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
