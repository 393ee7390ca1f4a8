package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names that steer loading itself.
const (
	envPrefix     = "RANKING_"
	envConfigPath = "RANKING_CONFIG"
	envDotFile    = "RANKING_ENV_FILE"
	defaultDotEnv = ".env"

	metricsEnvGroup = "metrics_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RANKING_CONFIG is set
//  3. env (prefix RANKING_), including values from a .env file
//
// A .env file never overrides variables already present in the process environment.
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RANKING_DB_DSN -> db_dsn. Flat keys keep underscores to match koanf tags;
	// RANKING_METRICS_REFRESH_INTERVAL -> metrics.refresh_interval.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
		if rest, ok := strings.CutPrefix(key, metricsEnvGroup); ok {
			return "metrics." + rest
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBDSN) == "":
		return fmt.Errorf("%w: db_dsn must not be empty", ErrInvalidConfig)
	case c.DefaultPageSize < 1:
		return fmt.Errorf("%w: default_page_size must be positive", ErrInvalidConfig)
	case c.MaxPageSize < c.DefaultPageSize:
		return fmt.Errorf("%w: max_page_size must be >= default_page_size", ErrInvalidConfig)
	}
	if err := c.Metrics.validate(); err != nil {
		return err
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverPgx:
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	return nil
}

func (m Metrics) validate() error {
	switch {
	case strings.TrimSpace(m.Namespace) == "":
		return fmt.Errorf("%w: metrics.namespace must not be empty", ErrInvalidConfig)
	case m.RefreshInterval <= 0:
		return fmt.Errorf("%w: metrics.refresh_interval must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(m.Buckets); i++ {
		if m.Buckets[i] <= m.Buckets[i-1] {
			return fmt.Errorf("%w: metrics.buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// loadDotEnv reads RANKING_ENV_FILE (or ./.env) into the process environment when present.
func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	explicit := path != ""
	if !explicit {
		path = defaultDotEnv
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}
