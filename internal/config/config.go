// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and RANKING_* env vars.
// - Validation failures wrap ErrInvalidConfig; provider failures wrap ErrLoadConfig.
package config

import "time"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver names the database/sql driver: sqlite, postgres or pgx.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver specific data source name.
	DBDSN string `koanf:"db_dsn"`

	// DBMaxOpenConns caps the connection pool. Ignored for sqlite, which is pinned to one.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`

	// DefaultPageSize applies when a search request omits size.
	DefaultPageSize int `koanf:"default_page_size"`

	// MaxPageSize caps the size query parameter.
	MaxPageSize int `koanf:"max_page_size"`

	// Metrics configures the Prometheus collectors served at /healthz.
	Metrics Metrics `koanf:"metrics"`
}

// Metrics holds collector naming and refresh settings.
type Metrics struct {
	Enabled         bool              `koanf:"enabled"`
	Namespace       string            `koanf:"namespace"`
	Subsystem       string            `koanf:"subsystem"`
	Buckets         []float64         `koanf:"buckets"`
	RefreshInterval time.Duration     `koanf:"refresh_interval"`
	Labels          map[string]string `koanf:"labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		DBDriver:        DriverSQLite,
		DBDSN:           "file:ranking.db?_pragma=busy_timeout(5000)",
		DBMaxOpenConns:  10,
		DefaultPageSize: 3,
		MaxPageSize:     100,
		Metrics: Metrics{
			Enabled:         true,
			Namespace:       "ranking",
			Subsystem:       "scores",
			RefreshInterval: 10 * time.Second,
		},
	}
}
