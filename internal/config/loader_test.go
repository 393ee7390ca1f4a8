package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/ranking/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Keep a stray ./.env in the package directory from leaking into tests.
		_ = os.Setenv("RANKING_ENV_FILE", writeTempFile(t, "empty.env", ""))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 3)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RANKING_ADDR", ":9090")
			_ = os.Setenv("RANKING_DB_DRIVER", "postgres")
			_ = os.Setenv("RANKING_DB_DSN", "postgres://u:p@localhost/ranking?sslmode=disable")
			_ = os.Setenv("RANKING_DEFAULT_PAGE_SIZE", "5")
			_ = os.Setenv("RANKING_MAX_PAGE_SIZE", "50")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.DBDSN, convey.ShouldEqual, "postgres://u:p@localhost/ranking?sslmode=disable")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 5)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
log_format: json
db_driver: pgx
db_dsn: "postgres://localhost/ranking"
default_page_size: 10
`
			_ = os.Setenv("RANKING_CONFIG", writeTempFile(t, "ranking.yaml", yamlContent))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "pgx")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 10)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 100) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
default_page_size: 10
`
			_ = os.Setenv("RANKING_CONFIG", writeTempFile(t, "ranking.yaml", yamlContent))
			_ = os.Setenv("RANKING_ADDR", ":6060") // This should override the file

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")         // Overridden by env
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 10) // From file
			})
		})

		convey.Convey("When loading config with a .env file", func() {
			_ = os.Setenv("RANKING_ENV_FILE", writeTempFile(t, "ranking.env", "RANKING_ADDR=:5050\nRANKING_LOG_LEVEL=debug\n"))
			_ = os.Setenv("RANKING_LOG_LEVEL", "warn") // Process env wins over .env

			cfg, err := config.Load(ctx)

			convey.Convey("Then .env values should apply without overriding the process env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When the explicit .env file does not exist", func() {
			_ = os.Setenv("RANKING_ENV_FILE", "/non/existent/ranking.env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("RANKING_CONFIG", writeTempFile(t, "bad.yaml", `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RANKING_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RANKING_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading metrics settings from environment variables", func() {
			_ = os.Setenv("RANKING_METRICS_ENABLED", "false")
			_ = os.Setenv("RANKING_METRICS_NAMESPACE", "leaderboard")
			_ = os.Setenv("RANKING_METRICS_REFRESH_INTERVAL", "30s")
			_ = os.Setenv("RANKING_METRICS_BUCKETS", "1,5,25")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should land in the nested metrics section", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Metrics.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "leaderboard")
				convey.So(cfg.Metrics.Subsystem, convey.ShouldEqual, "scores") // From defaults
				convey.So(cfg.Metrics.RefreshInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.Metrics.Buckets, convey.ShouldResemble, []float64{1, 5, 25})
			})
		})

		convey.Convey("When loading metrics settings from a YAML file", func() {
			yamlContent := `
metrics:
  subsystem: api
  buckets: [0.5, 1, 2]
  labels:
    region: eu
`
			_ = os.Setenv("RANKING_CONFIG", writeTempFile(t, "ranking.yaml", yamlContent))

			cfg, err := config.Load(ctx)

			convey.Convey("Then the section should merge over the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Metrics.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "ranking")
				convey.So(cfg.Metrics.Subsystem, convey.ShouldEqual, "api")
				convey.So(cfg.Metrics.Buckets, convey.ShouldResemble, []float64{0.5, 1, 2})
				convey.So(cfg.Metrics.Labels, convey.ShouldResemble, map[string]string{"region": "eu"})
			})
		})

		convey.Convey("When metric buckets are not increasing", func() {
			_ = os.Setenv("RANKING_METRICS_BUCKETS", "5,1")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RANKING_DEFAULT_PAGE_SIZE", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RANKING_CONFIG",
		"RANKING_ENV_FILE",
		"RANKING_ADDR",
		"RANKING_LOG_LEVEL",
		"RANKING_LOG_FORMAT",
		"RANKING_DB_DRIVER",
		"RANKING_DB_DSN",
		"RANKING_DB_MAX_OPEN_CONNS",
		"RANKING_DEFAULT_PAGE_SIZE",
		"RANKING_MAX_PAGE_SIZE",
		"RANKING_METRICS_ENABLED",
		"RANKING_METRICS_NAMESPACE",
		"RANKING_METRICS_REFRESH_INTERVAL",
		"RANKING_METRICS_BUCKETS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
