package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/ranking/internal/app"
	"github.com/okian/ranking/internal/config"
	"github.com/okian/ranking/pkg/logger"
	"github.com/okian/ranking/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func memoryDSN() string {
	return "file:" + uuid.NewString() + "?mode=memory"
}

func startedService(t *testing.T) *app.Service {
	t.Helper()
	svc := app.New(app.WithDatabase(config.DriverSQLite, memoryDSN()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given RANKING_ environment variables", t, func() {
		_ = os.Setenv("RANKING_ADDR", ":9090")
		_ = os.Setenv("RANKING_DB_DRIVER", "pgx")
		_ = os.Setenv("RANKING_DEFAULT_PAGE_SIZE", "5")
		defer func() {
			_ = os.Unsetenv("RANKING_ADDR")
			_ = os.Unsetenv("RANKING_DB_DRIVER")
			_ = os.Unsetenv("RANKING_DEFAULT_PAGE_SIZE")
		}()

		convey.Convey("Then configuration should pick them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverPgx)
			convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 5)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("RANKING_ADDR", "")
		defer func() { _ = os.Unsetenv("RANKING_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainHandler(t *testing.T) {
	convey.Convey("Given the assembled handler over a sqlite service", t, func() {
		ctx := context.Background()
		svc := startedService(t)
		handler := newHandler(ctx, svc)

		serve := func(method, target, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, target, strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w
		}

		convey.Convey("When a score is registered and looked up", func() {
			created := serve(http.MethodPost, "/ranking/register", `{"player":"p1","score":7,"time":"20201211174630"}`)
			found := serve(http.MethodGet, "/ranking/searchscore?id=1", "")

			convey.Convey("Then both routes should answer", func() {
				convey.So(created.Code, convey.ShouldEqual, http.StatusCreated)
				convey.So(found.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("And the service metrics update should publish the record count", func() {
				updateServiceMetrics(ctx, svc)
				metricsBody := serve(http.MethodGet, "/healthz", "").Body.String()
				convey.So(metricsBody, convey.ShouldContainSubstring, "ranking_scores_total_records 1")
			})
		})

		convey.Convey("When the docs are requested", func() {
			convey.So(serve(http.MethodGet, "/api-docs", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve(http.MethodGet, "/openapi.yaml", "").Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMainMetricsConfig(t *testing.T) {
	convey.Convey("Given a metrics section with a custom namespace and labels", t, func() {
		cfg := config.New()
		cfg.Metrics.Namespace = "leaderboard"
		cfg.Metrics.Labels = map[string]string{"region": "eu"}
		cfg.Metrics.RefreshInterval = 3 * time.Second

		metrics.Configure(metricsOptions(cfg.Metrics)...)
		convey.Reset(func() { metrics.Configure() })

		ctx := context.Background()
		svc := startedService(t)
		handler := newHandler(ctx, svc)

		convey.Convey("Then /healthz should expose collectors under the configured names", func() {
			updateServiceMetrics(ctx, svc)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

			convey.So(w.Body.String(), convey.ShouldContainSubstring, `leaderboard_scores_total_records{region="eu"} 0`)
			convey.So(w.Body.String(), convey.ShouldNotContainSubstring, "ranking_scores_total_records")
		})

		convey.Convey("Then the updaters should tick at the configured interval", func() {
			convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 3*time.Second)
		})
	})
}

func TestMainRun(t *testing.T) {
	convey.Convey("Given a configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.DBDSN = memoryDSN()
		cfg.LogLevel = "loud"

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			err := run(ctx, cfg)

			convey.Convey("Then run should shut down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given an unsupported driver", t, func() {
		cfg := config.New()
		cfg.DBDriver = "oracle"

		convey.Convey("Then run should fail before serving", func() {
			convey.So(run(context.Background(), cfg), convey.ShouldNotBeNil)
		})
	})
}

func TestMainMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		convey.Convey("Then the system updater should return when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the service updater should return when its context ends", func() {
			svc := startedService(t)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a direct system update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then a service update on a stopped service should be a no-op", func() {
			convey.So(func() { updateServiceMetrics(context.Background(), app.New()) }, convey.ShouldNotPanic)
		})
	})
}
