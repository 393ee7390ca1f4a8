package seed

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ranking/internal/adapters/http/api"
	service "github.com/okian/ranking/internal/app"
	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
	"github.com/okian/ranking/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type noStats struct{}

func (noStats) GetStats() map[string]interface{} { return map[string]interface{}{} }

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	svc := service.New(service.WithDatabase("sqlite", "file:"+uuid.NewString()+"?mode=memory"))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, noStats{}).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func entry(score int, ts string) model.ScoreEntry {
	t, err := types.ParseTimestamp(ts)
	if err != nil {
		panic(err)
	}
	return model.ScoreEntry{Score: score, Time: t}
}

func TestGeneratePlans(t *testing.T) {
	Convey("Given a fixed clock", t, func() {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("Plans have the requested shape and ranges", func() {
			plans := generatePlans(4, 5, now)
			So(plans, ShouldHaveLength, 4)

			seen := map[string]bool{}
			for _, p := range plans {
				So(p.Player, ShouldStartWith, "player-")
				So(len(p.Player), ShouldEqual, len("player-")+8)
				So(seen[p.Player], ShouldBeFalse)
				seen[p.Player] = true

				So(p.Scores, ShouldHaveLength, 5)
				for _, e := range p.Scores {
					So(e.Score, ShouldBeBetweenOrEqual, 0, 1000)
					So(e.Time.After(now), ShouldBeFalse)
					So(e.Time.Before(now.Add(-historyWindow)), ShouldBeFalse)
				}
			}
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Config validation", t, func() {
		valid := Config{BaseURL: "http://localhost", Players: 1, Scores: 1, Workers: 1}
		So(valid.validate(), ShouldBeNil)

		noURL := valid
		noURL.BaseURL = ""
		So(errors.Is(noURL.validate(), ErrMissingURL), ShouldBeTrue)

		noScores := valid
		noScores.Scores = 0
		So(errors.Is(noScores.validate(), ErrNothingToSeed), ShouldBeTrue)

		noWorkers := valid
		noWorkers.Workers = 0
		So(errors.Is(noWorkers.validate(), ErrInvalidWorkers), ShouldBeTrue)
	})
}

func TestCompareHistory(t *testing.T) {
	Convey("Given two registered scores", t, func() {
		expected := []model.ScoreEntry{entry(50, "20240101000000"), entry(90, "20240102000000")}
		h := model.PlayerHistory{
			Player:   "p",
			TopScore: []model.ScoreEntry{expected[1]},
			LowScore: []model.ScoreEntry{expected[0]},
			AvgScore: 70,
			AllScore: expected,
		}

		Convey("A matching history passes", func() {
			So(compareHistory(expected, h), ShouldBeNil)
		})

		Convey("A missing score is reported", func() {
			short := h
			short.AllScore = expected[:1]
			So(errors.Is(compareHistory(expected, short), ErrHistoryMismatch), ShouldBeTrue)
		})

		Convey("A wrong average is reported", func() {
			wrong := h
			wrong.AvgScore = 71
			So(errors.Is(compareHistory(expected, wrong), ErrHistoryMismatch), ShouldBeTrue)
		})

		Convey("A wrong top score is reported", func() {
			wrong := h
			wrong.TopScore = []model.ScoreEntry{expected[0]}
			So(errors.Is(compareHistory(expected, wrong), ErrHistoryMismatch), ShouldBeTrue)
		})

		Convey("A missing low tie is reported", func() {
			tied := append([]model.ScoreEntry{entry(50, "20240103000000")}, expected...)
			h.AllScore = tied
			h.AvgScore = 63.33
			So(errors.Is(compareHistory(tied, h), ErrHistoryMismatch), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv, svc := newTestServer(t)
		var out bytes.Buffer

		Convey("Run registers and verifies every score", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL: srv.URL,
				Players: 3,
				Scores:  4,
				Workers: 2,
				Timeout: 5 * time.Second,
				Verbose: true,
				Out:     &out,
			})
			So(err, ShouldBeNil)
			So(stats.Generated, ShouldEqual, 12)
			So(stats.Registered, ShouldEqual, 12)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Verified, ShouldEqual, 3)
			So(stats.Mismatched, ShouldEqual, 0)

			total, err := svc.TotalRecords(context.Background())
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 12)

			So(out.String(), ShouldContainSubstring, "registered: 12")
			So(out.String(), ShouldContainSubstring, "verified:   3/3 players")
		})

		Convey("An invalid config fails before any request", func() {
			_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Workers: 1, Out: &out})
			So(errors.Is(err, ErrNothingToSeed), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given an endpoint that is not the service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := Run(context.Background(), &Config{
			BaseURL: srv.URL, Players: 1, Scores: 1, Workers: 1, Timeout: time.Second,
		})
		So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
	})

	Convey("Given a service that rejects registrations", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("POST /ranking/register", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		var out bytes.Buffer

		stats, err := Run(context.Background(), &Config{
			BaseURL: srv.URL, Players: 2, Scores: 2, Workers: 2, Timeout: time.Second, Out: &out,
		})
		So(errors.Is(err, ErrVerificationFailed), ShouldBeTrue)
		So(stats.Failed, ShouldEqual, 4)
		So(stats.Verified, ShouldEqual, 0)
		So(strings.Contains(out.String(), "failed:     4"), ShouldBeTrue)
	})
}
