package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/pkg/logger"
)

// workerChannelMultiplier sizes job channels relative to the worker count.
const workerChannelMultiplier = 2

type job struct {
	player string
	entry  model.ScoreEntry
}

// Run generates, registers and verifies Players*Scores records against the
// service at cfg.BaseURL, then writes a summary to cfg.Out.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("scores", cfg.Scores),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return nil, err
	}

	plans := generatePlans(cfg.Players, cfg.Scores, time.Now())
	stats.Players = len(plans)
	stats.Generated = cfg.Players * cfg.Scores

	stored := register(ctx, c, cfg, plans, stats, log)
	verify(ctx, c, cfg, plans, stored, stats, log)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	writeSummary(out, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("seed run interrupted: %w", err)
	}
	if stats.Failed > 0 || stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d failed registrations, %d mismatched histories",
			ErrVerificationFailed, stats.Failed, stats.Mismatched)
	}
	log.Info(ctx, "seed run completed", logger.String("duration", stats.Duration.String()))
	return stats, nil
}

// register submits every planned score through a worker pool and returns the
// entries the service accepted, keyed by player.
func register(ctx context.Context, c *client, cfg *Config, plans []Plan, stats *Stats, log logger.Logger) map[string][]model.ScoreEntry {
	var (
		registered int64
		failed     int64
		mu         sync.Mutex
		wg         sync.WaitGroup
		stored     = make(map[string][]model.ScoreEntry, len(plans))
	)

	jobs := make(chan job, cfg.Workers*workerChannelMultiplier)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rec, err := c.register(ctx, j.player, j.entry)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "register failed", logger.String("player", j.player), logger.Error(err))
					continue
				}
				atomic.AddInt64(&registered, 1)
				if cfg.Verbose {
					log.Debug(ctx, "registered score",
						logger.Int64("id", rec.ID),
						logger.String("player", rec.Player),
						logger.Int("score", rec.Score))
				}
				mu.Lock()
				stored[j.player] = append(stored[j.player], j.entry)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range plans {
			for _, e := range p.Scores {
				select {
				case <-ctx.Done():
					return
				case jobs <- job{player: p.Player, entry: e}:
				}
			}
		}
	}()

	wg.Wait()

	stats.Registered = int(atomic.LoadInt64(&registered))
	stats.Failed = int(atomic.LoadInt64(&failed))
	log.Info(ctx, "registration completed",
		logger.Int("registered", stats.Registered),
		logger.Int("failed", stats.Failed))
	return stored
}

// verify fetches each player's history and compares it with what was stored.
func verify(ctx context.Context, c *client, cfg *Config, plans []Plan, stored map[string][]model.ScoreEntry, stats *Stats, log logger.Logger) {
	var (
		verified   int64
		mismatched int64
		wg         sync.WaitGroup
	)

	players := make(chan string, cfg.Workers*workerChannelMultiplier)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for player := range players {
				h, err := c.history(ctx, player)
				if err == nil {
					err = compareHistory(stored[player], h)
				}
				if err != nil {
					atomic.AddInt64(&mismatched, 1)
					log.Warn(ctx, "history check failed", logger.String("player", player), logger.Error(err))
					continue
				}
				atomic.AddInt64(&verified, 1)
				if cfg.Verbose {
					log.Debug(ctx, "history verified",
						logger.String("player", player),
						logger.Float64("avg", h.AvgScore),
						logger.Int("scores", len(h.AllScore)))
				}
			}
		}()
	}

	go func() {
		defer close(players)
		for _, p := range plans {
			if len(stored[p.Player]) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case players <- p.Player:
			}
		}
	}()

	wg.Wait()

	stats.Verified = int(atomic.LoadInt64(&verified))
	stats.Mismatched = int(atomic.LoadInt64(&mismatched))
}

// writeSummary prints the final statistics in a human-friendly form.
func writeSummary(w io.Writer, stats *Stats) {
	var rate float64
	if stats.Duration > 0 {
		rate = float64(stats.Registered) / stats.Duration.Seconds()
	}
	fmt.Fprintf(w, "players:    %s\n", humanize.Comma(int64(stats.Players)))
	fmt.Fprintf(w, "generated:  %s\n", humanize.Comma(int64(stats.Generated)))
	fmt.Fprintf(w, "registered: %s\n", humanize.Comma(int64(stats.Registered)))
	fmt.Fprintf(w, "failed:     %s\n", humanize.Comma(int64(stats.Failed)))
	fmt.Fprintf(w, "verified:   %s/%s players\n",
		humanize.Comma(int64(stats.Verified)), humanize.Comma(int64(stats.Players)))
	fmt.Fprintf(w, "mismatched: %s\n", humanize.Comma(int64(stats.Mismatched)))
	fmt.Fprintf(w, "duration:   %s (%s records/s)\n",
		stats.Duration.Round(time.Millisecond), humanize.CommafWithDigits(rate, 1))
}
