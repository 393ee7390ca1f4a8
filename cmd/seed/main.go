package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/ranking/internal/seed"
	"github.com/okian/ranking/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers     = 100
	defaultScores      = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSeedTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		players = flag.Int("players", defaultPlayers, "Number of distinct players to create")
		scores  = flag.Int("scores", defaultScores, "Scores registered per player")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultSeedTimeout)
	defer cancel()

	if _, err := seed.Run(ctx, &seed.Config{
		BaseURL: *baseURL,
		Players: *players,
		Scores:  *scores,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	}); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		stop()
		cancel()
		os.Exit(1)
	}
}
