// Package seed registers generated scores against a running service and
// checks the resulting player histories.
package seed

import (
	"io"
	"time"

	"github.com/okian/ranking/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL string        // Base URL of the service
	Players int           // Number of distinct players to create
	Scores  int           // Scores registered per player
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every registration and verification
	Out     io.Writer     // Summary destination; os.Stdout when nil
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return ErrMissingURL
	case c.Players < 1, c.Scores < 1:
		return ErrNothingToSeed
	case c.Workers < 1:
		return ErrInvalidWorkers
	}
	return nil
}

// Plan is the set of scores generated for one player.
type Plan struct {
	Player string
	Scores []model.ScoreEntry
}

// Stats holds run statistics.
type Stats struct {
	Players    int
	Generated  int
	Registered int
	Failed     int
	Verified   int
	Mismatched int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
