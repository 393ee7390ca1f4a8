// Package repository defines the score store interface and its SQL implementation.
package repository

import (
	"context"

	"github.com/okian/ranking/internal/domain/model"
)

// Store provides read/write access to score records.
type Store interface {
	// Insert stores r and returns it with the assigned ID.
	Insert(ctx context.Context, r model.ScoreRecord) (model.ScoreRecord, error)
	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id int64) (model.ScoreRecord, error)
	// Delete removes the record with id. It reports whether a row was removed;
	// deleting an unknown id is not an error.
	Delete(ctx context.Context, id int64) (bool, error)
	// All returns every record ordered by id.
	All(ctx context.Context) ([]model.ScoreRecord, error)

	// FindByPlayers returns one page of the records whose player matches any of
	// players, ignoring case, ordered by id.
	FindByPlayers(ctx context.Context, players []string, req model.PageRequest) (model.Page, error)
	// FindByPlayersInRange is FindByPlayers restricted to an inclusive time range.
	FindByPlayersInRange(ctx context.Context, players []string, rng model.TimeRange, req model.PageRequest) (model.Page, error)

	// AverageByPlayer returns the unrounded average score for player, or nil when
	// the player has no records.
	AverageByPlayer(ctx context.Context, player string) (*model.PlayerAverage, error)
	// MaxScores returns every entry of player sharing the maximum score.
	MaxScores(ctx context.Context, player string) ([]model.ScoreEntry, error)
	// MinScores returns every entry of player sharing the minimum score.
	MinScores(ctx context.Context, player string) ([]model.ScoreEntry, error)
	// AllScores returns every entry of player ordered by id.
	AllScores(ctx context.Context, player string) ([]model.ScoreEntry, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Close releases the underlying connection pool.
	Close() error
}
