package seed

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
)

// Ranges for generated data.
const (
	maxScore         = 1000
	historyWindow    = 30 * 24 * time.Hour
	playerPrefix     = "player-"
	playerIDLength   = 8
	secondsInHistory = int64(historyWindow / time.Second)
)

// randomInt returns a uniform value in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}

// playerName returns a fresh player-<uuid prefix> name.
func playerName() string {
	return playerPrefix + uuid.NewString()[:playerIDLength]
}

// generatePlans creates players plans of scores entries each, timed within
// the thirty days before now.
func generatePlans(players, scores int, now time.Time) []Plan {
	plans := make([]Plan, players)
	for i := range plans {
		entries := make([]model.ScoreEntry, scores)
		for j := range entries {
			ago := time.Duration(randomInt(secondsInHistory)) * time.Second
			entries[j] = model.ScoreEntry{
				Score: int(randomInt(maxScore + 1)),
				Time:  types.NewTimestamp(now.Add(-ago)),
			}
		}
		plans[i] = Plan{Player: playerName(), Scores: entries}
	}
	return plans
}
