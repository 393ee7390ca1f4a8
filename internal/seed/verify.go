package seed

import (
	"fmt"
	"math"

	"github.com/okian/ranking/internal/domain/history"
	"github.com/okian/ranking/internal/domain/model"
)

// avgTolerance absorbs rounding differences between the database average and
// the locally computed one.
const avgTolerance = 0.01

// compareHistory checks h against the entries registered for its player.
func compareHistory(expected []model.ScoreEntry, h model.PlayerHistory) error {
	if len(h.AllScore) != len(expected) {
		return fmt.Errorf("%w: %d scores, want %d", ErrHistoryMismatch, len(h.AllScore), len(expected))
	}
	if want := history.Average(expected); math.Abs(h.AvgScore-want) > avgTolerance {
		return fmt.Errorf("%w: average %.2f, want %.2f", ErrHistoryMismatch, h.AvgScore, want)
	}
	top, low := history.Extremes(expected)
	if err := compareExtreme("top", top, h.TopScore); err != nil {
		return err
	}
	return compareExtreme("low", low, h.LowScore)
}

func compareExtreme(name string, want, got []model.ScoreEntry) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d %s entries, want %d", ErrHistoryMismatch, len(got), name, len(want))
	}
	if len(want) > 0 && got[0].Score != want[0].Score {
		return fmt.Errorf("%w: %s score %d, want %d", ErrHistoryMismatch, name, got[0].Score, want[0].Score)
	}
	return nil
}
