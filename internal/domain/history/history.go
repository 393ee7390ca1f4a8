// Package history assembles a player's score history from per-player query results.
package history

import (
	"github.com/shopspring/decimal"

	"github.com/okian/ranking/internal/domain/model"
)

// avgPlaces is the number of decimals kept on the average score.
const avgPlaces = 2

// Assemble combines the four lookups for player into a PlayerHistory.
//
// It fails with HistoryNotFound only when top, low and all are empty; the
// average row is not consulted for that decision. When avg is nil the
// requested spelling of player is used.
func Assemble(player string, avg *model.PlayerAverage, top, low, all []model.ScoreEntry) (model.PlayerHistory, error) {
	if len(top) == 0 && len(low) == 0 && len(all) == 0 {
		return model.PlayerHistory{}, model.HistoryNotFound(player)
	}

	h := model.PlayerHistory{
		Player:   player,
		TopScore: nonNil(top),
		LowScore: nonNil(low),
		AllScore: nonNil(all),
	}
	if avg != nil {
		if avg.Player != "" {
			h.Player = avg.Player
		}
		h.AvgScore = Round(avg.AvgScore)
	}
	return h, nil
}

// Round rounds v to two decimals, half away from zero.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(avgPlaces).InexactFloat64()
}

// Average returns the rounded mean of entries, or 0 for none.
func Average(entries []model.ScoreEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.NewFromInt(int64(e.Score)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(entries)))).Round(avgPlaces).InexactFloat64()
}

// Extremes returns the entries sharing the maximum and the minimum score, in input order.
func Extremes(entries []model.ScoreEntry) (top, low []model.ScoreEntry) {
	if len(entries) == 0 {
		return nil, nil
	}
	hi, lo := entries[0].Score, entries[0].Score
	for _, e := range entries[1:] {
		hi = max(hi, e.Score)
		lo = min(lo, e.Score)
	}
	for _, e := range entries {
		if e.Score == hi {
			top = append(top, e)
		}
		if e.Score == lo {
			low = append(low, e)
		}
	}
	return top, low
}

func nonNil(s []model.ScoreEntry) []model.ScoreEntry {
	if s == nil {
		return []model.ScoreEntry{}
	}
	return s
}
