// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/ranking/internal/domain/types"
)

// ScoreRecord is one persisted (player, score, time) tuple.
// ID is zero until the store assigns one.
type ScoreRecord struct {
	ID     int64           `json:"id"`
	Player string          `json:"player"`
	Score  int             `json:"score"`
	Time   types.Timestamp `json:"time"`
}

// ScoreEntry is the (score, time) projection used inside a history.
type ScoreEntry struct {
	Score int             `json:"score"`
	Time  types.Timestamp `json:"time"`
}

// PlayerAverage is the average row for a player. Player carries the stored spelling.
type PlayerAverage struct {
	Player   string
	AvgScore float64
}

// PlayerHistory aggregates a player's top, low, average and full score list.
type PlayerHistory struct {
	Player   string       `json:"player"`
	TopScore []ScoreEntry `json:"topScore"`
	LowScore []ScoreEntry `json:"lowScore"`
	AvgScore float64      `json:"avgScore"`
	AllScore []ScoreEntry `json:"allScore"`
}

// PageRequest selects a zero-based page of Size items.
type PageRequest struct {
	Index int
	Size  int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Index * p.Size
}

// Page is a bounded slice of an ordered result set.
type Page struct {
	Items      []ScoreRecord
	Index      int
	Size       int
	TotalItems int
	TotalPages int
}

// NewPage computes TotalPages from the total item count.
func NewPage(items []ScoreRecord, req PageRequest, totalItems int) Page {
	totalPages := 0
	if req.Size > 0 {
		totalPages = (totalItems + req.Size - 1) / req.Size
	}
	return Page{
		Items:      items,
		Index:      req.Index,
		Size:       req.Size,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Empty reports whether the page holds no items.
func (p Page) Empty() bool {
	return len(p.Items) == 0
}

// TimeRange bounds a search. A nil bound is unconstrained; both are inclusive.
type TimeRange struct {
	OnOrBefore *time.Time
	OnOrAfter  *time.Time
}
