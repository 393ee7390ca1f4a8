// Package links builds the navigation links attached to ranking responses.
//
// Links are plain values. The HTTP layer decides how to render them.
package links

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
)

// Link relations.
const (
	RelSelf     = "self"
	RelNext     = "next"
	RelPrevious = "previous"
	RelAll      = "all"
	RelRecord   = "record"
	RelHistory  = "history"
)

// Route paths referenced by links.
const (
	PathAll            = "/ranking/all"
	PathRegister       = "/ranking/register"
	PathSearchScore    = "/ranking/searchscore"
	PathSearchList     = "/ranking/searchlist"
	PathTimeSearchList = "/ranking/timefilter/searchlist"
	PathHistory        = "/ranking/history"
	PathDelete         = "/ranking/delete"
)

// historySearchSize is the page size of the searchlist link attached to a history.
const historySearchSize = 3

// Link is one navigation descriptor.
type Link struct {
	Rel    string
	Path   string
	Params url.Values
}

// Href renders the link relative to the server root.
func (l Link) Href() string {
	if len(l.Params) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Params.Encode()
}

// Search describes the filter that produced a page, so that sibling pages can be linked.
type Search struct {
	Players []string
	Size    int
	Range   *model.TimeRange
}

// Path returns the route serving this search.
func (s Search) Path() string {
	if s.Range != nil {
		return PathTimeSearchList
	}
	return PathSearchList
}

// At returns the link for page index under rel.
func (s Search) At(rel string, index int) Link {
	params := url.Values{}
	params.Set("player", strings.Join(s.Players, ","))
	params.Set("page", strconv.Itoa(index))
	params.Set("size", strconv.Itoa(s.Size))
	if s.Range != nil {
		if s.Range.OnOrBefore != nil {
			params.Set("onbefore", types.NewTimestamp(*s.Range.OnOrBefore).String())
		}
		if s.Range.OnOrAfter != nil {
			params.Set("onafter", types.NewTimestamp(*s.Range.OnOrAfter).String())
		}
	}
	return Link{Rel: rel, Path: s.Path(), Params: params}
}

// All is the link to the unfiltered listing.
func All() Link {
	return Link{Rel: RelAll, Path: PathAll}
}

// Neighbours returns the next and previous page indexes and which of them to link.
//
// The branch order is load bearing: a two page result links "previous" from
// page 0 and never "next", and a middle page whose next page is the last one
// only links "previous".
func Neighbours(index, totalPages int) (next, prev int, withNext, withPrev bool) {
	next = min(index+1, totalPages-1)
	prev = max(index-1, 0)
	switch {
	case next == 0 && prev == 0:
		return next, prev, false, false
	case next == totalPages-1:
		return next, prev, false, true
	case prev == 0:
		return next, prev, true, false
	default:
		return next, prev, true, true
	}
}

// Pagination returns self, next/previous as decided by Neighbours, and all.
// page must not be empty; callers fail with PlayerNotFound first.
func Pagination(s Search, page model.Page) []Link {
	next, prev, withNext, withPrev := Neighbours(page.Index, page.TotalPages)

	out := make([]Link, 0, 4)
	out = append(out, s.At(RelSelf, page.Index))
	if withNext {
		out = append(out, s.At(RelNext, next))
	}
	if withPrev {
		out = append(out, s.At(RelPrevious, prev))
	}
	return append(out, All())
}

// ByID is the link to a single record.
func ByID(rel string, id int64) Link {
	return Link{Rel: rel, Path: PathSearchScore, Params: url.Values{"id": {strconv.FormatInt(id, 10)}}}
}

// History is the link to a player's history.
func History(rel, player string) Link {
	return Link{Rel: rel, Path: PathHistory, Params: url.Values{"player": {player}}}
}

// ListItem returns the links attached to a record inside a collection.
func ListItem(r model.ScoreRecord) []Link {
	return []Link{History(RelSelf, r.Player), ByID(RelRecord, r.ID), All()}
}

// Record returns the links attached to a record fetched or created on its own.
func Record(r model.ScoreRecord) []Link {
	return []Link{ByID(RelSelf, r.ID), History(RelHistory, r.Player), All()}
}

// PlayerHistory returns the links attached to a history.
func PlayerHistory(h model.PlayerHistory) []Link {
	first := Search{Players: []string{h.Player}, Size: historySearchSize}.At(RelSelf, 0)
	return []Link{History(RelSelf, h.Player), first, All()}
}

// Collection returns the links attached to the full listing.
func Collection() []Link {
	return []Link{{Rel: RelSelf, Path: PathAll}}
}
