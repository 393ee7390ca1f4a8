package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound matches every not-found kind via errors.Is.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Kind tags which lookup came back empty.
type Kind int

const (
	// KindNotFound: no record with the requested id.
	KindNotFound Kind = iota + 1
	// KindPlayerNotFound: no records for the requested players on the requested page.
	KindPlayerNotFound
	// KindHistoryNotFound: the player has no records at all.
	KindHistoryNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "id"
	case KindPlayerNotFound:
		return "player"
	case KindHistoryNotFound:
		return "history"
	default:
		return "unknown"
	}
}

// Error is a not-found failure carrying the identifying payload of its Kind.
type Error struct {
	Kind    Kind
	ID      int64
	Players []string
	Player  string
}

// NotFound builds a KindNotFound error for id.
func NotFound(id int64) *Error {
	return &Error{Kind: KindNotFound, ID: id}
}

// PlayerNotFound builds a KindPlayerNotFound error. players is kept as given.
func PlayerNotFound(players []string) *Error {
	return &Error{Kind: KindPlayerNotFound, Players: append([]string(nil), players...)}
}

// HistoryNotFound builds a KindHistoryNotFound error for player.
func HistoryNotFound(player string) *Error {
	return &Error{Kind: KindHistoryNotFound, Player: player}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Could not find the following score ID: %d", e.ID)
	case KindPlayerNotFound:
		return "Could not find data for the following player/s: " + strings.Join(e.Players, ", ")
	case KindHistoryNotFound:
		return "Could not find history for player " + e.Player
	default:
		return ErrNotFound.Error()
	}
}

// Is makes every kind match ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound
}

// KindOf returns the Kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
