package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
)

// parsePlayers accepts repeated player params and comma separated lists.
func parsePlayers(q url.Values) ([]string, error) {
	var players []string
	for _, raw := range q["player"] {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				players = append(players, p)
			}
		}
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: missing player", ErrBadRequest)
	}
	return players, nil
}

// parsePage reads page (default 0) and size (0 lets the service pick its default).
func parsePage(q url.Values) (model.PageRequest, error) {
	var req model.PageRequest
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, fmt.Errorf("%w: page must be a non-negative integer", ErrBadRequest)
		}
		req.Index = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, fmt.Errorf("%w: size must be a positive integer", ErrBadRequest)
		}
		req.Size = n
	}
	return req, nil
}

func parseID(q url.Values) (int64, error) {
	v := q.Get("id")
	if v == "" {
		return 0, fmt.Errorf("%w: missing id", ErrBadRequest)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", ErrBadRequest)
	}
	return id, nil
}

// parseRange reads the optional onbefore and onafter bounds.
func parseRange(q url.Values) (model.TimeRange, error) {
	var rng model.TimeRange
	bound := func(name string) (*time.Time, error) {
		v := q.Get(name)
		if v == "" {
			return nil, nil
		}
		ts, err := types.ParseTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadRequest, name, err)
		}
		return &ts.Time, nil
	}
	var err error
	if rng.OnOrBefore, err = bound("onbefore"); err != nil {
		return rng, err
	}
	if rng.OnOrAfter, err = bound("onafter"); err != nil {
		return rng, err
	}
	return rng, nil
}
