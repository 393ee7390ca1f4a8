package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/ranking/internal/domain/links"
	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
	"github.com/okian/ranking/pkg/logger"
)

// maxBodyBytes bounds the register request body.
const maxBodyBytes = 1 << 20

// registerRequest is the POST /ranking/register body. Pointers tell a
// missing field from its zero value.
type registerRequest struct {
	Player string           `json:"player"`
	Score  *int             `json:"score"`
	Time   *types.Timestamp `json:"time"`
}

func (req registerRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Player) == "":
		return fmt.Errorf("%w: missing player", ErrBadRequest)
	case req.Score == nil:
		return fmt.Errorf("%w: missing score", ErrBadRequest)
	case req.Time == nil:
		return fmt.Errorf("%w: missing time", ErrBadRequest)
	}
	return nil
}

// RankingHandler serves the /ranking routes.
type RankingHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps Dependencies, l logger.Logger) *RankingHandler {
	return &RankingHandler{deps: deps, logger: l}
}

// fail writes err with its mapped status. Server errors are logged.
func (h *RankingHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// HandleAll handles GET /ranking/all.
func (h *RankingHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.all"
	records, err := h.deps.All(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeHAL(w, http.StatusOK, newCollectionResource(baseURL(r), records))
}

// HandleRegister handles POST /ranking/register.
func (h *RankingHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.fail(w, r, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, op, err)
		return
	}

	stored, err := h.deps.Register(r.Context(), model.ScoreRecord{
		Player: req.Player,
		Score:  *req.Score,
		Time:   *req.Time,
	})
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	base := baseURL(r)
	w.Header().Set("Location", base+links.ByID(links.RelSelf, stored.ID).Href())
	writeHAL(w, http.StatusCreated, newRecordResource(base, stored))
}

// HandleSearchScore handles GET /ranking/searchscore?id=.
func (h *RankingHandler) HandleSearchScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_score"
	id, err := parseID(r.URL.Query())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	rec, err := h.deps.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeHAL(w, http.StatusOK, newRecordResource(baseURL(r), rec))
}

// HandleSearchList handles GET /ranking/searchlist?player=&page=&size=.
func (h *RankingHandler) HandleSearchList(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_list"
	q := r.URL.Query()
	players, err := parsePlayers(q)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	req, err := parsePage(q)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	page, err := h.deps.ByPlayers(r.Context(), players, req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	search := links.Search{Players: players, Size: page.Size}
	writeHAL(w, http.StatusOK, newPageResource(baseURL(r), search, page))
}

// HandleTimeFilterSearchList handles GET /ranking/timefilter/searchlist,
// which adds the optional onbefore and onafter bounds to searchlist.
func (h *RankingHandler) HandleTimeFilterSearchList(w http.ResponseWriter, r *http.Request) {
	const op = "api.time_filter_search_list"
	q := r.URL.Query()
	players, err := parsePlayers(q)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	req, err := parsePage(q)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	rng, err := parseRange(q)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	page, err := h.deps.ByPlayersInRange(r.Context(), players, rng, req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	search := links.Search{Players: players, Size: page.Size, Range: &rng}
	writeHAL(w, http.StatusOK, newPageResource(baseURL(r), search, page))
}

// HandleHistory handles GET /ranking/history?player=.
func (h *RankingHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	player := strings.TrimSpace(r.URL.Query().Get("player"))
	if player == "" {
		h.fail(w, r, op, fmt.Errorf("%w: missing player", ErrBadRequest))
		return
	}
	hist, err := h.deps.History(r.Context(), player)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeHAL(w, http.StatusOK, newHistoryResource(baseURL(r), hist))
}

// HandleDelete handles DELETE /ranking/delete?id=. Unknown ids still give 204.
func (h *RankingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete"
	id, err := parseID(r.URL.Query())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if err := h.deps.Delete(r.Context(), id); err != nil {
		h.fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
