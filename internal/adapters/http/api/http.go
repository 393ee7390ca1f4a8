// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	All(ctx context.Context) ([]model.ScoreRecord, error)
	Register(ctx context.Context, r model.ScoreRecord) (model.ScoreRecord, error)
	Get(ctx context.Context, id int64) (model.ScoreRecord, error)
	ByPlayers(ctx context.Context, players []string, req model.PageRequest) (model.Page, error)
	ByPlayersInRange(ctx context.Context, players []string, rng model.TimeRange, req model.PageRequest) (model.Page, error)
	History(ctx context.Context, player string) (model.PlayerHistory, error)
	Delete(ctx context.Context, id int64) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	logger         logger.Logger
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rankingHandler *RankingHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for request logging.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.rankingHandler = NewRankingHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	s.route(mux, "GET /healthz", "healthz", s.healthHandler.HandleHealth)
	s.route(mux, "GET /stats", "stats", s.statsHandler.HandleStats)

	h := s.rankingHandler
	s.route(mux, "GET /ranking/all", "all", h.HandleAll)
	s.route(mux, "POST /ranking/register", "register", h.HandleRegister)
	s.route(mux, "GET /ranking/searchscore", "searchscore", h.HandleSearchScore)
	s.route(mux, "GET /ranking/searchlist", "searchlist", h.HandleSearchList)
	s.route(mux, "GET /ranking/timefilter/searchlist", "timefilter_searchlist", h.HandleTimeFilterSearchList)
	s.route(mux, "GET /ranking/history", "history", h.HandleHistory)
	s.route(mux, "DELETE /ranking/delete", "delete", h.HandleDelete)
}

func (s *Server) route(mux *http.ServeMux, pattern, endpoint string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, MetricsMiddleware(LoggingMiddleware(h, s.logger), endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHAL(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/hal+json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps a handler error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
