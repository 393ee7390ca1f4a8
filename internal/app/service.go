// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	repository "github.com/okian/ranking/internal/adapters/repository"
	"github.com/okian/ranking/internal/domain/history"
	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/pkg/logger"
	"github.com/okian/ranking/pkg/metrics"
)

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Configuration
	driver          string
	dsn             string
	maxOpenConns    int
	defaultPageSize int
	maxPageSize     int

	// State
	started   bool
	ownsStore bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDatabase sets the driver and DSN the service opens on Start when no
// store was supplied.
func WithDatabase(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
		}
		if dsn != "" {
			s.dsn = dsn
		}
	}
}

// WithMaxOpenConns caps the pool of a store opened by the service.
func WithMaxOpenConns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithDefaultPageSize sets the page size used when a search does not name one.
func WithDefaultPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.defaultPageSize = size
		}
	}
}

// WithMaxPageSize sets the largest page size a search may ask for.
func WithMaxPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver:          "sqlite",
		dsn:             "file:ranking.db?_pragma=busy_timeout(5000)",
		maxOpenConns:    10,
		defaultPageSize: 3,
		maxPageSize:     100,
		logger:          nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.maxPageSize < s.defaultPageSize {
		s.maxPageSize = s.defaultPageSize
	}
	return s
}

// Start opens the store when needed and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.driver, s.dsn, repository.WithMaxOpenConns(s.maxOpenConns))
		if err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "opened score store", logger.String("driver", s.driver))
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("defaultPageSize", s.defaultPageSize),
		logger.Int("maxPageSize", s.maxPageSize),
	)
	return nil
}

// Stop releases the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// ready returns the store once the service is started.
func (s *Service) ready() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// All returns every record ordered by id.
func (s *Service) All(ctx context.Context) ([]model.ScoreRecord, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	records, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Register stores r and returns it with its assigned id. Any id on r is ignored.
func (s *Service) Register(ctx context.Context, r model.ScoreRecord) (model.ScoreRecord, error) {
	store, err := s.ready()
	if err != nil {
		return model.ScoreRecord{}, err
	}
	if strings.TrimSpace(r.Player) == "" {
		return model.ScoreRecord{}, fmt.Errorf("%w: missing player", ErrInvalidRecord)
	}

	r.ID = 0
	stored, err := store.Insert(ctx, r)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("register record: %w", err)
	}

	metrics.RecordRecordRegistered()
	s.logger.Debug(ctx, "score registered",
		logger.Int64("id", stored.ID),
		logger.String("player", stored.Player),
		logger.Int("score", stored.Score),
	)
	return stored, nil
}

// Get returns the record with id or a NotFound error.
func (s *Service) Get(ctx context.Context, id int64) (model.ScoreRecord, error) {
	store, err := s.ready()
	if err != nil {
		return model.ScoreRecord{}, err
	}
	r, err := store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ScoreRecord{}, s.notFound(ctx, model.NotFound(id))
	}
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// ByPlayers returns one page of the records of players, ignoring case.
// A zero req.Size selects the default page size. An empty page fails with
// PlayerNotFound carrying players as given.
func (s *Service) ByPlayers(ctx context.Context, players []string, req model.PageRequest) (model.Page, error) {
	store, err := s.ready()
	if err != nil {
		return model.Page{}, err
	}
	if req, err = s.pageRequest(players, req); err != nil {
		return model.Page{}, err
	}
	page, err := store.FindByPlayers(ctx, players, req)
	if err != nil {
		return model.Page{}, fmt.Errorf("find by players: %w", err)
	}
	if page.Empty() {
		return model.Page{}, s.notFound(ctx, model.PlayerNotFound(players))
	}
	return page, nil
}

// ByPlayersInRange is ByPlayers restricted to rng; either bound may be nil.
func (s *Service) ByPlayersInRange(ctx context.Context, players []string, rng model.TimeRange, req model.PageRequest) (model.Page, error) {
	store, err := s.ready()
	if err != nil {
		return model.Page{}, err
	}
	if req, err = s.pageRequest(players, req); err != nil {
		return model.Page{}, err
	}
	page, err := store.FindByPlayersInRange(ctx, players, rng, req)
	if err != nil {
		return model.Page{}, fmt.Errorf("find by players in range: %w", err)
	}
	if page.Empty() {
		return model.Page{}, s.notFound(ctx, model.PlayerNotFound(players))
	}
	return page, nil
}

func (s *Service) pageRequest(players []string, req model.PageRequest) (model.PageRequest, error) {
	if len(players) == 0 {
		return req, fmt.Errorf("%w: missing player", ErrInvalidRequest)
	}
	if req.Size == 0 {
		req.Size = s.defaultPageSize
	}
	switch {
	case req.Index < 0:
		return req, fmt.Errorf("%w: page must not be negative", ErrInvalidRequest)
	case req.Size < 1:
		return req, fmt.Errorf("%w: size must be positive", ErrInvalidRequest)
	case req.Size > s.maxPageSize:
		return req, fmt.Errorf("%w: size exceeds %d", ErrInvalidRequest, s.maxPageSize)
	}
	return req, nil
}

// History assembles the top, low, average and full score list of player.
func (s *Service) History(ctx context.Context, player string) (model.PlayerHistory, error) {
	store, err := s.ready()
	if err != nil {
		return model.PlayerHistory{}, err
	}
	if strings.TrimSpace(player) == "" {
		return model.PlayerHistory{}, fmt.Errorf("%w: missing player", ErrInvalidRequest)
	}

	avg, err := store.AverageByPlayer(ctx, player)
	if err != nil {
		return model.PlayerHistory{}, fmt.Errorf("history average: %w", err)
	}
	top, err := store.MaxScores(ctx, player)
	if err != nil {
		return model.PlayerHistory{}, fmt.Errorf("history top: %w", err)
	}
	low, err := store.MinScores(ctx, player)
	if err != nil {
		return model.PlayerHistory{}, fmt.Errorf("history low: %w", err)
	}
	all, err := store.AllScores(ctx, player)
	if err != nil {
		return model.PlayerHistory{}, fmt.Errorf("history scores: %w", err)
	}

	h, err := history.Assemble(player, avg, top, low, all)
	if err != nil {
		return model.PlayerHistory{}, s.notFound(ctx, err)
	}
	metrics.RecordHistoryBuilt()
	return h, nil
}

// Delete removes the record with id. Unknown ids are not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	store, err := s.ready()
	if err != nil {
		return err
	}
	deleted, err := store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if deleted {
		metrics.RecordRecordDeleted()
	}
	s.logger.Debug(ctx, "delete applied", logger.Int64("id", id), logger.Any("deleted", deleted))
	return nil
}

// notFound counts and logs a lookup that matched nothing, then returns err.
func (s *Service) notFound(ctx context.Context, err error) error {
	kind := model.KindOf(err)
	metrics.RecordNotFound(kind.String())
	s.logger.Debug(ctx, "lookup matched nothing",
		logger.String("kind", kind.String()),
		logger.Error(err),
	)
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"driver":          s.driver,
		"defaultPageSize": s.defaultPageSize,
		"maxPageSize":     s.maxPageSize,
	}

	if s.started && s.store != nil {
		total, err := s.store.Count(context.Background())
		if err != nil {
			stats["totalRecordsError"] = err.Error()
			return stats
		}
		stats["totalRecords"] = total
		metrics.UpdateTotalRecords(total)
	}

	return stats
}

// TotalRecords returns the number of stored records.
func (s *Service) TotalRecords(ctx context.Context) (int, error) {
	store, err := s.ready()
	if err != nil {
		return 0, err
	}
	return store.Count(ctx)
}
