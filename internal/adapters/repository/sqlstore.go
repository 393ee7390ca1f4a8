package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
	"github.com/okian/ranking/pkg/metrics"
)

// Default pool configuration.
const (
	defaultMaxOpenConns = 10
	defaultPingTimeout  = 5 * time.Second
)

const recordColumns = "id, player, score, scored_at"

// SQLStore is a database/sql backed Store. Times are kept as Unix seconds so
// range filters compare integers on every engine.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	maxOpenConns    int
	connMaxIdleTime time.Duration
	pingTimeout     time.Duration
}

var _ Store = (*SQLStore)(nil)

// Open connects to dsn through driver ("sqlite", "postgres" or "pgx"),
// checks connectivity and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	s := &SQLStore{
		db:           db,
		dialect:      d,
		maxOpenConns: defaultMaxOpenConns,
		pingTimeout:  defaultPingTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.configurePool()

	pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) configurePool() {
	if s.dialect.singleWriter {
		// One connection: sqlite serialises writers, and an in-memory
		// database lives only as long as its connection.
		s.db.SetMaxOpenConns(1)
		s.db.SetMaxIdleConns(1)
		return
	}
	s.db.SetMaxOpenConns(s.maxOpenConns)
	s.db.SetMaxIdleConns(s.maxOpenConns)
	if s.connMaxIdleTime > 0 {
		s.db.SetConnMaxIdleTime(s.connMaxIdleTime)
	}
}

func (s *SQLStore) createSchema(ctx context.Context) error {
	stmts, err := s.dialect.statements()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// observe records latency for op and counts unexpected failures.
func observe(op string, start time.Time, err *error) {
	latency := time.Since(start).Milliseconds()
	metrics.RecordRepositoryQueryLatency(op, float64(latency))
	if *err != nil && !errors.Is(*err, ErrNotFound) && !errors.Is(*err, context.Canceled) {
		metrics.RecordRepositoryError(op)
	}
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert implements Store.Insert.
func (s *SQLStore) Insert(ctx context.Context, r model.ScoreRecord) (_ model.ScoreRecord, err error) {
	defer observe("insert", time.Now(), &err)

	const q = `INSERT INTO ranking (player, player_key, score, scored_at) VALUES (?, ?, ?, ?) RETURNING id`
	r.Time = types.NewTimestamp(r.Time.Time)
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(q), r.Player, playerKey(r.Player), r.Score, r.Time.Unix())
	if err = row.Scan(&r.ID); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("insert record: %w", err)
	}
	return r, nil
}

// Get implements Store.Get.
func (s *SQLStore) Get(ctx context.Context, id int64) (_ model.ScoreRecord, err error) {
	defer observe("get", time.Now(), &err)

	q := `SELECT ` + recordColumns + ` FROM ranking WHERE id = ?`
	var r model.ScoreRecord
	err = s.db.QueryRowContext(ctx, s.dialect.rebind(q), id).Scan(&r.ID, &r.Player, &r.Score, &r.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreRecord{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("get record %d: %w", id, err)
	}
	return r, nil
}

// Delete implements Store.Delete.
func (s *SQLStore) Delete(ctx context.Context, id int64) (_ bool, err error) {
	defer observe("delete", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM ranking WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	return n > 0, nil
}

// All implements Store.All.
func (s *SQLStore) All(ctx context.Context) (_ []model.ScoreRecord, err error) {
	defer observe("all", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM ranking ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// FindByPlayers implements Store.FindByPlayers.
func (s *SQLStore) FindByPlayers(ctx context.Context, players []string, req model.PageRequest) (_ model.Page, err error) {
	defer observe("find_by_players", time.Now(), &err)
	return s.find(ctx, players, nil, req)
}

// FindByPlayersInRange implements Store.FindByPlayersInRange.
func (s *SQLStore) FindByPlayersInRange(ctx context.Context, players []string, rng model.TimeRange, req model.PageRequest) (_ model.Page, err error) {
	defer observe("find_by_players_in_range", time.Now(), &err)
	return s.find(ctx, players, &rng, req)
}

func (s *SQLStore) find(ctx context.Context, players []string, rng *model.TimeRange, req model.PageRequest) (model.Page, error) {
	if req.Index < 0 || req.Size < 1 {
		return model.Page{}, fmt.Errorf("%w: page %d size %d", ErrInvalidPage, req.Index, req.Size)
	}
	if len(players) == 0 {
		return model.NewPage([]model.ScoreRecord{}, req, 0), nil
	}

	where, args := playerFilter(players, rng)

	var total int
	countQ := s.dialect.rebind(`SELECT COUNT(*) FROM ranking WHERE ` + where)
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return model.Page{}, fmt.Errorf("count players: %w", err)
	}
	// Index below TotalPages keeps Offset within total+Size.
	if empty := model.NewPage([]model.ScoreRecord{}, req, total); req.Index >= empty.TotalPages {
		return empty, nil
	}

	pageQ := s.dialect.rebind(`SELECT ` + recordColumns + ` FROM ranking WHERE ` + where + ` ORDER BY id LIMIT ? OFFSET ?`)
	pageArgs := make([]any, 0, len(args)+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, req.Size, req.Offset())

	rows, err := s.db.QueryContext(ctx, pageQ, pageArgs...)
	if err != nil {
		return model.Page{}, fmt.Errorf("find players: %w", err)
	}
	defer rows.Close()

	items, err := scanRecords(rows)
	if err != nil {
		return model.Page{}, err
	}
	return model.NewPage(items, req, total), nil
}

// playerKey is the case-folded form stored in player_key. Every player
// lookup compares keys, never the raw name.
func playerKey(player string) string {
	return strings.ToUpper(player)
}

// playerFilter builds the case-insensitive membership test plus optional bounds.
func playerFilter(players []string, rng *model.TimeRange) (string, []any) {
	args := make([]any, 0, len(players)+2)
	for _, p := range players {
		args = append(args, playerKey(p))
	}

	var b strings.Builder
	b.WriteString("player_key IN (")
	b.WriteString(placeholders(len(players), "?"))
	b.WriteString(")")
	if rng != nil {
		if rng.OnOrBefore != nil {
			b.WriteString(" AND scored_at <= ?")
			args = append(args, rng.OnOrBefore.Unix())
		}
		if rng.OnOrAfter != nil {
			b.WriteString(" AND scored_at >= ?")
			args = append(args, rng.OnOrAfter.Unix())
		}
	}
	return b.String(), args
}

// AverageByPlayer implements Store.AverageByPlayer.
func (s *SQLStore) AverageByPlayer(ctx context.Context, player string) (_ *model.PlayerAverage, err error) {
	defer observe("average_by_player", time.Now(), &err)

	const q = `SELECT MIN(player), AVG(score) FROM ranking WHERE player_key = ? GROUP BY player_key`
	var (
		name string
		avg  decimal.Decimal
	)
	err = s.db.QueryRowContext(ctx, s.dialect.rebind(q), playerKey(player)).Scan(&name, &avg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("average for %s: %w", player, err)
	}
	return &model.PlayerAverage{Player: name, AvgScore: avg.InexactFloat64()}, nil
}

// MaxScores implements Store.MaxScores.
func (s *SQLStore) MaxScores(ctx context.Context, player string) (_ []model.ScoreEntry, err error) {
	defer observe("max_scores", time.Now(), &err)
	return s.extreme(ctx, "MAX", player)
}

// MinScores implements Store.MinScores.
func (s *SQLStore) MinScores(ctx context.Context, player string) (_ []model.ScoreEntry, err error) {
	defer observe("min_scores", time.Now(), &err)
	return s.extreme(ctx, "MIN", player)
}

// extreme selects the entries matching agg(score); agg is MAX or MIN.
func (s *SQLStore) extreme(ctx context.Context, agg, player string) ([]model.ScoreEntry, error) {
	q := `SELECT score, scored_at FROM ranking
		WHERE player_key = ?
		AND score = (SELECT ` + agg + `(score) FROM ranking WHERE player_key = ?)
		ORDER BY id`
	key := playerKey(player)
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), key, key)
	if err != nil {
		return nil, fmt.Errorf("%s score for %s: %w", strings.ToLower(agg), player, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// AllScores implements Store.AllScores.
func (s *SQLStore) AllScores(ctx context.Context, player string) (_ []model.ScoreEntry, err error) {
	defer observe("all_scores", time.Now(), &err)

	const q = `SELECT score, scored_at FROM ranking WHERE player_key = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), playerKey(player))
	if err != nil {
		return nil, fmt.Errorf("scores for %s: %w", player, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count implements Store.Count.
func (s *SQLStore) Count(ctx context.Context) (_ int, err error) {
	defer observe("count", time.Now(), &err)

	var n int
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ranking`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func scanRecords(rows *sql.Rows) ([]model.ScoreRecord, error) {
	out := []model.ScoreRecord{}
	for rows.Next() {
		var r model.ScoreRecord
		if err := rows.Scan(&r.ID, &r.Player, &r.Score, &r.Time); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func scanEntries(rows *sql.Rows) ([]model.ScoreEntry, error) {
	out := []model.ScoreEntry{}
	for rows.Next() {
		var e model.ScoreEntry
		if err := rows.Scan(&e.Score, &e.Time); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}
