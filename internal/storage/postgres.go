package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the leaderboard in a shared PostgreSQL database.
type PostgresStore struct {
	db    *pgxpool.Pool
	clock clock.Clock
}

var _ Backend = (*PostgresStore)(nil)

// OpenPostgres connects to PostgreSQL and runs migrations.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := buildOptions(opts)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &PostgresStore{db: pool, clock: o.clock}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leaderboard (
			player_id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			user_handle TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_top ON leaderboard(score DESC, level DESC);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_created ON leaderboard(created_at);

		CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			player_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id);

		CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			highest_level INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			tx_hash TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			token TEXT NOT NULL DEFAULT '',
			chain_id BIGINT NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_payments_player ON payments(player_id);
	`)
	return err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) now() time.Time {
	return s.clock.Now().UTC()
}

// SubmitScore records the run and upserts the leaderboard row.
func (s *PostgresStore) SubmitScore(ctx context.Context, e Entry) (bool, error) {
	now := s.now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"INSERT INTO runs (player_id, score, level, created_at) VALUES ($1, $2, $3, $4)",
		e.PlayerID, e.Score, e.Level, now,
	); err != nil {
		return false, fmt.Errorf("storage: cannot save run: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO leaderboard (player_id, username, user_handle, score, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (player_id) DO UPDATE SET
			username = EXCLUDED.username,
			user_handle = EXCLUDED.user_handle,
			score = EXCLUDED.score,
			level = EXCLUDED.level,
			updated_at = EXCLUDED.updated_at
		WHERE EXCLUDED.score > leaderboard.score
			OR (EXCLUDED.score = leaderboard.score AND EXCLUDED.level > leaderboard.level)
	`, e.PlayerID, e.Username, e.Handle, e.Score, e.Level, now)
	if err != nil {
		return false, fmt.Errorf("storage: cannot save score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("storage: cannot commit score: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Leaderboard retrieves the top entries for the period.
func (s *PostgresStore) Leaderboard(ctx context.Context, period Period, limit int) ([]Entry, error) {
	since := period.Since(s.clock.Now())
	if since.IsZero() {
		since = time.Unix(0, 0)
	}

	rows, err := s.db.Query(ctx, `
		SELECT player_id, username, user_handle, score, level, created_at, updated_at
		FROM leaderboard
		WHERE created_at >= $1
		ORDER BY score DESC, level DESC, updated_at ASC
		LIMIT $2
	`, since.UTC(), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Handle, &e.Score, &e.Level, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rank(entries), nil
}

// PlayerEntry returns the player's leaderboard row with its all-time rank.
func (s *PostgresStore) PlayerEntry(ctx context.Context, playerID string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(ctx, `
		SELECT player_id, username, user_handle, score, level, created_at, updated_at,
		       (SELECT COUNT(*) FROM leaderboard o
		        WHERE o.score > l.score OR (o.score = l.score AND o.level > l.level)) + 1
		FROM leaderboard l
		WHERE player_id = $1
	`, playerID).Scan(&e.PlayerID, &e.Username, &e.Handle, &e.Score, &e.Level, &e.CreatedAt, &e.UpdatedAt, &e.Rank)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player: %w", err)
	}
	return &e, nil
}

// HighestLevel returns the player's high-water level.
func (s *PostgresStore) HighestLevel(ctx context.Context, playerID string) (int, error) {
	var level int
	err := s.db.QueryRow(ctx,
		"SELECT highest_level FROM players WHERE player_id = $1",
		playerID,
	).Scan(&level)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query highest level: %w", err)
	}
	return level, nil
}

// SaveHighestLevel raises the player's high-water level.
func (s *PostgresStore) SaveHighestLevel(ctx context.Context, playerID string, level int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO players (player_id, highest_level, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE SET
			highest_level = GREATEST(players.highest_level, EXCLUDED.highest_level),
			updated_at = EXCLUDED.updated_at
	`, playerID, level, s.now())
	if err != nil {
		return fmt.Errorf("storage: cannot save highest level: %w", err)
	}
	return nil
}

// RecordPayment stores a continue payment.
func (s *PostgresStore) RecordPayment(ctx context.Context, p Payment) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (id, player_id, provider, tx_hash, amount, token, chain_id, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.PlayerID, p.Provider, p.TxHash, p.Amount, p.Token, p.ChainID, p.Level, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("storage: cannot save payment: %w", err)
	}
	return nil
}

// Payments lists a player's payments, newest first.
func (s *PostgresStore) Payments(ctx context.Context, playerID string) ([]Payment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, player_id, provider, tx_hash, amount, token, chain_id, level, created_at
		FROM payments
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PlayerID, &p.Provider, &p.TxHash, &p.Amount, &p.Token, &p.ChainID, &p.Level, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return payments, nil
}

// Stats aggregates the run history.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var lastPlayed *time.Time

	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT player_id), COALESCE(MAX(score), 0),
		       COALESCE(MAX(level), 0), COALESCE(AVG(score), 0)::float8, MAX(created_at)
		FROM runs
	`).Scan(&st.Runs, &st.Players, &st.BestScore, &st.BestLevel, &st.AvgScore, &lastPlayed)
	if err != nil {
		return Stats{}, fmt.Errorf("storage: cannot get stats: %w", err)
	}

	if lastPlayed != nil {
		st.LastPlayed = lastPlayed.UTC()
	}
	return st, nil
}
