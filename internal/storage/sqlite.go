package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// SQLiteStore keeps the leaderboard in a local SQLite file.
type SQLiteStore struct {
	db    *sql.DB
	clock clock.Clock
}

var _ Backend = (*SQLiteStore)(nil)

// OpenSQLite creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func OpenSQLite(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	dbPath, err := expandPath(dbPath)
	if err != nil {
		return nil, err
	}

	// Create parent directories
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer at a time; SSH sessions share the store.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &SQLiteStore{db: db, clock: o.clock}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS leaderboard (
			player_id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			user_handle TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_top ON leaderboard(score DESC, level DESC);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_created ON leaderboard(created_at);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id);

		CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			highest_level INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			tx_hash TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			token TEXT NOT NULL DEFAULT '',
			chain_id INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_payments_player ON payments(player_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) now() string {
	return s.clock.Now().UTC().Format(sqliteTimeFormat)
}

// SubmitScore records the run and upserts the leaderboard row.
func (s *SQLiteStore) SubmitScore(ctx context.Context, e Entry) (bool, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (player_id, score, level, created_at) VALUES (?, ?, ?, ?)",
		e.PlayerID, e.Score, e.Level, now,
	); err != nil {
		return false, fmt.Errorf("storage: cannot save run: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO leaderboard (player_id, username, user_handle, score, level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
			username = excluded.username,
			user_handle = excluded.user_handle,
			score = excluded.score,
			level = excluded.level,
			updated_at = excluded.updated_at
		 WHERE excluded.score > leaderboard.score
			OR (excluded.score = leaderboard.score AND excluded.level > leaderboard.level)`,
		e.PlayerID, e.Username, e.Handle, e.Score, e.Level, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("storage: cannot save score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: cannot get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("storage: cannot commit score: %w", err)
	}
	return n > 0, nil
}

// Leaderboard retrieves the top entries for the period.
func (s *SQLiteStore) Leaderboard(ctx context.Context, period Period, limit int) ([]Entry, error) {
	since := ""
	if t := period.Since(s.clock.Now()); !t.IsZero() {
		since = t.UTC().Format(sqliteTimeFormat)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, username, user_handle, score, level, created_at, updated_at
		 FROM leaderboard
		 WHERE created_at >= ?
		 ORDER BY score DESC, level DESC, updated_at ASC
		 LIMIT ?`,
		since, normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt, updatedAt any
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Handle, &e.Score, &e.Level, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseSQLiteTime(createdAt)
		e.UpdatedAt = parseSQLiteTime(updatedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rank(entries), nil
}

// PlayerEntry returns the player's leaderboard row with its all-time rank.
func (s *SQLiteStore) PlayerEntry(ctx context.Context, playerID string) (*Entry, error) {
	var e Entry
	var createdAt, updatedAt any

	err := s.db.QueryRowContext(ctx,
		`SELECT player_id, username, user_handle, score, level, created_at, updated_at,
		        (SELECT COUNT(*) FROM leaderboard o
		         WHERE o.score > l.score OR (o.score = l.score AND o.level > l.level)) + 1
		 FROM leaderboard l
		 WHERE player_id = ?`,
		playerID,
	).Scan(&e.PlayerID, &e.Username, &e.Handle, &e.Score, &e.Level, &createdAt, &updatedAt, &e.Rank)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player: %w", err)
	}

	e.CreatedAt = parseSQLiteTime(createdAt)
	e.UpdatedAt = parseSQLiteTime(updatedAt)
	return &e, nil
}

// HighestLevel returns the player's high-water level.
func (s *SQLiteStore) HighestLevel(ctx context.Context, playerID string) (int, error) {
	var level int
	err := s.db.QueryRowContext(ctx,
		"SELECT highest_level FROM players WHERE player_id = ?",
		playerID,
	).Scan(&level)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query highest level: %w", err)
	}
	return level, nil
}

// SaveHighestLevel raises the player's high-water level.
func (s *SQLiteStore) SaveHighestLevel(ctx context.Context, playerID string, level int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (player_id, highest_level, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
			highest_level = max(players.highest_level, excluded.highest_level),
			updated_at = excluded.updated_at`,
		playerID, level, s.now(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save highest level: %w", err)
	}
	return nil
}

// RecordPayment stores a continue payment.
func (s *SQLiteStore) RecordPayment(ctx context.Context, p Payment) error {
	createdAt := s.now()
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt.UTC().Format(sqliteTimeFormat)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, player_id, provider, tx_hash, amount, token, chain_id, level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PlayerID, p.Provider, p.TxHash, p.Amount, p.Token, p.ChainID, p.Level, createdAt,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save payment: %w", err)
	}
	return nil
}

// Payments lists a player's payments, newest first.
func (s *SQLiteStore) Payments(ctx context.Context, playerID string) ([]Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_id, provider, tx_hash, amount, token, chain_id, level, created_at
		 FROM payments
		 WHERE player_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var createdAt any
		if err := rows.Scan(&p.ID, &p.PlayerID, &p.Provider, &p.TxHash, &p.Amount, &p.Token, &p.ChainID, &p.Level, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		p.CreatedAt = parseSQLiteTime(createdAt)
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return payments, nil
}

// Stats aggregates the run history.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var lastPlayed any

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT player_id), COALESCE(MAX(score), 0),
		        COALESCE(MAX(level), 0), COALESCE(AVG(score), 0), MAX(created_at)
		 FROM runs`,
	).Scan(&st.Runs, &st.Players, &st.BestScore, &st.BestLevel, &st.AvgScore, &lastPlayed)
	if err != nil {
		return Stats{}, fmt.Errorf("storage: cannot get stats: %w", err)
	}

	st.LastPlayed = parseSQLiteTime(lastPlayed)
	return st, nil
}

// parseSQLiteTime handles both time.Time and string column values.
func parseSQLiteTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(sqliteTimeFormat, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	case []byte:
		return parseSQLiteTime(string(t))
	}
	return time.Time{}
}
