// Package storage persists the leaderboard, player progress, run history and
// continue payments. SQLite (pure-Go modernc.org/sqlite) serves local play;
// PostgreSQL (pgx) serves hosted deployments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// Entry is a leaderboard row: the best run of one player.
type Entry struct {
	Rank      int
	PlayerID  string
	Username  string
	Handle    string
	Score     int
	Level     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is a recorded continue payment.
type Payment struct {
	ID        string
	PlayerID  string
	Provider  string
	TxHash    string
	Amount    string
	Token     string
	ChainID   int64
	Level     int // level the run continued from
	CreatedAt time.Time
}

// Stats aggregates the run history.
type Stats struct {
	Runs       int
	Players    int
	BestScore  int
	BestLevel  int
	AvgScore   float64
	LastPlayed time.Time
}

// Period filters the leaderboard by when a player first entered it.
type Period string

const (
	PeriodAll    Period = "all"
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// Periods lists the supported periods in display order.
var Periods = []Period{PeriodAll, PeriodDaily, PeriodWeekly}

// ErrInvalidPeriod is returned for unknown period names.
var ErrInvalidPeriod = errors.New("storage: invalid period")

// ParsePeriod parses a period name. An empty name means all time.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Since returns the earliest creation time included in the period, or the
// zero time for all time.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return now.Add(-24 * time.Hour)
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// Title returns a display label for the period.
func (p Period) Title() string {
	switch p {
	case PeriodDaily:
		return "Today"
	case PeriodWeekly:
		return "This Week"
	default:
		return "All Time"
	}
}

// DefaultLimit is the leaderboard size used when a caller passes no limit.
const DefaultLimit = 100

// Backend is the persistence contract used by the game and the servers.
type Backend interface {
	// SubmitScore records a finished run and upserts the player's
	// leaderboard row. The row is replaced only by a higher score, or an
	// equal score at a higher level. It reports whether the row changed.
	SubmitScore(ctx context.Context, e Entry) (bool, error)
	// Leaderboard returns the top entries ranked by score, then level.
	Leaderboard(ctx context.Context, period Period, limit int) ([]Entry, error)
	// PlayerEntry returns the player's row, or nil when absent.
	PlayerEntry(ctx context.Context, playerID string) (*Entry, error)
	// HighestLevel returns the player's high-water level, or 0.
	HighestLevel(ctx context.Context, playerID string) (int, error)
	// SaveHighestLevel raises the high-water level; it never lowers it.
	SaveHighestLevel(ctx context.Context, playerID string, level int) error
	RecordPayment(ctx context.Context, p Payment) error
	Payments(ctx context.Context, playerID string) ([]Payment, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock sets the clock used for timestamps and period filters.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens the backend selected by the DSN: postgres:// and postgresql://
// URLs use PostgreSQL, anything else is a SQLite file path.
func Open(ctx context.Context, dsn string, opts ...Option) (Backend, error) {
	if IsPostgresDSN(dsn) {
		return OpenPostgres(ctx, dsn, opts...)
	}
	return OpenSQLite(dsn, opts...)
}

// IsPostgresDSN reports whether the DSN names a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// expandPath expands a leading ~ to the home directory.
func expandPath(p string) (string, error) {
	if p != "" && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	return p, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}

func rank(entries []Entry) []Entry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
