package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func openTestStore(t *testing.T) (*SQLiteStore, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), WithClock(mock))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mock
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestOpenSelectsSQLite(t *testing.T) {
	backend, err := Open(context.Background(), filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*SQLiteStore); !ok {
		t.Errorf("Open() returned %T, expected *SQLiteStore", backend)
	}
}

func TestSubmitScoreKeepsBest(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	steps := []struct {
		name      string
		score     int
		level     int
		changed   bool
		wantScore int
		wantLevel int
	}{
		{"first run inserts", 500, 5, true, 500, 5},
		{"lower score ignored", 300, 9, false, 500, 5},
		{"equal score lower level ignored", 500, 4, false, 500, 5},
		{"equal score equal level ignored", 500, 5, false, 500, 5},
		{"equal score higher level replaces", 500, 6, true, 500, 6},
		{"higher score replaces", 900, 3, true, 900, 3},
	}

	for _, st := range steps {
		changed, err := store.SubmitScore(ctx, Entry{PlayerID: "p1", Username: st.name, Score: st.score, Level: st.level})
		if err != nil {
			t.Fatalf("%s: SubmitScore() failed: %v", st.name, err)
		}
		if changed != st.changed {
			t.Errorf("%s: changed = %v, expected %v", st.name, changed, st.changed)
		}

		e, err := store.PlayerEntry(ctx, "p1")
		if err != nil || e == nil {
			t.Fatalf("%s: PlayerEntry() = %v, %v", st.name, e, err)
		}
		if e.Score != st.wantScore || e.Level != st.wantLevel {
			t.Errorf("%s: row = (%d, %d), expected (%d, %d)", st.name, e.Score, e.Level, st.wantScore, st.wantLevel)
		}
		if st.changed && e.Username != st.name {
			t.Errorf("%s: username not refreshed, got %q", st.name, e.Username)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Runs != len(steps) || stats.Players != 1 || stats.BestScore != 900 || stats.BestLevel != 9 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	for _, e := range []Entry{
		{PlayerID: "a", Score: 300, Level: 3},
		{PlayerID: "b", Score: 900, Level: 7},
		{PlayerID: "c", Score: 300, Level: 4},
		{PlayerID: "d", Score: 100, Level: 2},
	} {
		if _, err := store.SubmitScore(ctx, e); err != nil {
			t.Fatalf("SubmitScore() failed: %v", err)
		}
	}

	entries, err := store.Leaderboard(ctx, PeriodAll, 10)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}

	expected := []string{"b", "c", "a", "d"}
	if len(entries) != len(expected) {
		t.Fatalf("got %d entries, expected %d", len(entries), len(expected))
	}
	for i, id := range expected {
		if entries[i].PlayerID != id || entries[i].Rank != i+1 {
			t.Errorf("entry %d = %s rank %d, expected %s rank %d", i, entries[i].PlayerID, entries[i].Rank, id, i+1)
		}
	}

	top2, err := store.Leaderboard(ctx, PeriodAll, 2)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(top2) != 2 {
		t.Errorf("limit 2 returned %d entries", len(top2))
	}

	e, err := store.PlayerEntry(ctx, "a")
	if err != nil || e == nil {
		t.Fatalf("PlayerEntry() = %v, %v", e, err)
	}
	if e.Rank != 3 {
		t.Errorf("rank of a = %d, expected 3", e.Rank)
	}
}

func TestLeaderboardPeriods(t *testing.T) {
	store, mock := openTestStore(t)
	ctx := context.Background()

	submit := func(id string, score int) {
		t.Helper()
		if _, err := store.SubmitScore(ctx, Entry{PlayerID: id, Score: score, Level: 1}); err != nil {
			t.Fatalf("SubmitScore() failed: %v", err)
		}
	}

	submit("old", 1000)
	mock.Add(5 * 24 * time.Hour)
	submit("week", 500)
	mock.Add(2 * 24 * time.Hour)
	submit("today", 100)
	mock.Add(time.Hour)

	tests := []struct {
		period   Period
		expected []string
	}{
		{PeriodAll, []string{"old", "week", "today"}},
		{PeriodWeekly, []string{"week", "today"}},
		{PeriodDaily, []string{"today"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			entries, err := store.Leaderboard(ctx, tt.period, 0)
			if err != nil {
				t.Fatalf("Leaderboard() failed: %v", err)
			}
			if len(entries) != len(tt.expected) {
				t.Fatalf("got %d entries, expected %v", len(entries), tt.expected)
			}
			for i, id := range tt.expected {
				if entries[i].PlayerID != id {
					t.Errorf("entry %d = %s, expected %s", i, entries[i].PlayerID, id)
				}
			}
		})
	}
}

func TestPlayerEntryMissing(t *testing.T) {
	store, _ := openTestStore(t)

	e, err := store.PlayerEntry(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("PlayerEntry() failed: %v", err)
	}
	if e != nil {
		t.Errorf("expected nil entry, got %+v", e)
	}
}

func TestHighestLevelNeverLowers(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	level, err := store.HighestLevel(ctx, "p1")
	if err != nil || level != 0 {
		t.Fatalf("HighestLevel() = %d, %v; expected 0", level, err)
	}

	for _, l := range []int{4, 9, 6} {
		if err := store.SaveHighestLevel(ctx, "p1", l); err != nil {
			t.Fatalf("SaveHighestLevel(%d) failed: %v", l, err)
		}
	}

	level, err = store.HighestLevel(ctx, "p1")
	if err != nil {
		t.Fatalf("HighestLevel() failed: %v", err)
	}
	if level != 9 {
		t.Errorf("HighestLevel() = %d, expected 9", level)
	}
}

func TestPayments(t *testing.T) {
	store, mock := openTestStore(t)
	ctx := context.Background()

	first := Payment{ID: "pay-1", PlayerID: "p1", Provider: "sandbox", Amount: "0.1", Token: "USDT", ChainID: 42220, Level: 4}
	if err := store.RecordPayment(ctx, first); err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}
	mock.Add(time.Minute)
	second := Payment{ID: "pay-2", PlayerID: "p1", Provider: "evm", TxHash: "0xabc", Amount: "0.1", Token: "USDT", ChainID: 42220, Level: 6}
	if err := store.RecordPayment(ctx, second); err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}
	if err := store.RecordPayment(ctx, Payment{ID: "pay-3", PlayerID: "p2", Provider: "sandbox", Amount: "0.1"}); err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}

	payments, err := store.Payments(ctx, "p1")
	if err != nil {
		t.Fatalf("Payments() failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, expected 2", len(payments))
	}
	if payments[0].ID != "pay-2" || payments[0].TxHash != "0xabc" || payments[0].Level != 6 {
		t.Errorf("newest payment = %+v", payments[0])
	}
	if payments[1].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	if err := store.RecordPayment(ctx, first); err == nil {
		t.Error("duplicate payment id should fail")
	}
}

func TestStatsEmpty(t *testing.T) {
	store, _ := openTestStore(t)

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Runs != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("unexpected stats for empty store %+v", stats)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in       string
		expected Period
		err      bool
	}{
		{"", PeriodAll, false},
		{"all", PeriodAll, false},
		{"Daily", PeriodDaily, false},
		{" weekly ", PeriodWeekly, false},
		{"monthly", "", true},
	}
	for _, tt := range tests {
		p, err := ParsePeriod(tt.in)
		if tt.err {
			if !errors.Is(err, ErrInvalidPeriod) {
				t.Errorf("ParsePeriod(%q) error = %v, expected ErrInvalidPeriod", tt.in, err)
			}
			continue
		}
		if err != nil || p != tt.expected {
			t.Errorf("ParsePeriod(%q) = %q, %v", tt.in, p, err)
		}
	}
}

func TestIsPostgresDSN(t *testing.T) {
	if !IsPostgresDSN("postgres://u:p@localhost/db") || !IsPostgresDSN("postgresql://localhost/db") {
		t.Error("postgres URLs should be detected")
	}
	if IsPostgresDSN("~/.memory/scores.db") || IsPostgresDSN("postgres.db") {
		t.Error("file paths should not be detected as postgres")
	}
}
