package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vovakirdan/memory-master/internal/config"
	"github.com/vovakirdan/memory-master/internal/storage"
)

func TestPrintScores(t *testing.T) {
	var buf bytes.Buffer
	printScores(&buf, storage.PeriodWeekly, []storage.Entry{
		{Rank: 1, PlayerID: "p1", Username: "alice", Level: 7, Score: 2400, CreatedAt: time.Now()},
		{Rank: 2, PlayerID: "p2", Level: 3, Score: 500, CreatedAt: time.Now()},
	})

	out := buf.String()
	assert.Contains(t, out, "Leaderboard - This Week")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "p2", "falls back to the player id without a name")
	assert.Contains(t, out, "2400")
}

func TestPrintScoresEmpty(t *testing.T) {
	var buf bytes.Buffer
	printScores(&buf, storage.PeriodAll, nil)
	assert.Contains(t, buf.String(), "No scores recorded yet.")
}

func TestLocalPlayer(t *testing.T) {
	cfg := config.DefaultConfig()
	p := localPlayer(cfg)
	assert.Regexp(t, `^guest_[0-9a-f-]{36}$`, p.ID)
	assert.Equal(t, p.ID, p.Name)

	cfg.Player = config.PlayerConfig{ID: "alice", Name: "Alice", Handle: "@alice"}
	p = localPlayer(cfg)
	assert.Equal(t, "alice", p.ID)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "@alice", p.Handle)
}

func TestCheckServePayment(t *testing.T) {
	cfg := config.DefaultConfig().Payment

	cfg.Mode = config.PaymentSandbox
	assert.NoError(t, checkServePayment(cfg, false))

	cfg.Mode = config.PaymentDisabled
	assert.NoError(t, checkServePayment(cfg, false))

	cfg.Mode = config.PaymentEVM
	err := checkServePayment(cfg, false)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "--shared-wallet")
		assert.Contains(t, err.Error(), cfg.KeyEnv)
	}
	assert.NoError(t, checkServePayment(cfg, true))
}
