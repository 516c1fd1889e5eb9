package tui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/memory-master/internal/config"
	"github.com/vovakirdan/memory-master/internal/metrics"
	"github.com/vovakirdan/memory-master/internal/payment"
	"github.com/vovakirdan/memory-master/internal/session"
	"github.com/vovakirdan/memory-master/internal/storage"
)

// Player identifies whoever is at the terminal.
type Player struct {
	ID     string
	Name   string
	Handle string
}

// App bundles what a terminal front end needs to start runs. Store,
// Payment and Metrics may be nil.
type App struct {
	Config  config.Config
	Store   storage.Backend
	Payment payment.Provider
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

func (a *App) logger() *log.Logger {
	if a.Logger == nil {
		return log.New(io.Discard)
	}
	return a.Logger
}

// StartRun creates and starts a runner for p at the given difficulty. An
// empty preset uses the configured start level. The runner stops when ctx
// ends or the returned func is called.
func (a *App) StartRun(ctx context.Context, p Player, preset config.DifficultyPreset) (*session.Runner, context.CancelFunc) {
	game := a.Config.Game
	if preset != "" {
		game.Difficulty = preset
	}
	seed := game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(ctx)
	r := session.New(ctx, session.Options{
		PlayerID:   p.ID,
		Username:   p.Name,
		Handle:     p.Handle,
		Seed:       seed,
		StartLevel: game.EffectiveStartLevel(),
		Timing:     a.Config.Timing,
		Store:      a.Store,
		Payment:    a.Payment,
		Metrics:    a.Metrics,
		Logger:     a.logger(),
	})
	go r.Run(ctx)
	return r, cancel
}

// HighestLevel returns p's stored high-water level, or 0.
func (a *App) HighestLevel(p Player) int {
	if a.Store == nil || p.ID == "" {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	level, err := a.Store.HighestLevel(ctx, p.ID)
	if err != nil {
		a.logger().Warn("failed to load highest level", "player", p.ID, "err", err)
		return 0
	}
	return level
}

// Price returns the continue price label, or "" when payments are off.
func (a *App) Price() string {
	if a.Config.Payment.Mode == config.PaymentDisabled {
		return ""
	}
	return a.Config.Payment.PriceLabel()
}
