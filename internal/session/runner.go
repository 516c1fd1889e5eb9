// Package session runs one memory game on a single goroutine and exposes it
// through a command queue and an event outbox, so transports never touch the
// engine directly.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/memory-master/internal/config"
	"github.com/vovakirdan/memory-master/internal/games/memory"
	"github.com/vovakirdan/memory-master/internal/metrics"
	"github.com/vovakirdan/memory-master/internal/payment"
	"github.com/vovakirdan/memory-master/internal/sched"
	"github.com/vovakirdan/memory-master/internal/storage"
)

const (
	inboxSize      = 64
	persistTimeout = 5 * time.Second
)

// Options configures a Runner. Store, Payment and Metrics are optional.
type Options struct {
	PlayerID   string
	Username   string
	Handle     string
	Seed       int64
	StartLevel int
	Timing     config.TimingConfig

	Store   storage.Backend
	Payment payment.Provider
	Metrics *metrics.Metrics

	Clock      clock.Clock
	OutboxSize int
	Logger     *log.Logger
}

// Runner owns an engine and its virtual scheduler. Run drives both from one
// goroutine; every other method is safe to call from anywhere.
type Runner struct {
	opts     Options
	clock    clock.Clock
	interval time.Duration
	log      *log.Logger

	virtual *sched.Virtual
	engine  *memory.Engine

	inbox chan message
	out   *Outbox

	// loop-owned
	paying bool
	runCtx context.Context

	mu     sync.RWMutex
	latest memory.Snapshot
}

// New creates a runner. The player's high-water level is loaded from the
// store when one is configured; a failed load starts from zero.
func New(ctx context.Context, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	if opts.Payment == nil {
		opts.Payment = payment.Disabled{}
	}
	rate := opts.Timing.TickRate
	if rate <= 0 {
		rate = 20
	}

	r := &Runner{
		opts:     opts,
		clock:    clk,
		interval: time.Second / time.Duration(rate),
		log:      logger.With("player", opts.PlayerID),
		virtual:  sched.NewVirtual(),
		inbox:    make(chan message, inboxSize),
		out:      NewOutbox(opts.OutboxSize),
		runCtx:   context.Background(),
	}

	highest := 0
	if opts.Store != nil && opts.PlayerID != "" {
		h, err := opts.Store.HighestLevel(ctx, opts.PlayerID)
		if err != nil {
			r.log.Warn("failed to load highest level", "err", err)
		}
		highest = h
	}

	r.engine = memory.NewEngine(memory.Options{
		Scheduler:      r.virtual,
		Seed:           opts.Seed,
		PlayerID:       opts.PlayerID,
		StartLevel:     opts.StartLevel,
		HighestLevel:   highest,
		StartDelay:     opts.Timing.StartDelay,
		NextRoundDelay: opts.Timing.NextRoundDelay,
		ContinueDelay:  opts.Timing.ContinueDelay,
		Logger:         logger,
		Hooks: memory.Hooks{
			OnChange:       r.onChange,
			OnRoundEnd:     r.onRoundEnd,
			OnRunOver:      r.onRunOver,
			OnHighestLevel: r.onHighestLevel,
		},
	})
	r.latest = r.engine.Snapshot()
	return r
}

// Run processes commands and advances game time until ctx is cancelled.
// The outbox is closed on return.
func (r *Runner) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()
	defer r.out.Close()

	r.opts.Metrics.SessionStarted()
	defer r.opts.Metrics.SessionEnded()

	r.runCtx = ctx
	r.log.Debug("session started")
	r.out.Send(SnapshotEvent{Snapshot: r.Latest()})

	last := r.clock.Now()
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("session ended")
			return
		case <-ticker.C:
			now := r.clock.Now()
			if elapsed := now.Sub(last); elapsed > 0 {
				r.virtual.Advance(elapsed)
				last = now
			}
		case msg := <-r.inbox:
			r.handle(msg)
		}
	}
}

// Do queues a player command. CmdContinue starts a continue payment; the
// engine continues only once the payment succeeds.
func (r *Runner) Do(cmd memory.Command) {
	r.post(commandMsg{cmd: cmd})
}

func (r *Runner) post(msg message) {
	select {
	case r.inbox <- msg:
	case <-r.out.Done():
	}
}

// Events returns the event stream. It stops receiving new events once Run
// returns.
func (r *Runner) Events() <-chan Event { return r.out.Events() }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.out.Done() }

// Latest returns the most recent snapshot.
func (r *Runner) Latest() memory.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// PlayerID returns the player this runner reports results for.
func (r *Runner) PlayerID() string { return r.opts.PlayerID }

func (r *Runner) handle(msg message) {
	switch m := msg.(type) {
	case commandMsg:
		if m.cmd.Kind == memory.CmdContinue {
			r.requestPayment()
			return
		}
		r.engine.Handle(m.cmd)
	case paymentDoneMsg:
		r.finishPayment(m.receipt, m.err)
	}
}

func (r *Runner) requestPayment() {
	if r.paying || !r.engine.Over() {
		return
	}
	r.paying = true
	req := payment.Request{
		PlayerID: r.opts.PlayerID,
		Level:    r.engine.Snapshot().LevelWhenFailed,
	}
	r.log.Info("continue payment requested", "provider", r.opts.Payment.Name(), "level", req.Level)
	r.out.Send(PaymentEvent{State: PaymentPending, Message: "Processing payment..."})

	ctx := r.runCtx
	provider := r.opts.Payment
	go func() {
		receipt, err := provider.RequestPayment(ctx, req)
		r.post(paymentDoneMsg{receipt: receipt, err: err})
	}()
}

func (r *Runner) finishPayment(receipt payment.Receipt, err error) {
	r.paying = false
	r.opts.Metrics.PaymentResult(payment.Reason(err))
	if err != nil {
		r.log.Warn("continue payment failed", "err", err)
		r.out.Send(PaymentEvent{State: PaymentFailed, Message: payment.Describe(err)})
		return
	}
	r.log.Info("continue payment succeeded", "id", receipt.ID, "tx", receipt.TxHash)
	r.out.Send(PaymentEvent{State: PaymentSucceeded, Message: payment.Describe(nil), Receipt: &receipt})
	r.engine.ContinueAfterPayment()
}

func (r *Runner) onChange(s memory.Snapshot) {
	r.mu.Lock()
	r.latest = s
	r.mu.Unlock()
	r.out.Send(SnapshotEvent{Snapshot: s})
}

func (r *Runner) onRoundEnd(res memory.RoundResult) {
	r.opts.Metrics.RoundEvaluated(res.Outcome.String())
	if res.ResetUsed {
		r.opts.Metrics.ResetUsed()
	}
	r.out.Send(RoundEvent{Result: res})
}

func (r *Runner) onHighestLevel(playerID string, level int) {
	if r.opts.Store == nil || playerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.opts.Store.SaveHighestLevel(ctx, playerID, level); err != nil {
		r.log.Error("failed to save highest level", "level", level, "err", err)
	}
}

func (r *Runner) onRunOver(res memory.RunResult) {
	r.opts.Metrics.RunCompleted(res.Level)
	r.log.Info("run over", "score", res.Score, "level", res.Level)

	newBest := false
	if r.opts.Store != nil && res.PlayerID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		changed, err := r.opts.Store.SubmitScore(ctx, storage.Entry{
			PlayerID: res.PlayerID,
			Username: r.opts.Username,
			Handle:   r.opts.Handle,
			Score:    res.Score,
			Level:    res.Level,
		})
		if err != nil {
			r.log.Error("failed to submit score", "score", res.Score, "err", err)
		}
		newBest = changed
		if err := r.opts.Store.SaveHighestLevel(ctx, res.PlayerID, res.HighestLevel); err != nil {
			r.log.Error("failed to save highest level", "level", res.HighestLevel, "err", err)
		}
	}

	r.out.Send(RunOverEvent{
		Result:  res,
		NewBest: newBest,
		Share:   memory.ShareText(res.Score, res.Level),
	})
}
