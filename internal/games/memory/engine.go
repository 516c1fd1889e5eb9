package memory

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/memory-master/internal/sched"
)

// Default delays before a round starts.
const (
	DefaultStartDelay     = time.Second
	DefaultNextRoundDelay = 500 * time.Millisecond
	DefaultContinueDelay  = time.Second
)

// countdownStep is the interval between countdown ticks.
const countdownStep = time.Second

// RoundResult describes an evaluated round.
type RoundResult struct {
	PlayerID  string
	Round     int
	Level     int
	Outcome   Outcome
	Accuracy  float64
	Points    int // awarded on acknowledgment, zero on failure
	LivesLeft int
	ResetUsed bool
}

// RunResult is emitted once when a run ends with no lives left.
type RunResult struct {
	PlayerID     string
	Score        int
	Level        int
	HighestLevel int
}

// Hooks receive engine events. They run synchronously on the goroutine that
// drives the engine and must not call back into it.
type Hooks struct {
	OnChange       func(Snapshot)
	OnRoundEnd     func(RoundResult)
	OnRunOver      func(RunResult)
	OnHighestLevel func(playerID string, level int)
}

// Options configures an Engine.
type Options struct {
	Scheduler sched.Scheduler
	Seed      int64
	PlayerID  string

	// StartLevel below 1 starts at level 1.
	StartLevel int
	// HighestLevel is the high-water mark loaded from storage.
	HighestLevel int

	// Zero values pick the defaults.
	StartDelay     time.Duration
	NextRoundDelay time.Duration
	ContinueDelay  time.Duration

	Hooks  Hooks
	Logger *log.Logger
}

// Engine sequences rounds through memorize, recall and feedback, and tracks
// score, lives and level for a run. It is not safe for concurrent use: all
// methods and all scheduler callbacks must run on one goroutine. Actions that
// are not legal in the current state are ignored.
type Engine struct {
	sched sched.Scheduler
	gen   *Generator
	hooks Hooks
	log   *log.Logger

	playerID       string
	startDelay     time.Duration
	nextRoundDelay time.Duration
	continueDelay  time.Duration
	idleDelay      time.Duration // the delay that leads out of the current Idle

	started bool
	paused  bool
	phase   Phase
	outcome Outcome
	round   int

	level           int
	score           int
	lives           int
	highestLevel    int
	levelWhenFailed int

	shape         Shape
	selections    Selection
	timeRemaining int
	resetUsed     bool
	accuracy      float64
	roundPoints   int

	// At most one timer is ever outstanding. timerGen invalidates callbacks
	// of timers that were replaced or cancelled.
	timer    sched.Timer
	timerGen uint64
}

// NewEngine creates an engine in the Idle phase. Call Start to begin the run.
func NewEngine(opts Options) *Engine {
	if opts.Scheduler == nil {
		panic("memory: engine requires a scheduler")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	level := opts.StartLevel
	if level < 1 {
		level = 1
	}

	e := &Engine{
		sched:          opts.Scheduler,
		gen:            NewGenerator(opts.Seed),
		hooks:          opts.Hooks,
		log:            logger,
		playerID:       opts.PlayerID,
		startDelay:     orDefault(opts.StartDelay, DefaultStartDelay),
		nextRoundDelay: orDefault(opts.NextRoundDelay, DefaultNextRoundDelay),
		continueDelay:  orDefault(opts.ContinueDelay, DefaultContinueDelay),
		phase:          PhaseIdle,
		level:          level,
		lives:          MaxLives,
		highestLevel:   max(opts.HighestLevel, level),
	}
	return e
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Start arms the first round. It has no effect once called.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true
	e.log.Debug("run started", "player", e.playerID, "level", e.level)
	e.idleDelay = e.startDelay
	e.schedule(e.idleDelay, e.beginRound)
	e.emit()
}

// ClickCell toggles a cell while recalling.
func (e *Engine) ClickCell(row, col int) {
	c := Cell{Row: row, Col: col}
	if e.phase != PhaseRecalling || e.paused || !c.Valid() {
		return
	}
	e.selections.Toggle(c.Index())
	e.emit()
}

// Submit evaluates the selection. It needs at least one selected cell.
func (e *Engine) Submit() {
	if e.phase != PhaseRecalling || e.paused || e.selections.Len() == 0 {
		return
	}
	e.evaluate()
}

// ProceedEarly ends memorizing before the countdown runs out.
func (e *Engine) ProceedEarly() {
	if e.phase != PhaseMemorizing || e.paused {
		return
	}
	e.enterRecall()
}

// ResetPattern replaces the shape with a fresh one and restarts the memorize
// countdown. It works once per round.
func (e *Engine) ResetPattern() {
	if e.phase != PhaseMemorizing || e.paused || e.resetUsed {
		return
	}
	e.resetUsed = true
	e.shape = e.gen.Generate(ShapeSize(e.level))
	e.selections.Clear()
	e.timeRemaining = MemorizeSeconds(e.level)
	e.schedule(countdownStep, e.tick)
	e.log.Debug("pattern reset", "round", e.round, "size", e.shape.Size())
	e.emit()
}

// Pause freezes the countdown or the pending round start. Nothing moves until
// Resume. Pausing is not possible before Start or once the run is over.
func (e *Engine) Pause() {
	if !e.started || e.paused || e.phase == PhaseOver {
		return
	}
	e.paused = true
	e.cancelTimer()
	e.log.Debug("paused", "phase", e.phase, "remaining", e.timeRemaining)
	e.emit()
}

// Resume restarts whatever Pause froze. A countdown that had already reached
// zero performs its expiry transition immediately.
func (e *Engine) Resume() {
	if !e.paused {
		return
	}
	e.paused = false
	e.log.Debug("resumed", "phase", e.phase, "remaining", e.timeRemaining)

	switch e.phase {
	case PhaseIdle:
		e.schedule(e.idleDelay, e.beginRound)
	case PhaseMemorizing, PhaseRecalling:
		if e.timeRemaining <= 0 {
			e.expire()
			return
		}
		e.schedule(countdownStep, e.tick)
	}
	e.emit()
}

// TogglePause pauses a running game or resumes a paused one.
func (e *Engine) TogglePause() {
	if e.paused {
		e.Resume()
	} else {
		e.Pause()
	}
}

// AcknowledgeSuccess banks the round's points and moves to the next level.
func (e *Engine) AcknowledgeSuccess() {
	if e.phase != PhaseFeedback || e.outcome != OutcomeSuccess || e.paused {
		return
	}
	e.score += e.roundPoints
	e.level++
	if e.level > e.highestLevel {
		e.highestLevel = e.level
		if e.hooks.OnHighestLevel != nil {
			e.hooks.OnHighestLevel(e.playerID, e.highestLevel)
		}
	}
	e.toIdle(e.nextRoundDelay)
}

// AcknowledgeFailure retries the level, or ends the run when no lives are
// left.
func (e *Engine) AcknowledgeFailure() {
	if e.phase != PhaseFeedback || e.outcome != OutcomeFailure || e.paused {
		return
	}
	if e.lives > 0 {
		e.toIdle(e.nextRoundDelay)
		return
	}

	e.cancelTimer()
	e.phase = PhaseOver
	e.shape = Shape{}
	e.selections.Clear()
	e.log.Debug("run over", "player", e.playerID, "score", e.score, "level", e.level)
	e.emit()
	if e.hooks.OnRunOver != nil {
		e.hooks.OnRunOver(RunResult{
			PlayerID:     e.playerID,
			Score:        e.score,
			Level:        e.level,
			HighestLevel: e.highestLevel,
		})
	}
}

// Acknowledge dismisses the feedback for either outcome.
func (e *Engine) Acknowledge() {
	switch e.outcome {
	case OutcomeSuccess:
		e.AcknowledgeSuccess()
	case OutcomeFailure:
		e.AcknowledgeFailure()
	}
}

// ContinueAfterPayment revives an ended run at the level it was lost on with
// full lives. The score is kept.
func (e *Engine) ContinueAfterPayment() {
	if e.phase != PhaseOver {
		return
	}
	e.lives = MaxLives
	e.level = e.levelWhenFailed
	e.log.Debug("run continued", "player", e.playerID, "level", e.level)
	e.toIdle(e.continueDelay)
}

func (e *Engine) beginRound() {
	if e.phase != PhaseIdle {
		return
	}
	e.round++
	e.resetUsed = false
	e.outcome = OutcomeNone
	e.accuracy = 0
	e.roundPoints = 0
	e.shape = e.gen.Generate(ShapeSize(e.level))
	e.selections.Clear()
	e.phase = PhaseMemorizing
	e.timeRemaining = MemorizeSeconds(e.level)
	e.schedule(countdownStep, e.tick)
	e.log.Debug("round started", "round", e.round, "level", e.level, "size", e.shape.Size())
	e.emit()
}

func (e *Engine) enterRecall() {
	e.phase = PhaseRecalling
	e.selections.Clear()
	e.timeRemaining = RecallSeconds(e.level)
	e.schedule(countdownStep, e.tick)
	e.emit()
}

func (e *Engine) tick() {
	if !e.phase.Timed() {
		return
	}
	e.timeRemaining--
	if e.timeRemaining <= 0 {
		e.timeRemaining = 0
		e.expire()
		return
	}
	e.schedule(countdownStep, e.tick)
	e.emit()
}

// expire performs the transition of a countdown that ran out.
func (e *Engine) expire() {
	switch e.phase {
	case PhaseMemorizing:
		e.enterRecall()
	case PhaseRecalling:
		e.evaluate()
	}
}

func (e *Engine) evaluate() {
	e.cancelTimer()
	e.phase = PhaseFeedback
	e.accuracy = Accuracy(e.shape, e.selections)

	if e.accuracy == 1 {
		e.outcome = OutcomeSuccess
		e.roundPoints = RoundScore(e.level, e.accuracy)
	} else {
		e.outcome = OutcomeFailure
		e.roundPoints = 0
		e.lives--
		if e.lives <= 0 {
			e.lives = 0
			e.levelWhenFailed = e.level
		}
	}

	e.log.Debug("round evaluated", "round", e.round, "outcome", e.outcome, "lives", e.lives)
	e.emit()
	if e.hooks.OnRoundEnd != nil {
		e.hooks.OnRoundEnd(RoundResult{
			PlayerID:  e.playerID,
			Round:     e.round,
			Level:     e.level,
			Outcome:   e.outcome,
			Accuracy:  e.accuracy,
			Points:    e.roundPoints,
			LivesLeft: e.lives,
			ResetUsed: e.resetUsed,
		})
	}
}

func (e *Engine) toIdle(delay time.Duration) {
	e.phase = PhaseIdle
	e.outcome = OutcomeNone
	e.shape = Shape{}
	e.selections.Clear()
	e.timeRemaining = 0
	e.accuracy = 0
	e.roundPoints = 0
	e.idleDelay = delay
	e.schedule(delay, e.beginRound)
	e.emit()
}

// schedule replaces the outstanding timer. The pause flag is checked when
// the callback fires, not when it is scheduled.
func (e *Engine) schedule(d time.Duration, fn func()) {
	e.cancelTimer()
	gen := e.timerGen
	e.timer = e.sched.AfterFunc(d, func() {
		if gen != e.timerGen {
			return
		}
		e.timer = nil
		if e.paused {
			return
		}
		fn()
	})
}

func (e *Engine) cancelTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
}

func (e *Engine) emit() {
	if e.hooks.OnChange != nil {
		e.hooks.OnChange(e.Snapshot())
	}
}

// ActiveTimers returns the number of outstanding timers: zero or one.
func (e *Engine) ActiveTimers() int {
	if e.timer == nil {
		return 0
	}
	return 1
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Paused reports whether the game is paused.
func (e *Engine) Paused() bool { return e.paused }

// Over reports whether the run has ended.
func (e *Engine) Over() bool { return e.phase == PhaseOver }

// PlayerID returns the identity results are reported under.
func (e *Engine) PlayerID() string { return e.playerID }
