package memory

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/memory-master/internal/sched"
)

type harness struct {
	e       *Engine
	v       *sched.Virtual
	changes int
	rounds  []RoundResult
	runs    []RunResult
	highest []int
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{v: sched.NewVirtual()}
	opts.Scheduler = h.v
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	opts.Hooks = Hooks{
		OnChange:       func(Snapshot) { h.changes++ },
		OnRoundEnd:     func(r RoundResult) { h.rounds = append(h.rounds, r) },
		OnRunOver:      func(r RunResult) { h.runs = append(h.runs, r) },
		OnHighestLevel: func(_ string, level int) { h.highest = append(h.highest, level) },
	}
	h.e = NewEngine(opts)
	return h
}

// startRound runs the engine into the Memorizing phase of the next round.
func (h *harness) startRound(t *testing.T) {
	t.Helper()
	if !h.e.started {
		h.e.Start()
		h.v.Advance(DefaultStartDelay)
	} else {
		h.v.Advance(DefaultNextRoundDelay)
	}
	if h.e.Phase() != PhaseMemorizing {
		t.Fatalf("expected Memorizing, got %v", h.e.Phase())
	}
}

func (h *harness) selectShape() {
	for _, c := range h.e.shape.Cells() {
		h.e.ClickCell(c.Row, c.Col)
	}
}

func (h *harness) selectWrongCell() {
	for i := 0; i < CellCount; i++ {
		c := CellAt(i)
		if !h.e.shape.Contains(c) {
			h.e.ClickCell(c.Row, c.Col)
			return
		}
	}
}

// failRound plays one round with a wrong answer.
func (h *harness) failRound(t *testing.T) {
	t.Helper()
	h.startRound(t)
	h.e.ProceedEarly()
	h.selectWrongCell()
	h.e.Submit()
	if h.e.outcome != OutcomeFailure {
		t.Fatalf("expected failure, got %v", h.e.outcome)
	}
}

// winRound plays one round with a perfect answer.
func (h *harness) winRound(t *testing.T) {
	t.Helper()
	h.startRound(t)
	h.e.ProceedEarly()
	h.selectShape()
	h.e.Submit()
	if h.e.outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %v", h.e.outcome)
	}
}

func TestEngineStartsIdle(t *testing.T) {
	h := newHarness(t, Options{})
	s := h.e.Snapshot()

	if s.Phase != PhaseIdle || s.Level != 1 || s.Lives != MaxLives || s.Score != 0 {
		t.Errorf("unexpected initial snapshot %+v", s)
	}
	if h.v.Pending() != 0 {
		t.Error("no timer should be armed before Start")
	}

	// Nothing happens before Start.
	h.v.Advance(time.Minute)
	if h.e.Phase() != PhaseIdle {
		t.Errorf("phase = %v, expected Idle", h.e.Phase())
	}
}

func TestEngineStartDelay(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Start()

	h.v.Advance(DefaultStartDelay - time.Millisecond)
	if h.e.Phase() != PhaseIdle {
		t.Fatalf("round started before the delay elapsed")
	}
	h.v.Advance(time.Millisecond)

	s := h.e.Snapshot()
	if s.Phase != PhaseMemorizing {
		t.Fatalf("phase = %v, expected Memorizing", s.Phase)
	}
	if s.TimeRemaining != MemorizeSeconds(1) {
		t.Errorf("TimeRemaining = %d, expected %d", s.TimeRemaining, MemorizeSeconds(1))
	}
	if len(s.Shape) != ShapeSize(1) {
		t.Errorf("shape size = %d, expected %d", len(s.Shape), ShapeSize(1))
	}
	if !s.ResetAvailable {
		t.Error("reset should be available at round start")
	}
}

func TestEngineCountdownToRecall(t *testing.T) {
	h := newHarness(t, Options{})
	h.startRound(t)

	h.v.Advance(6 * time.Second)
	if h.e.Phase() != PhaseMemorizing || h.e.timeRemaining != 1 {
		t.Fatalf("after 6s: phase %v remaining %d", h.e.Phase(), h.e.timeRemaining)
	}

	h.v.Advance(time.Second)
	s := h.e.Snapshot()
	if s.Phase != PhaseRecalling {
		t.Fatalf("phase = %v, expected Recalling", s.Phase)
	}
	if s.TimeRemaining != RecallSeconds(1) {
		t.Errorf("TimeRemaining = %d, expected %d", s.TimeRemaining, RecallSeconds(1))
	}
	if s.Shape != nil {
		t.Error("shape must be hidden while recalling")
	}
}

func TestEngineRecallTimeoutAutoSubmits(t *testing.T) {
	t.Run("correct selection succeeds", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.startRound(t)
		h.e.ProceedEarly()
		h.selectShape()

		h.v.Advance(time.Duration(RecallSeconds(1)) * time.Second)
		if h.e.Phase() != PhaseFeedback || h.e.outcome != OutcomeSuccess {
			t.Errorf("phase %v outcome %v, expected Feedback success", h.e.Phase(), h.e.outcome)
		}
	})

	t.Run("empty selection fails", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.startRound(t)
		h.e.ProceedEarly()

		h.v.Advance(time.Duration(RecallSeconds(1)) * time.Second)
		if h.e.Phase() != PhaseFeedback || h.e.outcome != OutcomeFailure {
			t.Errorf("phase %v outcome %v, expected Feedback failure", h.e.Phase(), h.e.outcome)
		}
		if h.e.lives != MaxLives-1 {
			t.Errorf("lives = %d, expected %d", h.e.lives, MaxLives-1)
		}
	})
}

func TestEngineRoundScoring(t *testing.T) {
	h := newHarness(t, Options{StartLevel: 5})

	h.winRound(t)
	if s := h.e.Snapshot(); s.RoundScore != 500 || s.Score != 0 {
		t.Errorf("before ack: round score %d, score %d", s.RoundScore, s.Score)
	}
	h.e.AcknowledgeSuccess()
	if h.e.score != 500 || h.e.level != 6 {
		t.Fatalf("after first round: score %d level %d", h.e.score, h.e.level)
	}

	h.winRound(t)
	h.e.AcknowledgeSuccess()
	if h.e.score != 1100 {
		t.Errorf("score = %d, expected 1100", h.e.score)
	}
	if h.e.level != 7 {
		t.Errorf("level = %d, expected 7", h.e.level)
	}
	if !reflect.DeepEqual(h.highest, []int{6, 7}) {
		t.Errorf("highest level updates = %v, expected [6 7]", h.highest)
	}
}

func TestEngineLivesAndTermination(t *testing.T) {
	h := newHarness(t, Options{PlayerID: "p1"})

	for i := 1; i <= 3; i++ {
		h.failRound(t)
		if h.e.lives != MaxLives-i {
			t.Fatalf("after failure %d: lives = %d", i, h.e.lives)
		}
		if h.e.Over() {
			t.Fatalf("run must not be over before the failure is acknowledged (failure %d)", i)
		}
		h.e.AcknowledgeFailure()
	}

	if !h.e.Over() {
		t.Fatal("run should be over after the third failure is acknowledged")
	}
	if len(h.runs) != 1 {
		t.Fatalf("OnRunOver called %d times, expected 1", len(h.runs))
	}
	if r := h.runs[0]; r.PlayerID != "p1" || r.Score != 0 || r.Level != 1 {
		t.Errorf("unexpected run result %+v", r)
	}
	if h.v.Pending() != 0 {
		t.Errorf("no timer should be armed when the run is over, got %d", h.v.Pending())
	}

	// Over is terminal until a continue.
	h.v.Advance(time.Minute)
	h.e.Pause()
	if !h.e.Over() || h.e.Paused() {
		t.Error("over run should ignore time and pause")
	}
}

func TestEnginePauseIdempotence(t *testing.T) {
	h := newHarness(t, Options{})
	h.startRound(t)

	h.v.Advance(3 * time.Second)
	if h.e.timeRemaining != 4 {
		t.Fatalf("remaining = %d, expected 4", h.e.timeRemaining)
	}

	h.e.Pause()
	if h.e.ActiveTimers() != 0 || h.v.Pending() != 0 {
		t.Fatal("pause must cancel the countdown")
	}
	h.v.Advance(30 * time.Second)

	h.e.Resume()
	s := h.e.Snapshot()
	if s.Phase != PhaseMemorizing || s.TimeRemaining != 4 {
		t.Fatalf("after resume: phase %v remaining %d, expected Memorizing 4", s.Phase, s.TimeRemaining)
	}

	h.v.Advance(time.Second)
	if h.e.timeRemaining != 3 {
		t.Errorf("countdown should continue after resume, remaining = %d", h.e.timeRemaining)
	}
}

func TestEnginePauseBlocksActions(t *testing.T) {
	h := newHarness(t, Options{})
	h.startRound(t)
	h.e.ProceedEarly()

	h.e.Pause()
	h.e.ClickCell(0, 0)
	h.e.Submit()
	if len(h.e.Snapshot().Selections) != 0 {
		t.Error("selections must not change while paused")
	}
	if h.e.Phase() != PhaseRecalling {
		t.Error("submit must be ignored while paused")
	}
	h.e.Resume()
	h.e.ClickCell(0, 0)
	if len(h.e.Snapshot().Selections) != 1 {
		t.Error("clicks should work after resume")
	}
}

func TestEnginePauseWhileIdle(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Start()
	h.e.Pause()

	h.v.Advance(time.Minute)
	if h.e.Phase() != PhaseIdle {
		t.Fatalf("round started while paused")
	}

	h.e.Resume()
	h.v.Advance(DefaultStartDelay)
	if h.e.Phase() != PhaseMemorizing {
		t.Errorf("phase = %v, expected Memorizing after resume", h.e.Phase())
	}
}

func TestEngineResumeKeepsPendingIdleDelay(t *testing.T) {
	t.Run("next round", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.winRound(t)
		h.e.AcknowledgeSuccess()
		h.e.Pause()
		h.e.Resume()

		h.v.Advance(DefaultNextRoundDelay)
		if h.e.Phase() != PhaseMemorizing {
			t.Errorf("phase = %v, expected Memorizing %v after resume", h.e.Phase(), DefaultNextRoundDelay)
		}
	})

	t.Run("continue", func(t *testing.T) {
		const continueDelay = 3 * time.Second
		h := newHarness(t, Options{ContinueDelay: continueDelay})
		for i := 0; i < MaxLives; i++ {
			h.failRound(t)
			h.e.AcknowledgeFailure()
		}
		if h.e.Phase() != PhaseOver {
			t.Fatalf("phase = %v, expected Over", h.e.Phase())
		}

		h.e.ContinueAfterPayment()
		h.e.Pause()
		h.e.Resume()

		h.v.Advance(DefaultStartDelay)
		if h.e.Phase() != PhaseIdle {
			t.Fatalf("round started after the start delay instead of the continue delay")
		}
		h.v.Advance(continueDelay - DefaultStartDelay)
		if h.e.Phase() != PhaseMemorizing {
			t.Errorf("phase = %v, expected Memorizing after the continue delay", h.e.Phase())
		}
	})
}

func TestEngineResumeAtZeroPerformsTransition(t *testing.T) {
	t.Run("memorizing", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.startRound(t)
		h.e.Pause()
		h.e.timeRemaining = 0

		h.e.Resume()
		if h.e.Phase() != PhaseRecalling {
			t.Errorf("phase = %v, expected Recalling", h.e.Phase())
		}
	})

	t.Run("recalling", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.startRound(t)
		h.e.ProceedEarly()
		h.selectShape()
		h.e.Pause()
		h.e.timeRemaining = 0

		h.e.Resume()
		if h.e.Phase() != PhaseFeedback || h.e.outcome != OutcomeSuccess {
			t.Errorf("phase %v outcome %v, expected auto-submit success", h.e.Phase(), h.e.outcome)
		}
	})
}

func TestEngineResetOnce(t *testing.T) {
	h := newHarness(t, Options{})
	h.startRound(t)
	h.v.Advance(2 * time.Second)

	h.e.ResetPattern()
	s1 := h.e.Snapshot()
	if s1.TimeRemaining != MemorizeSeconds(1) {
		t.Errorf("reset should restart the countdown, remaining = %d", s1.TimeRemaining)
	}
	if s1.ResetAvailable {
		t.Error("reset should no longer be available")
	}

	h.e.ResetPattern()
	s2 := h.e.Snapshot()
	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("second reset changed state:\n%+v\n%+v", s1, s2)
	}
	if h.v.Pending() != 1 {
		t.Errorf("pending timers = %d, expected 1", h.v.Pending())
	}

	// Flag resets with the next round.
	h.e.ProceedEarly()
	h.selectShape()
	h.e.Submit()
	h.e.AcknowledgeSuccess()
	h.startRound(t)
	if !h.e.Snapshot().ResetAvailable {
		t.Error("reset should be available again in a new round")
	}
}

func TestEngineContinueAfterPayment(t *testing.T) {
	h := newHarness(t, Options{StartLevel: 7})
	for i := 0; i < 3; i++ {
		h.failRound(t)
		h.e.AcknowledgeFailure()
	}

	s := h.e.Snapshot()
	if !s.Over || s.LevelWhenFailed != 7 || s.Lives != 0 {
		t.Fatalf("unexpected over snapshot %+v", s)
	}

	h.e.ContinueAfterPayment()
	s = h.e.Snapshot()
	if s.Over || s.Level != 7 || s.Lives != MaxLives || s.Phase != PhaseIdle {
		t.Fatalf("after continue: %+v", s)
	}

	h.v.Advance(DefaultContinueDelay)
	if h.e.Phase() != PhaseMemorizing {
		t.Errorf("phase = %v, expected Memorizing", h.e.Phase())
	}
}

func TestEngineContinueKeepsScore(t *testing.T) {
	h := newHarness(t, Options{StartLevel: 2})
	h.winRound(t)
	h.e.AcknowledgeSuccess()
	for i := 0; i < 3; i++ {
		h.failRound(t)
		h.e.AcknowledgeFailure()
	}
	if h.runs[0].Score != 200 || h.runs[0].Level != 3 {
		t.Fatalf("run result %+v", h.runs[0])
	}

	h.e.ContinueAfterPayment()
	if h.e.score != 200 || h.e.level != 3 {
		t.Errorf("score %d level %d after continue", h.e.score, h.e.level)
	}
}

func TestEngineIllegalActionsAreNoOps(t *testing.T) {
	h := newHarness(t, Options{})

	check := func(name string, action func()) {
		t.Helper()
		before := h.e.Snapshot()
		pending := h.v.Pending()
		action()
		if after := h.e.Snapshot(); !reflect.DeepEqual(before, after) || h.v.Pending() != pending {
			t.Errorf("%s changed state in phase %v", name, before.Phase)
		}
	}

	// Idle before start.
	check("click", func() { h.e.ClickCell(0, 0) })
	check("submit", h.e.Submit)
	check("proceed", h.e.ProceedEarly)
	check("reset", h.e.ResetPattern)
	check("pause", h.e.Pause)
	check("resume", h.e.Resume)
	check("ack success", h.e.AcknowledgeSuccess)
	check("ack failure", h.e.AcknowledgeFailure)
	check("continue", h.e.ContinueAfterPayment)

	h.startRound(t)
	check("click while memorizing", func() { h.e.ClickCell(1, 1) })
	check("submit while memorizing", h.e.Submit)
	check("ack while memorizing", h.e.AcknowledgeSuccess)
	check("continue while memorizing", h.e.ContinueAfterPayment)

	h.e.ProceedEarly()
	check("empty submit", h.e.Submit)
	check("off-grid click", func() { h.e.ClickCell(8, 0) })
	check("proceed while recalling", h.e.ProceedEarly)
	check("reset while recalling", h.e.ResetPattern)

	h.selectWrongCell()
	h.e.Submit()
	check("ack success after failure", h.e.AcknowledgeSuccess)
	check("click in feedback", func() { h.e.ClickCell(2, 2) })
	check("start twice", h.e.Start)
}

func TestEngineProceedEarlyHasNoScoringEffect(t *testing.T) {
	early := newHarness(t, Options{StartLevel: 3})
	early.winRound(t)

	late := newHarness(t, Options{StartLevel: 3})
	late.startRound(t)
	late.v.Advance(time.Duration(MemorizeSeconds(3)) * time.Second)
	late.selectShape()
	late.e.Submit()

	if early.e.roundPoints != late.e.roundPoints {
		t.Errorf("proceeding early changed points: %d vs %d", early.e.roundPoints, late.e.roundPoints)
	}
}

// stubbornScheduler hands out timers that cannot be stopped, so every
// callback eventually fires.
type stubbornScheduler struct {
	v *sched.Virtual
}

type stubbornTimer struct{}

func (stubbornTimer) Stop() bool { return false }

func (s stubbornScheduler) AfterFunc(d time.Duration, f func()) sched.Timer {
	s.v.AfterFunc(d, f)
	return stubbornTimer{}
}

func TestEngineIgnoresStaleTimers(t *testing.T) {
	v := sched.NewVirtual()
	e := NewEngine(Options{Scheduler: stubbornScheduler{v}, Seed: 3})
	e.Start()
	v.Advance(DefaultStartDelay)
	v.Advance(3 * time.Second)

	e.Pause()
	v.Advance(10 * time.Second)
	if e.timeRemaining != 4 || e.Phase() != PhaseMemorizing {
		t.Fatalf("paused round advanced: phase %v remaining %d", e.Phase(), e.timeRemaining)
	}

	// The stale tick from before the pause still fires but must not count.
	e.Resume()
	v.Advance(time.Second)
	if e.timeRemaining != 3 {
		t.Errorf("remaining = %d, expected 3", e.timeRemaining)
	}

	// Reset replaces the countdown; the old tick must not double count.
	e.ResetPattern()
	v.Advance(time.Second)
	if e.timeRemaining != MemorizeSeconds(1)-1 {
		t.Errorf("remaining after reset = %d, expected %d", e.timeRemaining, MemorizeSeconds(1)-1)
	}
}

func TestEngineHoldsOneTimer(t *testing.T) {
	h := newHarness(t, Options{Seed: 11})
	h.e.Start()
	rng := rand.New(rand.NewSource(99))

	actions := []func(){
		func() { h.e.ClickCell(rng.Intn(GridSize), rng.Intn(GridSize)) },
		h.e.Submit,
		h.e.ProceedEarly,
		h.e.ResetPattern,
		h.e.Pause,
		h.e.Resume,
		h.e.Acknowledge,
		h.e.ContinueAfterPayment,
		func() { h.v.Advance(time.Duration(rng.Intn(2500)) * time.Millisecond) },
	}

	for i := 0; i < 5000; i++ {
		actions[rng.Intn(len(actions))]()

		s := h.e.Snapshot()
		pending := h.v.Pending()
		if pending > 1 {
			t.Fatalf("step %d: %d timers pending", i, pending)
		}
		if !s.Paused && s.Phase.Timed() && pending != 1 {
			t.Fatalf("step %d: running %v phase has %d timers", i, s.Phase, pending)
		}
		if (s.Paused || s.Phase == PhaseFeedback || s.Phase == PhaseOver) && pending != 0 {
			t.Fatalf("step %d: %d timers pending while paused=%v phase=%v", i, pending, s.Paused, s.Phase)
		}
		if s.Lives < 0 || s.Lives > MaxLives {
			t.Fatalf("step %d: lives %d out of range", i, s.Lives)
		}
		if (s.Phase == PhaseMemorizing || s.Phase == PhaseFeedback) && len(s.Shape) == 0 {
			t.Fatalf("step %d: no shape in phase %v", i, s.Phase)
		}
		if s.Phase != PhaseRecalling && s.Phase != PhaseFeedback && len(s.Selections) != 0 {
			t.Fatalf("step %d: selections present in phase %v", i, s.Phase)
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	run := func() []Snapshot {
		v := sched.NewVirtual()
		var snaps []Snapshot
		e := NewEngine(Options{
			Scheduler: v,
			Seed:      12345,
			Hooks:     Hooks{OnChange: func(s Snapshot) { snaps = append(snaps, s) }},
		})
		e.Start()
		for i := 0; i < 4; i++ {
			v.Advance(2 * time.Second)
			e.ResetPattern()
			e.ProceedEarly()
			e.ClickCell(i, i)
			e.Submit()
			e.Acknowledge()
		}
		v.Advance(time.Minute)
		return snaps
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed and inputs should produce identical snapshots")
	}
	if len(a) == 0 {
		t.Error("expected snapshots")
	}
}

func TestEngineHandle(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Handle(Command{Kind: CmdStart})
	h.v.Advance(DefaultStartDelay)
	h.e.Handle(Command{Kind: CmdProceed})

	c := h.e.shape.Cells()[0]
	h.e.Handle(Command{Kind: CmdClick, Row: c.Row, Col: c.Col})
	if !h.e.selections.Has(c.Index()) {
		t.Error("click command should select the cell")
	}

	h.e.Handle(Command{Kind: CmdPause})
	if !h.e.Paused() {
		t.Error("pause command should pause")
	}
	h.e.Handle(Command{Kind: CmdResume})
	h.e.Handle(Command{Kind: CmdSubmit})
	if h.e.Phase() != PhaseFeedback {
		t.Errorf("phase = %v, expected Feedback", h.e.Phase())
	}
	if len(h.rounds) != 1 {
		t.Errorf("OnRoundEnd called %d times, expected 1", len(h.rounds))
	}
}

func TestEngineEmitsOnEveryTransition(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Start()
	before := h.changes
	h.v.Advance(DefaultStartDelay)
	if h.changes != before+1 {
		t.Errorf("round start emitted %d snapshots, expected 1", h.changes-before)
	}

	before = h.changes
	h.v.Advance(time.Second)
	if h.changes != before+1 {
		t.Errorf("countdown tick emitted %d snapshots, expected 1", h.changes-before)
	}
}

func TestEngineHighestLevelFromStorage(t *testing.T) {
	h := newHarness(t, Options{HighestLevel: 9})
	if h.e.Snapshot().HighestLevel != 9 {
		t.Errorf("HighestLevel = %d, expected 9", h.e.Snapshot().HighestLevel)
	}
	h.winRound(t)
	h.e.AcknowledgeSuccess()
	if len(h.highest) != 0 {
		t.Errorf("high-water mark should not be reported below the stored value, got %v", h.highest)
	}
}
