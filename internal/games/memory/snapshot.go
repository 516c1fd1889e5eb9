package memory

// Snapshot is a read-only copy of the engine state, produced after every
// transition.
type Snapshot struct {
	PlayerID string
	Round    int
	Phase    Phase
	Outcome  Outcome
	Started  bool
	Paused   bool
	Over     bool

	Level           int
	Score           int
	Lives           int
	HighestLevel    int
	LevelWhenFailed int

	TimeRemaining  int
	ResetAvailable bool

	// Shape is only populated while memorizing and during feedback.
	Shape      []Cell
	Selections []int

	Accuracy   float64
	RoundScore int
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		PlayerID:        e.playerID,
		Round:           e.round,
		Phase:           e.phase,
		Outcome:         e.outcome,
		Started:         e.started,
		Paused:          e.paused,
		Over:            e.phase == PhaseOver,
		Level:           e.level,
		Score:           e.score,
		Lives:           e.lives,
		HighestLevel:    e.highestLevel,
		LevelWhenFailed: e.levelWhenFailed,
		TimeRemaining:   e.timeRemaining,
		ResetAvailable:  e.phase == PhaseMemorizing && !e.resetUsed,
		Selections:      e.selections.Indices(),
		Accuracy:        e.accuracy,
		RoundScore:      e.roundPoints,
	}
	if e.phase == PhaseMemorizing || e.phase == PhaseFeedback {
		s.Shape = e.shape.Cells()
	}
	return s
}

// ShapeContains reports whether the visible shape includes the cell.
func (s Snapshot) ShapeContains(c Cell) bool {
	for _, sc := range s.Shape {
		if sc == c {
			return true
		}
	}
	return false
}

// Selected reports whether the cell is selected.
func (s Snapshot) Selected(c Cell) bool {
	i := c.Index()
	for _, v := range s.Selections {
		if v == i {
			return true
		}
	}
	return false
}
