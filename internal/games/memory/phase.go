package memory

// Phase is the stage of the current round.
type Phase int

const (
	PhaseIdle       Phase = iota // waiting for the next round to start
	PhaseMemorizing              // shape visible, countdown running
	PhaseRecalling               // shape hidden, player selects cells
	PhaseFeedback                // round evaluated, waiting for acknowledgment
	PhaseOver                    // no lives left, waiting for a paid continue
)

// String returns the lowercase phase name used on the wire.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMemorizing:
		return "memorizing"
	case PhaseRecalling:
		return "recalling"
	case PhaseFeedback:
		return "feedback"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// Timed reports whether a countdown runs in this phase.
func (p Phase) Timed() bool {
	return p == PhaseMemorizing || p == PhaseRecalling
}

// Outcome is the result of an evaluated round.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "none"
	}
}
