package session

import (
	"github.com/vovakirdan/memory-master/internal/games/memory"
	"github.com/vovakirdan/memory-master/internal/payment"
)

// Event is delivered to the consumer of a Runner.
type Event interface {
	sessionEvent()
}

// SnapshotEvent carries the engine state after a transition.
type SnapshotEvent struct {
	Snapshot memory.Snapshot
}

func (SnapshotEvent) sessionEvent() {}

// RoundEvent is sent when a round has been evaluated.
type RoundEvent struct {
	Result memory.RoundResult
}

func (RoundEvent) sessionEvent() {}

// RunOverEvent is sent once per ended run, after the score was submitted.
type RunOverEvent struct {
	Result memory.RunResult
	// NewBest is true when the leaderboard entry was replaced.
	NewBest bool
	Share   string
}

func (RunOverEvent) sessionEvent() {}

// PaymentState is the progress of a continue payment.
type PaymentState int

const (
	PaymentPending PaymentState = iota
	PaymentSucceeded
	PaymentFailed
)

func (s PaymentState) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentSucceeded:
		return "succeeded"
	case PaymentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PaymentEvent reports the progress of a continue payment.
type PaymentEvent struct {
	State   PaymentState
	Message string
	Receipt *payment.Receipt
}

func (PaymentEvent) sessionEvent() {}

// messages handled by the run loop
type message interface {
	runnerMessage()
}

type commandMsg struct{ cmd memory.Command }

func (commandMsg) runnerMessage() {}

type paymentDoneMsg struct {
	receipt payment.Receipt
	err     error
}

func (paymentDoneMsg) runnerMessage() {}
