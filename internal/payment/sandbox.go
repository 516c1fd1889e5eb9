package payment

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Sandbox simulates a payment: it waits for a delay and then succeeds, or
// declines when configured to.
type Sandbox struct {
	Delay   time.Duration
	Decline bool
	Amount  string
	Token   string

	Clock clock.Clock
}

// Name returns "sandbox".
func (s *Sandbox) Name() string { return "sandbox" }

// RequestPayment waits for the delay or the context, whichever comes first.
func (s *Sandbox) RequestPayment(ctx context.Context, req Request) (Receipt, error) {
	clk := s.Clock
	if clk == nil {
		clk = clock.New()
	}

	if s.Delay > 0 {
		t := clk.Timer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	if s.Decline {
		return Receipt{}, ErrDeclined
	}

	return Receipt{
		ID:       uuid.NewString(),
		Provider: s.Name(),
		PlayerID: req.PlayerID,
		Level:    req.Level,
		Amount:   s.Amount,
		Token:    s.Token,
		PaidAt:   clk.Now(),
	}, nil
}
