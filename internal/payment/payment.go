// Package payment implements the continue payment that revives a run after
// the last life is lost.
package payment

import (
	"context"
	"errors"
	"time"
)

// Errors returned by providers. Callers check them with errors.Is.
var (
	ErrDeclined          = errors.New("payment: declined")
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
	ErrWrongChain        = errors.New("payment: wrong chain")
	ErrNotConfigured     = errors.New("payment: not configured")
	ErrTxFailed          = errors.New("payment: transaction failed")
)

// Request asks for one continue payment.
type Request struct {
	PlayerID string
	Level    int // level the run will continue from
}

// Receipt proves a completed payment.
type Receipt struct {
	ID       string
	Provider string
	PlayerID string
	Level    int
	TxHash   string
	Amount   string
	Token    string
	ChainID  int64
	PaidAt   time.Time
}

// Provider collects a payment. RequestPayment may block for as long as the
// payment takes; it returns an error when the payment did not go through.
type Provider interface {
	Name() string
	RequestPayment(ctx context.Context, req Request) (Receipt, error)
}

// Disabled is a Provider for deployments without a payment gate.
type Disabled struct{}

// Name returns "disabled".
func (Disabled) Name() string { return "disabled" }

// RequestPayment always fails with ErrNotConfigured.
func (Disabled) RequestPayment(context.Context, Request) (Receipt, error) {
	return Receipt{}, ErrNotConfigured
}

// Describe turns a payment error into a short message for the player.
func Describe(err error) string {
	switch {
	case err == nil:
		return "Payment successful"
	case errors.Is(err, ErrDeclined):
		return "Payment declined"
	case errors.Is(err, ErrInsufficientFunds):
		return "Insufficient balance"
	case errors.Is(err, ErrWrongChain):
		return "Wrong network"
	case errors.Is(err, ErrNotConfigured):
		return "Payments are not available"
	case errors.Is(err, ErrTxFailed):
		return "Transaction failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "Payment timed out"
	case errors.Is(err, context.Canceled):
		return "Payment cancelled"
	default:
		return "Payment failed"
	}
}

// Reason returns a short label for err, suitable as a metrics label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDeclined):
		return "declined"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrWrongChain):
		return "wrong_chain"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrTxFailed):
		return "tx_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}
