package payment

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/memory-master/internal/storage"
)

// Ledger stores completed payments.
type Ledger interface {
	RecordPayment(ctx context.Context, p storage.Payment) error
}

// Recorded wraps a provider and records every successful payment.
type Recorded struct {
	provider Provider
	ledger   Ledger
	logger   *log.Logger
}

// NewRecorded wraps provider. A nil logger discards.
func NewRecorded(provider Provider, ledger Ledger, logger *log.Logger) *Recorded {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Recorded{provider: provider, ledger: ledger, logger: logger}
}

// Name returns the wrapped provider's name.
func (r *Recorded) Name() string { return r.provider.Name() }

// RequestPayment forwards to the wrapped provider. A ledger failure is logged
// and does not fail the payment: the player has already paid.
func (r *Recorded) RequestPayment(ctx context.Context, req Request) (Receipt, error) {
	receipt, err := r.provider.RequestPayment(ctx, req)
	if err != nil {
		r.logger.Warn("payment failed", "provider", r.provider.Name(), "player", req.PlayerID, "err", err)
		return receipt, err
	}

	rec := storage.Payment{
		ID:        receipt.ID,
		PlayerID:  receipt.PlayerID,
		Provider:  receipt.Provider,
		TxHash:    receipt.TxHash,
		Amount:    receipt.Amount,
		Token:     receipt.Token,
		ChainID:   receipt.ChainID,
		Level:     receipt.Level,
		CreatedAt: receipt.PaidAt,
	}
	if err := r.ledger.RecordPayment(ctx, rec); err != nil {
		r.logger.Error("failed to record payment", "id", receipt.ID, "player", receipt.PlayerID, "err", err)
	} else {
		r.logger.Info("payment recorded", "id", receipt.ID, "player", receipt.PlayerID, "tx", receipt.TxHash)
	}
	return receipt, nil
}
