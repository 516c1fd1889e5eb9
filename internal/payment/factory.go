package payment

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/memory-master/internal/config"
)

// FromConfig builds the provider selected by cfg.Mode. Successful payments
// are recorded in ledger when it is not nil.
func FromConfig(cfg config.PaymentConfig, ledger Ledger, logger *log.Logger) (Provider, error) {
	var p Provider
	switch cfg.Mode {
	case config.PaymentSandbox, "":
		p = &Sandbox{
			Delay:   cfg.SandboxDelay,
			Decline: cfg.SandboxDecline,
			Amount:  cfg.Price,
			Token:   cfg.Token.Symbol,
		}
	case config.PaymentEVM:
		evm, err := NewEVM(EVMConfig{
			RPCURL:        cfg.Chain.RPCURL,
			ChainID:       cfg.Chain.ID,
			TokenAddress:  cfg.Token.Address,
			TokenSymbol:   cfg.Token.Symbol,
			Decimals:      cfg.Token.Decimals,
			Receiver:      cfg.Receiver,
			Price:         cfg.Price,
			PrivateKeyHex: os.Getenv(cfg.KeyEnv),
			Timeout:       cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		p = evm
	case config.PaymentDisabled:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrNotConfigured, cfg.Mode)
	}

	if ledger != nil {
		p = NewRecorded(p, ledger, logger)
	}
	return p, nil
}
