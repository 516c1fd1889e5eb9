package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/memory.yaml
var defaultMemoryYAML []byte

// Default payment settings: 0.1 USDT on Celo mainnet.
const (
	DefaultTokenAddress = "0x48065fbBE25f71C9282ddf5e1cD6D6A887483D5e"
	DefaultReceiver     = "0xde25bf927c839355c66ee3551dae8a143bf85f9a"
	DefaultChainID      = 42220
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timing: TimingConfig{
			StartDelay:     time.Second,
			NextRoundDelay: 500 * time.Millisecond,
			ContinueDelay:  time.Second,
			TickRate:       20,
		},
		Game: GameConfig{
			StartLevel: 1,
		},
		Payment: PaymentConfig{
			Mode:  PaymentSandbox,
			Price: "0.1",
			Token: TokenConfig{
				Symbol:   "USDT",
				Address:  DefaultTokenAddress,
				Decimals: 6,
			},
			Chain: ChainConfig{
				Name:   "Celo",
				ID:     DefaultChainID,
				RPCURL: "https://forno.celo.org",
			},
			Receiver:     DefaultReceiver,
			KeyEnv:       "MEMORY_PAYER_KEY",
			Timeout:      2 * time.Minute,
			SandboxDelay: 2 * time.Second,
		},
		Leaderboard: LeaderboardConfig{
			DSN:   "~/.memory/scores.db",
			Limit: 100,
		},
		Server: ServerConfig{
			SSHAddr:     ":23234",
			HTTPAddr:    ":8080",
			IdleTimeout: 30 * time.Minute,
		},
	}
}
