// Package config provides YAML-based configuration loading for Memory Master,
// with embedded defaults and environment overrides.
package config

import "time"

// Config contains all configuration for the game, its storage, the payment
// gate and the network servers.
type Config struct {
	Timing      TimingConfig      `yaml:"timing"`
	Game        GameConfig        `yaml:"game"`
	Player      PlayerConfig      `yaml:"player"`
	Payment     PaymentConfig     `yaml:"payment"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Server      ServerConfig      `yaml:"server"`
}

// TimingConfig defines the delays between rounds and the platform frame rate.
type TimingConfig struct {
	StartDelay     time.Duration `yaml:"start_delay"`
	NextRoundDelay time.Duration `yaml:"next_round_delay"`
	ContinueDelay  time.Duration `yaml:"continue_delay"`
	TickRate       int           `yaml:"tick_rate"` // frames per second
}

// GameConfig defines how a run starts.
type GameConfig struct {
	StartLevel int              `yaml:"start_level"`
	Difficulty DifficultyPreset `yaml:"difficulty"` // overrides start_level when set
	Seed       int64            `yaml:"seed"`       // 0 = time based
}

// PlayerConfig identifies the local player. An empty ID gets a guest id.
type PlayerConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Handle string `yaml:"handle"`
}

// PaymentConfig defines the continue payment.
type PaymentConfig struct {
	Mode     PaymentMode `yaml:"mode"`
	Price    string      `yaml:"price"` // decimal amount in token units
	Token    TokenConfig `yaml:"token"`
	Chain    ChainConfig `yaml:"chain"`
	Receiver string      `yaml:"receiver"`
	// KeyEnv names the environment variable that holds the payer's hex
	// private key in evm mode.
	KeyEnv  string        `yaml:"key_env"`
	Timeout time.Duration `yaml:"timeout"`

	SandboxDelay   time.Duration `yaml:"sandbox_delay"`
	SandboxDecline bool          `yaml:"sandbox_decline"`
}

// PaymentMode selects the payment provider.
type PaymentMode string

const (
	PaymentSandbox  PaymentMode = "sandbox"
	PaymentEVM      PaymentMode = "evm"
	PaymentDisabled PaymentMode = "disabled"
)

// TokenConfig describes the ERC-20 token used for payment.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// ChainConfig describes the EVM network.
type ChainConfig struct {
	Name   string `yaml:"name"`
	ID     int64  `yaml:"id"`
	RPCURL string `yaml:"rpc_url"`
}

// LeaderboardConfig defines score storage. DSNs starting with postgres://
// select PostgreSQL; anything else is a SQLite path.
type LeaderboardConfig struct {
	DSN   string `yaml:"dsn"`
	Limit int    `yaml:"limit"`
}

// ServerConfig defines the SSH and HTTP servers.
type ServerConfig struct {
	SSHAddr     string        `yaml:"ssh_addr"`
	HTTPAddr    string        `yaml:"http_addr"`
	HostKeyPath string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DifficultyPreset represents a named starting difficulty.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// StartLevelForPreset returns the level a run starts at for a preset, or 0
// for an unknown preset.
func StartLevelForPreset(preset DifficultyPreset) int {
	switch preset {
	case DifficultyEasy:
		return 1
	case DifficultyNormal:
		return 3
	case DifficultyHard:
		return 8
	default:
		return 0
	}
}

// EffectiveStartLevel resolves the preset and start level into the level a
// new run begins at.
func (g GameConfig) EffectiveStartLevel() int {
	if l := StartLevelForPreset(g.Difficulty); l > 0 {
		return l
	}
	if g.StartLevel < 1 {
		return 1
	}
	return g.StartLevel
}

// PriceLabel formats the price for display, e.g. "0.1 USDT".
func (p PaymentConfig) PriceLabel() string {
	if p.Token.Symbol == "" {
		return p.Price
	}
	return p.Price + " " + p.Token.Symbol
}
