package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the file name looked up in the config directories.
const ConfigFile = "memory.yaml"

// Load loads the configuration.
// Search order: customPath -> ~/.memory/configs/memory.yaml ->
// ./configs/memory.yaml -> embedded default -> hard-coded default.
// Files are decoded over the defaults, so they only need the keys they change.
func Load(customPath string) (Config, error) {
	cfg := DefaultConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(ConfigFile); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = DefaultConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", ConfigFile)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultConfig()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultMemoryYAML, &cfg); err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".memory", "configs", filename)
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables that are already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Environment variables that override file settings.
const (
	EnvPlayerID      = "MEMORY_PLAYER_ID"
	EnvPlayerName    = "MEMORY_PLAYER_NAME"
	EnvPlayerHandle  = "MEMORY_PLAYER_HANDLE"
	EnvStartLevel    = "MEMORY_START_LEVEL"
	EnvPaymentMode   = "MEMORY_PAYMENT_MODE"
	EnvGamePrice     = "MEMORY_GAME_PRICE"
	EnvWalletAddress = "MEMORY_GAME_WALLET_ADDRESS"
	EnvTokenAddress  = "MEMORY_TOKEN_ADDRESS"
	EnvRPCURL        = "MEMORY_RPC_URL"
	EnvDSN           = "MEMORY_DB_DSN"
	EnvSSHAddr       = "MEMORY_SSH_ADDR"
	EnvHTTPAddr      = "MEMORY_HTTP_ADDR"
)

// ApplyEnv overrides settings from MEMORY_* environment variables.
func ApplyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvPlayerID, &cfg.Player.ID},
		{EnvPlayerName, &cfg.Player.Name},
		{EnvPlayerHandle, &cfg.Player.Handle},
		{EnvGamePrice, &cfg.Payment.Price},
		{EnvWalletAddress, &cfg.Payment.Receiver},
		{EnvTokenAddress, &cfg.Payment.Token.Address},
		{EnvRPCURL, &cfg.Payment.Chain.RPCURL},
		{EnvDSN, &cfg.Leaderboard.DSN},
		{EnvSSHAddr, &cfg.Server.SSHAddr},
		{EnvHTTPAddr, &cfg.Server.HTTPAddr},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPaymentMode); ok && v != "" {
		cfg.Payment.Mode = PaymentMode(v)
	}
	if v, ok := os.LookupEnv(EnvStartLevel); ok && v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvStartLevel, v, err)
		}
		cfg.Game.StartLevel = level
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Timing.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("timing.tick_rate must be positive, got %d", c.Timing.TickRate))
	}
	if c.Leaderboard.Limit <= 0 {
		errs = append(errs, fmt.Errorf("leaderboard.limit must be positive, got %d", c.Leaderboard.Limit))
	}
	switch c.Payment.Mode {
	case PaymentSandbox, PaymentEVM, PaymentDisabled:
	default:
		errs = append(errs, fmt.Errorf("payment.mode %q is not one of sandbox, evm, disabled", c.Payment.Mode))
	}
	if c.Payment.Token.Decimals < 0 || c.Payment.Token.Decimals > 36 {
		errs = append(errs, fmt.Errorf("payment.token.decimals out of range: %d", c.Payment.Token.Decimals))
	}
	if c.Game.Difficulty != "" && StartLevelForPreset(c.Game.Difficulty) == 0 {
		errs = append(errs, fmt.Errorf("game.difficulty %q is not one of easy, normal, hard", c.Game.Difficulty))
	}
	return errors.Join(errs...)
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
