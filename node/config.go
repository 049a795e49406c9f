package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/VeriBlock/nodecore-sub002/consensus"
	"github.com/VeriBlock/nodecore-sub002/crypto"
)

const MAX_CACHE_SIZE = 1 << 20

type Config struct {
	Network  string `json:"network"`
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`

	// CacheSize bounds the signature and address caches of the validator.
	// Zero disables caching.
	CacheSize int `json:"cache_size"`
}

var allowedLogLevels = map[string]struct{}{
	"trace":    {},
	"debug":    {},
	"info":     {},
	"warn":     {},
	"error":    {},
	"critical": {},
	"off":      {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".popctl"
	}
	return filepath.Join(home, ".popctl")
}

func DefaultConfig() Config {
	return Config{
		Network:   consensus.MainNetParams.Name,
		DataDir:   DefaultDataDir(),
		LogLevel:  "info",
		CacheSize: crypto.DEFAULT_VERIFY_CACHE_SIZE,
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if _, err := consensus.ParamsForNetwork(cfg.Network); err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.CacheSize < 0 {
		return errors.New("cache_size must be >= 0")
	}
	if cfg.CacheSize > MAX_CACHE_SIZE {
		return fmt.Errorf("cache_size must be <= %d", MAX_CACHE_SIZE)
	}
	return nil
}

// LoadConfigFile overlays the JSON object at path on DefaultConfig and
// validates the result. Unknown keys are rejected.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := ReadInputFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	log.Debugf("Loaded config from %s: network=%s data_dir=%s", path, cfg.Network, cfg.DataDir)
	return cfg, nil
}

// Params returns the network parameters named by cfg.Network.
func (cfg Config) Params() (*consensus.NetworkParams, error) {
	return consensus.ParamsForNetwork(cfg.Network)
}

// NewValidator builds a validator for cfg's network. clk may be nil for the
// wall clock.
func NewValidator(cfg Config, clk clock.Clock) (*consensus.Validator, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	var provider crypto.Provider = crypto.Secp256k1Provider{}
	if cfg.CacheSize > 0 {
		cached, err := crypto.NewCachingProvider(provider, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		provider = cached
	}
	return consensus.NewValidator(params, provider, clk), nil
}
