package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DevFundEntry mints a starting balance onto an address when the node boots.
// Dev and test networks only; production genesis is distributed out of band.
type DevFundEntry struct {
	Address string `toml:"Address"`
	Amount  uint64 `toml:"Amount"`
}

type Config struct {
	RPCAddress  string         `toml:"RPCAddress"`
	DataDir     string         `toml:"DataDir"`
	NetworkName string         `toml:"NetworkName"`
	LogFile     string         `toml:"LogFile,omitempty"`
	DevFund     []DevFundEntry `toml:"DevFund,omitempty"`
}

// Load loads the configuration from the given path, writing defaults on first
// run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	for i, entry := range cfg.DevFund {
		if strings.TrimSpace(entry.Address) == "" {
			return nil, fmt.Errorf("config: DevFund entry %d has empty address", i)
		}
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./vault-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "lamvault-local"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
