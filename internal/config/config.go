// Package config provides file-based configuration for the inscribe
// engine: network selection, node RPC connection, data directory,
// default fee rate, logging level, and the recovery-backup toggle.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/klingon-exchange/inscribecore/internal/chain"
)

// NodeConfig holds the Bitcoin node RPC connection settings.
type NodeConfig struct {
	Host       string `yaml:"host"`
	User       string `yaml:"user"`
	Pass       string `yaml:"pass"`
	DisableTLS bool   `yaml:"disable_tls"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config holds all configuration for the inscribe CLI.
type Config struct {
	// Network selects which chain params and coin type the wallet and
	// node RPC client operate under.
	Network chain.Network `yaml:"network"`

	// Node is the Bitcoin node's RPC endpoint.
	Node NodeConfig `yaml:"node"`

	// DataDir records the data directory the config was created under.
	// The CLI reads the inscription index database and the encrypted
	// wallet seed from its -data-dir flag, not from this field.
	DataDir string `yaml:"data_dir"`

	// DefaultFeeRate is used when the caller doesn't pin a rate
	// explicitly, in sats per virtual byte.
	DefaultFeeRate float64 `yaml:"default_fee_rate"`

	// RecoveryBackupEnabled controls whether inscribe exports the
	// recovery key descriptor before broadcasting the commit
	// transaction. Disabling it is discouraged.
	RecoveryBackupEnabled bool `yaml:"recovery_backup_enabled"`

	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Network: chain.Regtest,
		Node: NodeConfig{
			Host:       "127.0.0.1:18443",
			User:       "",
			Pass:       "",
			DisableTLS: true,
		},
		DataDir:               "~/.inscribecore",
		DefaultFeeRate:        1.0,
		RecoveryBackupEnabled: true,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigFileName is the default config file name.
const ConfigFileName = "config.yaml"

// LoadConfig loads configuration from a YAML file under dataDir. If the
// file doesn't exist, it creates one with default values.
func LoadConfig(dataDir string) (*Config, error) {
	expandedDir := expandPath(dataDir)
	configPath := filepath.Join(expandedDir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.DataDir = dataDir

		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("config: create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal config: %w", err)
	}

	header := []byte("# inscribecore configuration\n# Generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the full path to the config file for the given
// data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(expandPath(dataDir), ConfigFileName)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
