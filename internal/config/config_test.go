package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klingon-exchange/inscribecore/internal/chain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Network != chain.Regtest {
		t.Errorf("expected regtest, got %s", cfg.Network)
	}
	if cfg.DefaultFeeRate != 1.0 {
		t.Errorf("expected default fee rate 1.0, got %f", cfg.DefaultFeeRate)
	}
	if !cfg.RecoveryBackupEnabled {
		t.Error("expected recovery backup enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "inscribecore-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
	if cfg.DataDir != tmpDir {
		t.Errorf("expected DataDir %s, got %s", tmpDir, cfg.DataDir)
	}
}

func TestLoadConfigReadsExisting(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "inscribecore-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	customConfig := `network: signet
node:
  host: 127.0.0.1:38332
  user: bitcoin
  pass: secret
default_fee_rate: 5.5
recovery_backup_enabled: false
logging:
  level: debug
`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(customConfig), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Network != chain.Signet {
		t.Errorf("expected signet, got %s", cfg.Network)
	}
	if cfg.Node.Host != "127.0.0.1:38332" {
		t.Errorf("unexpected node host: %s", cfg.Node.Host)
	}
	if cfg.DefaultFeeRate != 5.5 {
		t.Errorf("expected fee rate 5.5, got %f", cfg.DefaultFeeRate)
	}
	if cfg.RecoveryBackupEnabled {
		t.Error("expected recovery backup disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug log level, got %s", cfg.Logging.Level)
	}
}

func TestConfigSave(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "inscribecore-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg := DefaultConfig()
	cfg.Network = chain.Testnet
	cfg.Logging.Level = "debug"

	configPath := filepath.Join(tmpDir, "test-config.yaml")
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "# inscribecore configuration") {
		t.Error("config file missing header comment")
	}
	if !strings.Contains(content, "network: testnet") {
		t.Error("config file missing network")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/.inscribecore", filepath.Join(home, ".inscribecore")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		got := expandPath(tt.input)
		if got != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		dataDir  string
		expected string
	}{
		{"~/.inscribecore", filepath.Join(home, ".inscribecore", ConfigFileName)},
		{"/tmp/test", filepath.Join("/tmp/test", ConfigFileName)},
	}

	for _, tt := range tests {
		got := ConfigPath(tt.dataDir)
		if got != tt.expected {
			t.Errorf("ConfigPath(%q) = %q, want %q", tt.dataDir, got, tt.expected)
		}
	}
}
