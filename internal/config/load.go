package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	envSocketPath    = "APPROVALBROKER_SOCKET"
	envConfigPath    = "APPROVALBROKER_CONFIG"
	envPendingDir    = "APPROVALBROKER_PENDING_DIR"
	envSessionScan   = "APPROVALBROKER_SESSION_SCAN_DIR"
)

// DefaultStateDir returns the default directory holding the broker's
// PID file, socket, and pending-drop directory.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".approvalbroker")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultStateDir(), "config.yaml")
}

// ResolveConfigPath returns the effective config path: the explicit
// flag value if given, otherwise the environment override, otherwise
// the default.
func ResolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envConfigPath); v != "" {
		return v
	}
	return DefaultConfigPath()
}

// Load reads, decodes, applies environment overrides to, and validates
// the configuration document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}

func defaults() *Config {
	stateDir := DefaultStateDir()
	return &Config{
		Transport: TransportConfig{
			SocketPath: filepath.Join(stateDir, "broker.sock"),
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8761",
		},
		PIDFile:        filepath.Join(stateDir, "broker.pid"),
		Audit:          AuditConfig{Path: filepath.Join(stateDir, "audit.jsonl")},
		PendingDir:     filepath.Join(stateDir, "pending"),
		SessionScanDir: filepath.Join(stateDir, "sessions"),
		CacheTTLMillis: 5 * 60 * 1000,
		ApprovalTimeoutMillis: 2 * 60 * 1000,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envSocketPath); v != "" {
		cfg.Transport.SocketPath = v
	}
	if v := os.Getenv(envPendingDir); v != "" {
		cfg.PendingDir = v
	}
	if v := os.Getenv(envSessionScan); v != "" {
		cfg.SessionScanDir = v
	}
}
