// Package config loads and validates the broker's configuration document.
package config

import "time"

// Config is the top-level configuration document described in
// SPEC_FULL §4.11 / §6.
type Config struct {
	Transport      TransportConfig      `yaml:"transport"`
	HTTP           HTTPConfig           `yaml:"http"`
	PIDFile        string               `yaml:"pidFile"`
	Audit          AuditConfig          `yaml:"audit"`
	PendingDir     string               `yaml:"pendingDropDir"`
	SessionScanDir string               `yaml:"sessionScanDir"`
	CacheTTLMillis int64                `yaml:"cacheTTLMillis"`
	ApprovalTimeoutMillis int64         `yaml:"approvalTimeoutMillis"`
	Containers     ContainersConfig     `yaml:"containers"`
	StandingRules  []StandingRuleConfig `yaml:"standingApprovals"`
	Provider       ProviderConfig       `yaml:"provider"`
	Channels       map[string]ChannelConfig `yaml:"channels"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// TransportConfig configures the local Unix-socket request transport (§4.7).
type TransportConfig struct {
	SocketPath string `yaml:"socketPath"`
}

// HTTPConfig configures the loopback HTTP callback listener (§4.8).
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// AuditConfig configures the audit sink (§4.1).
type AuditConfig struct {
	Path string `yaml:"path"`
}

// ContainersConfig lists open and gated container names (§3, §6).
type ContainersConfig struct {
	Open  []string `yaml:"open"`
	Gated []string `yaml:"gated"`
}

// StandingRuleConfig is one row of the standing-approval rule table (§3, §4.5).
type StandingRuleConfig struct {
	Item        string `yaml:"item"`
	ReasonMatch string `yaml:"reasonMatch"`
	Note        string `yaml:"note"`
}

// ProviderConfig selects and configures the active secret-fetch provider (§4.3).
type ProviderConfig struct {
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config"`
}

// ChannelConfig configures one notification channel (§4.4).
type ChannelConfig struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// ObservabilityConfig configures the ambient metrics and tracing surfaces
// named in SPEC_FULL §4.14/§4.15. Neither affects orchestrator semantics.
type ObservabilityConfig struct {
	MetricsAddr string        `yaml:"metricsAddr"`
	Tracing     TracingConfig `yaml:"tracing"`
}

// TracingConfig configures the optional OpenTelemetry tracer (§4.15).
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Endpoint       string  `yaml:"endpoint"`
	ServiceName    string  `yaml:"serviceName"`
	Environment    string  `yaml:"environment"`
	SamplingRate   float64 `yaml:"samplingRate"`
	EnableInsecure bool    `yaml:"enableInsecure"`
}

// CacheTTL returns the configured cache TTL as a duration. A zero or
// negative configured value disables caching per spec.md §3.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMillis) * time.Millisecond
}

// ApprovalTimeout returns the configured approval timeout as a duration.
func (c *Config) ApprovalTimeout() time.Duration {
	return time.Duration(c.ApprovalTimeoutMillis) * time.Millisecond
}
