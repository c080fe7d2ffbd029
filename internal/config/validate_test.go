package config

import "testing"

func baseValidConfig() *Config {
	return &Config{
		Transport:             TransportConfig{SocketPath: "/tmp/broker.sock"},
		ApprovalTimeoutMillis: 10000,
		Containers:            ContainersConfig{Open: []string{"pub"}},
		Provider:              ProviderConfig{Name: "opref"},
	}
}

func TestValidateRejectsNoContainers(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Containers = ContainersConfig{}

	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for empty container lists")
	}
}

func TestValidateRejectsGatedWithoutChannel(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Containers = ContainersConfig{Gated: []string{"sec"}}

	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for gated container with no channel")
	}
}

func TestValidateAcceptsGatedWithChannel(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Containers = ContainersConfig{Gated: []string{"sec"}}
	cfg.Channels = map[string]ChannelConfig{"ops": {Type: "slack"}}

	if err := Validate(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsIncompleteStandingRule(t *testing.T) {
	cfg := baseValidConfig()
	cfg.StandingRules = []StandingRuleConfig{{Item: "k"}}

	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for standing rule missing reasonMatch")
	}
}

func TestValidateRejectsTimeoutBelowMinimum(t *testing.T) {
	cfg := baseValidConfig()
	cfg.ApprovalTimeoutMillis = 5000

	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for timeout below %dms", minApprovalTimeoutMillis)
	}
}

func TestValidateRejectsMissingProvider(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Provider = ProviderConfig{}

	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for missing provider name")
	}
}
