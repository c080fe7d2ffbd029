package config

import "fmt"

const minApprovalTimeoutMillis = 10000

// Validate enforces the configuration invariants named in spec.md §6:
// at least one container list populated, every gated container has a
// channel, every standing rule is complete, and the approval timeout
// meets the configured minimum.
func Validate(cfg *Config) error {
	if len(cfg.Containers.Open) == 0 && len(cfg.Containers.Gated) == 0 {
		return fmt.Errorf("containers: at least one open or gated container must be configured")
	}

	if len(cfg.Containers.Gated) > 0 && len(cfg.Channels) == 0 {
		return fmt.Errorf("channels: gated containers are configured but no channel is configured")
	}

	for i, rule := range cfg.StandingRules {
		if rule.Item == "" {
			return fmt.Errorf("standingApprovals[%d]: item is required", i)
		}
		if rule.ReasonMatch == "" {
			return fmt.Errorf("standingApprovals[%d]: reasonMatch is required", i)
		}
	}

	if cfg.ApprovalTimeoutMillis < minApprovalTimeoutMillis {
		return fmt.Errorf("approvalTimeoutMillis: must be at least %dms, got %d", minApprovalTimeoutMillis, cfg.ApprovalTimeoutMillis)
	}

	if cfg.Provider.Name == "" {
		return fmt.Errorf("provider: name is required")
	}

	if cfg.Transport.SocketPath == "" {
		return fmt.Errorf("transport: socketPath is required")
	}

	return nil
}
