package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/approvalbroker/broker/internal/audit"
)

type readRequest struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Handle dispatches one decoded transport request to the
// orchestrator, implementing the three actions spec.md §4.7 names. It
// satisfies transport.Handler's signature without importing the
// transport package, keeping the dependency direction
// transport→broker rather than broker→transport. A panic while
// handling is recovered, audited as read_error, and answered with
// "internal error".
func (o *Orchestrator) Handle(ctx context.Context, action string, raw json.RawMessage) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("request handler panicked", "action", action, "panic", r)
			o.sink.Append(audit.Record{Action: audit.ActionReadError, Error: fmt.Sprint(r)})
			resp, err = nil, fmt.Errorf("internal error")
		}
	}()

	switch action {
	case "read":
		var req readRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("Invalid JSON")
		}
		result := o.Read(ctx, req.Reference, req.Reason)
		if result.Err != nil {
			return nil, result.Err
		}
		return map[string]string{"value": result.Value}, nil

	case "ping":
		return map[string]any{
			"status":  "ok",
			"pending": o.registry.Snapshot(),
		}, nil

	case "status":
		s := o.StatusSnapshot()
		return map[string]any{
			"status":        "running",
			"pending":       s.Pending,
			"cacheSize":     s.CacheSize,
			"uptimeSeconds": s.UptimeSeconds,
			"channels":      s.Channels,
			"provider":      s.Provider,
		}, nil

	default:
		return nil, fmt.Errorf("Unknown action: %s", action)
	}
}
