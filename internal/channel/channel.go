// Package channel defines the uniform notification-backend contract
// described in spec.md §4.4.
//
// Grounded on haasonsaas-nexus's internal/channels/channel.go Adapter
// interface, narrowed to the send-prompt, update-outcome and validate
// operations spec.md names, plus Name.
package channel

import "context"

// Prompt carries the fields a channel needs to render an approval
// request to a human, per spec.md §4.4.
type Prompt struct {
	RequestID string
	Container string
	Item      string
	Field     string
	Reason    string
}

// MessageHandle identifies a sent prompt message for a later
// best-effort UpdateOutcome call. Its concrete shape is
// channel-specific (a Slack ts+channel pair, a Telegram chat+message
// id, ...); the orchestrator treats it opaquely.
type MessageHandle any

// Channel is the uniform contract over notification backends.
type Channel interface {
	// Name identifies the channel for audit records, channel_error
	// events, and the `status` transport action.
	Name() string

	// SendPrompt sends p to the channel's configured destination,
	// returning a handle for a later UpdateOutcome call.
	SendPrompt(ctx context.Context, p Prompt) (MessageHandle, error)

	// UpdateOutcome best-effort edits the prompt message to reflect
	// the final decision. Its error is logged, never surfaced or
	// retried, per spec.md §9 "Open questions".
	UpdateOutcome(ctx context.Context, handle MessageHandle, approved bool, p Prompt) error

	// Validate is called once at startup; a non-nil error is fatal
	// per spec.md §7.
	Validate(ctx context.Context) error
}
