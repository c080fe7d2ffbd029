// Package slack implements a channel.Channel over Slack interactive
// messages: an approval prompt renders as a message with Approve/Deny
// buttons whose values are the ag:approve:<id>/ag:deny:<id> tokens
// spec.md §6 describes. The button click reaches the broker via
// Slack's interaction webhook, which an external adapter (out of
// scope per spec.md §1) forwards to /channel-callback.
package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/approvalbroker/broker/internal/callback"
	"github.com/approvalbroker/broker/internal/channel"
)

// Config configures the Slack channel.
type Config struct {
	Token   string
	ChannelID string
}

// Channel is the Slack channel.Channel implementation.
type Channel struct {
	cfg    Config
	client *slack.Client
}

// handle identifies a sent Slack message for UpdateOutcome.
type handle struct {
	channelID string
	timestamp string
}

// New constructs a Slack channel from cfg.
func New(cfg Config) *Channel {
	return &Channel{
		cfg:    cfg,
		client: slack.New(cfg.Token),
	}
}

// Name implements channel.Channel.
func (c *Channel) Name() string { return "slack" }

// Validate implements channel.Channel by confirming the token can
// authenticate.
func (c *Channel) Validate(ctx context.Context) error {
	if c.cfg.Token == "" {
		return fmt.Errorf("slack: token is required")
	}
	if c.cfg.ChannelID == "" {
		return fmt.Errorf("slack: channelId is required")
	}
	_, err := c.client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	return nil
}

// SendPrompt implements channel.Channel.
func (c *Channel) SendPrompt(ctx context.Context, p channel.Prompt) (channel.MessageHandle, error) {
	text := fmt.Sprintf("Approval requested for *%s / %s / %s*\nReason: %s", p.Container, p.Item, p.Field, p.Reason)

	approveBtn := slack.NewButtonBlockElement("approve", callback.FormatApprove(p.RequestID),
		slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false))
	approveBtn.Style = slack.StylePrimary

	denyBtn := slack.NewButtonBlockElement("deny", callback.FormatDeny(p.RequestID),
		slack.NewTextBlockObject(slack.PlainTextType, "Deny", false, false))
	denyBtn.Style = slack.StyleDanger

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		slack.NewActionBlock("ag_approval_actions", approveBtn, denyBtn),
	}

	_, ts, err := c.client.PostMessageContext(ctx, c.cfg.ChannelID, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return nil, fmt.Errorf("slack: post message: %w", err)
	}

	return handle{channelID: c.cfg.ChannelID, timestamp: ts}, nil
}

// UpdateOutcome implements channel.Channel.
func (c *Channel) UpdateOutcome(ctx context.Context, h channel.MessageHandle, approved bool, p channel.Prompt) error {
	hd, ok := h.(handle)
	if !ok {
		return fmt.Errorf("slack: invalid handle")
	}

	status := "Denied"
	if approved {
		status = "Approved"
	}
	text := fmt.Sprintf("Approval for *%s / %s / %s*: %s", p.Container, p.Item, p.Field, status)
	block := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)

	_, _, _, err := c.client.UpdateMessageContext(ctx, hd.channelID, hd.timestamp, slack.MsgOptionBlocks(block))
	return err
}
