// Package discord implements a channel.Channel over a Discord bot: an
// approval prompt renders as a message with Approve/Deny buttons
// (message components) whose custom id is the
// ag:approve:<id>/ag:deny:<id> token spec.md §6 describes.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/approvalbroker/broker/internal/callback"
	"github.com/approvalbroker/broker/internal/channel"
)

// Config configures the Discord channel.
type Config struct {
	Token     string
	ChannelID string
}

// Channel is the Discord channel.Channel implementation.
type Channel struct {
	cfg     Config
	session *discordgo.Session
}

type handle struct {
	channelID string
	messageID string
}

// New constructs a Discord channel from cfg.
func New(cfg Config) (*Channel, error) {
	sess, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: new session: %w", err)
	}
	return &Channel{cfg: cfg, session: sess}, nil
}

// Name implements channel.Channel.
func (c *Channel) Name() string { return "discord" }

// Validate implements channel.Channel.
func (c *Channel) Validate(ctx context.Context) error {
	if c.cfg.Token == "" {
		return fmt.Errorf("discord: token is required")
	}
	if c.cfg.ChannelID == "" {
		return fmt.Errorf("discord: channelId is required")
	}
	if _, err := c.session.Channel(c.cfg.ChannelID); err != nil {
		return fmt.Errorf("discord: lookup channel: %w", err)
	}
	return nil
}

// SendPrompt implements channel.Channel.
func (c *Channel) SendPrompt(ctx context.Context, p channel.Prompt) (channel.MessageHandle, error) {
	content := fmt.Sprintf("Approval requested for **%s / %s / %s**\nReason: %s", p.Container, p.Item, p.Field, p.Reason)

	msg, err := c.session.ChannelMessageSendComplex(c.cfg.ChannelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Approve",
						Style:    discordgo.SuccessButton,
						CustomID: callback.FormatApprove(p.RequestID),
					},
					discordgo.Button{
						Label:    "Deny",
						Style:    discordgo.DangerButton,
						CustomID: callback.FormatDeny(p.RequestID),
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("discord: send message: %w", err)
	}

	return handle{channelID: c.cfg.ChannelID, messageID: msg.ID}, nil
}

// UpdateOutcome implements channel.Channel.
func (c *Channel) UpdateOutcome(ctx context.Context, h channel.MessageHandle, approved bool, p channel.Prompt) error {
	hd, ok := h.(handle)
	if !ok {
		return fmt.Errorf("discord: invalid handle")
	}

	status := "Denied"
	if approved {
		status = "Approved"
	}
	content := fmt.Sprintf("Approval for **%s / %s / %s**: %s", p.Container, p.Item, p.Field, status)

	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         hd.messageID,
		Channel:    hd.channelID,
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
	})
	return err
}
