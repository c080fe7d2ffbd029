// Package telegram implements a channel.Channel over a Telegram bot:
// an approval prompt renders as a message with an inline keyboard
// whose callback data is the ag:approve:<id>/ag:deny:<id> token
// spec.md §6 describes.
package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/approvalbroker/broker/internal/callback"
	"github.com/approvalbroker/broker/internal/channel"
)

// Config configures the Telegram channel.
type Config struct {
	Token  string
	ChatID int64
}

// Channel is the Telegram channel.Channel implementation.
type Channel struct {
	cfg Config
	bot *tgbot.Bot
}

type handle struct {
	chatID    int64
	messageID int
}

// New constructs a Telegram channel from cfg.
func New(cfg Config) (*Channel, error) {
	b, err := tgbot.New(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}
	return &Channel{cfg: cfg, bot: b}, nil
}

// Name implements channel.Channel.
func (c *Channel) Name() string { return "telegram" }

// Validate implements channel.Channel.
func (c *Channel) Validate(ctx context.Context) error {
	if c.cfg.Token == "" {
		return fmt.Errorf("telegram: token is required")
	}
	if c.cfg.ChatID == 0 {
		return fmt.Errorf("telegram: chatId is required")
	}
	if _, err := c.bot.GetMe(ctx); err != nil {
		return fmt.Errorf("telegram: getMe: %w", err)
	}
	return nil
}

// SendPrompt implements channel.Channel.
func (c *Channel) SendPrompt(ctx context.Context, p channel.Prompt) (channel.MessageHandle, error) {
	text := fmt.Sprintf("Approval requested for %s / %s / %s\nReason: %s", p.Container, p.Item, p.Field, p.Reason)

	kb := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Approve", CallbackData: callback.FormatApprove(p.RequestID)},
				{Text: "Deny", CallbackData: callback.FormatDeny(p.RequestID)},
			},
		},
	}

	msg, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      c.cfg.ChatID,
		Text:        text,
		ReplyMarkup: kb,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: send message: %w", err)
	}

	return handle{chatID: c.cfg.ChatID, messageID: msg.ID}, nil
}

// UpdateOutcome implements channel.Channel.
func (c *Channel) UpdateOutcome(ctx context.Context, h channel.MessageHandle, approved bool, p channel.Prompt) error {
	hd, ok := h.(handle)
	if !ok {
		return fmt.Errorf("telegram: invalid handle")
	}

	status := "Denied"
	if approved {
		status = "Approved"
	}
	text := fmt.Sprintf("Approval for %s / %s / %s: %s", p.Container, p.Item, p.Field, status)

	_, err := c.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    hd.chatID,
		MessageID: hd.messageID,
		Text:      text,
	})
	return err
}
