package broker

import (
	"context"
	"fmt"

	"github.com/approvalbroker/broker/internal/channel"
	"github.com/approvalbroker/broker/internal/channel/discord"
	"github.com/approvalbroker/broker/internal/channel/slack"
	"github.com/approvalbroker/broker/internal/channel/telegram"
	"github.com/approvalbroker/broker/internal/config"
	"github.com/approvalbroker/broker/internal/provider"
	"github.com/approvalbroker/broker/internal/provider/opref"
	"github.com/approvalbroker/broker/internal/standing"
)

// BuildProvider selects and constructs the active provider named in
// cfg, per spec.md §9 "Provider and channel plurality" (one provider
// active per broker instance, selected by name from a registry built
// at startup).
func BuildProvider(cfg config.ProviderConfig) (provider.Provider, error) {
	switch cfg.Name {
	case "opref":
		return opref.New(opref.Config{
			StorePath:         stringField(cfg.Config, "storePath"),
			ElevatedStorePath: stringField(cfg.Config, "elevatedStorePath"),
		}), nil
	default:
		return nil, fmt.Errorf("broker: unknown provider %q", cfg.Name)
	}
}

// BuildChannels constructs every configured channel and validates
// each, per spec.md §7 (channel validate failure at startup is fatal).
func BuildChannels(ctx context.Context, cfgs map[string]config.ChannelConfig) (*channel.Registry, error) {
	registry := channel.NewRegistry()

	for name, cc := range cfgs {
		ch, err := buildChannel(name, cc)
		if err != nil {
			return nil, err
		}
		if err := ch.Validate(ctx); err != nil {
			return nil, fmt.Errorf("broker: validate channel %q: %w", name, err)
		}
		if err := registry.Register(ch); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func buildChannel(name string, cc config.ChannelConfig) (channel.Channel, error) {
	switch cc.Type {
	case "slack":
		return slack.New(slack.Config{
			Token:     stringField(cc.Config, "token"),
			ChannelID: stringField(cc.Config, "channelId"),
		}), nil

	case "telegram":
		return telegram.New(telegram.Config{
			Token:  stringField(cc.Config, "token"),
			ChatID: int64Field(cc.Config, "chatId"),
		})

	case "discord":
		return discord.New(discord.Config{
			Token:     stringField(cc.Config, "token"),
			ChannelID: stringField(cc.Config, "channelId"),
		})

	default:
		return nil, fmt.Errorf("broker: unknown channel type %q for %q", cc.Type, name)
	}
}

// BuildMatcher constructs a standing-approval matcher from cfg.
func BuildMatcher(rules []config.StandingRuleConfig) *standing.Matcher {
	out := make([]standing.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, standing.Rule{
			Item:        r.Item,
			ReasonMatch: r.ReasonMatch,
			Note:        r.Note,
		})
	}
	return standing.New(out)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

// int64Field reads an integral config value. gopkg.in/yaml.v3 decodes
// plain YAML integers into Go's int, not float64, so both are handled.
func int64Field(m map[string]any, key string) int64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
