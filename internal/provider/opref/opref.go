// Package opref implements a provider over 1Password-style references
// of the form "op://container/item/field", backed by two flat JSON
// value stores: one readable by the broker's own identity, one
// readable only under elevation. This is the shipped default provider
// and the fixture used by the orchestrator's tests.
package opref

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/approvalbroker/broker/internal/provider"
)

const scheme = "op://"

// Config configures the opref provider (spec.md §6 "provider's nested
// configuration").
type Config struct {
	// StorePath holds values readable without elevation.
	StorePath string
	// ElevatedStorePath holds values readable only when
	// FetchOptions.Elevated is true — the "separately-stored
	// credential" spec.md §4.3 describes.
	ElevatedStorePath string
}

// Provider is the opref backend.
type Provider struct {
	cfg Config

	mu       sync.Mutex
	store    map[string]string
	elevated map[string]string
}

// New constructs a Provider from cfg. Store files are not loaded at
// construction but by Validate, so that Validate is the sole
// startup-time failure point named in spec.md §7; Fetch fails until
// Validate has succeeded.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return "opref" }

// ParseReference implements provider.Provider. It accepts
// "op://container/item/field" and rejects anything else.
func (p *Provider) ParseReference(raw string) (provider.Reference, bool) {
	if !strings.HasPrefix(raw, scheme) {
		return provider.Reference{}, false
	}
	body := strings.TrimPrefix(raw, scheme)
	parts := strings.Split(body, "/")
	if len(parts) != 3 {
		return provider.Reference{}, false
	}
	for _, p := range parts {
		if p == "" {
			return provider.Reference{}, false
		}
	}
	return provider.Reference{
		Container: parts[0],
		Item:      parts[1],
		Field:     parts[2],
	}, true
}

// Validate loads both value stores, failing fatally (per spec.md §7)
// if either is missing or malformed.
func (p *Provider) Validate(ctx context.Context) error {
	store, err := loadStore(p.cfg.StorePath)
	if err != nil {
		return fmt.Errorf("opref: load store: %w", err)
	}

	elevated, err := loadStore(p.cfg.ElevatedStorePath)
	if err != nil {
		return fmt.Errorf("opref: load elevated store: %w", err)
	}

	p.mu.Lock()
	p.store, p.elevated = store, elevated
	p.mu.Unlock()

	return nil
}

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context, ref provider.Reference, opts provider.FetchOptions) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := ref.Container + "/" + ref.Item + "/" + ref.Field

	table := p.store
	if opts.Elevated {
		table = p.elevated
	}
	if table == nil {
		return "", fmt.Errorf("opref: provider not validated")
	}

	value, ok := table[key]
	if !ok {
		return "", fmt.Errorf("opref: no such value %q (elevated=%v)", key, opts.Elevated)
	}
	return value, nil
}

func loadStore(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
