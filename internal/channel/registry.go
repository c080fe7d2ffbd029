package channel

import "fmt"

// Registry holds every configured channel, keyed by name. The broker
// invokes SendPrompt on each registered channel (spec.md §4.4); there
// is no runtime registration after startup (spec.md §9).
type Registry struct {
	channels map[string]Channel
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds ch under its own Name(). A duplicate name is a
// configuration error at startup.
func (r *Registry) Register(ch Channel) error {
	name := ch.Name()
	if _, exists := r.channels[name]; exists {
		return fmt.Errorf("channel: duplicate registration for %q", name)
	}
	r.channels[name] = ch
	return nil
}

// All returns every registered channel, in no particular order.
func (r *Registry) All() []Channel {
	out := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}

// Names returns the configured channel names, for the `status`
// transport action (spec.md §4.7).
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.channels))
	for name := range r.channels {
		out = append(out, name)
	}
	return out
}

// Len reports the number of registered channels.
func (r *Registry) Len() int {
	return len(r.channels)
}
