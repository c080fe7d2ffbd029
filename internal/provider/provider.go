// Package provider defines the uniform secret-fetch contract described
// in spec.md §4.3. Concrete backends are out of scope of the core
// spec; this package also ships one reference implementation
// (opref) used as the shipped default and by tests.
package provider

import "context"

// Reference is a parsed secret reference: the triple (container,
// item, field) spec.md §3 describes. The broker treats only Container
// as semantically meaningful; Item and Field are opaque strings used
// for audit records and standing-approval matching.
type Reference struct {
	Container string
	Item      string
	Field     string
}

// FetchOptions carries the elevated flag spec.md §4.3 describes: set
// for every gated read, signalling the provider to use its separately
// stored, higher-privilege credential.
type FetchOptions struct {
	Elevated bool
}

// Provider is the uniform contract over arbitrary secret backends.
// Implementations are stateless across calls from the broker's
// perspective; Fetch may still hit network or disk internally.
type Provider interface {
	// Name identifies the provider for audit records and the `status`
	// transport action.
	Name() string

	// ParseReference parses raw into a Reference. ok is false if raw
	// is not a reference this provider recognises.
	ParseReference(raw string) (ref Reference, ok bool)

	// Fetch returns the secret value named by ref, or an error.
	Fetch(ctx context.Context, ref Reference, opts FetchOptions) (string, error)

	// Validate is called once at startup; a non-nil error is fatal
	// per spec.md §7.
	Validate(ctx context.Context) error
}
