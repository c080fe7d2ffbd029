// Package broker implements the request orchestrator described in
// spec.md §4.10: the central algorithm tying together classification,
// the standing-approval matcher, the value cache, the pending-request
// registry, the channel registry, and the active provider.
//
// No single teacher file matches this orchestration shape; it is
// original composition over the grounded sub-components named in
// DESIGN.md, following spec.md §4.10's decision tree directly.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/approvalbroker/broker/internal/audit"
	"github.com/approvalbroker/broker/internal/channel"
	"github.com/approvalbroker/broker/internal/observability"
	"github.com/approvalbroker/broker/internal/provider"
	"github.com/approvalbroker/broker/internal/registry"
	"github.com/approvalbroker/broker/internal/standing"
	"github.com/approvalbroker/broker/internal/valuecache"
)

// Classification is a container's open/gated/unknown status (spec.md §3).
type Classification int

const (
	Unknown Classification = iota
	Open
	Gated
)

// Orchestrator is the request orchestrator.
type Orchestrator struct {
	provider provider.Provider
	channels *channel.Registry
	matcher  *standing.Matcher
	cache    *valuecache.Cache
	registry *registry.Registry
	sink     audit.Sink
	log      *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	openContainers  map[string]struct{}
	gatedContainers map[string]struct{}

	approvalTimeout time.Duration

	startedAt time.Time
}

// Config carries everything the orchestrator needs beyond its
// sub-component handles.
type Config struct {
	Provider        provider.Provider
	Channels        *channel.Registry
	Matcher         *standing.Matcher
	Cache           *valuecache.Cache
	Registry        *registry.Registry
	Sink            audit.Sink
	Log             *slog.Logger
	Metrics         *observability.Metrics
	Tracer          *observability.Tracer
	OpenContainers  []string
	GatedContainers []string
	ApprovalTimeout time.Duration
}

// New constructs an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	open := make(map[string]struct{}, len(cfg.OpenContainers))
	for _, c := range cfg.OpenContainers {
		open[strings.ToLower(c)] = struct{}{}
	}
	gated := make(map[string]struct{}, len(cfg.GatedContainers))
	for _, c := range cfg.GatedContainers {
		gated[strings.ToLower(c)] = struct{}{}
	}

	return &Orchestrator{
		provider:        cfg.Provider,
		channels:        cfg.Channels,
		matcher:         cfg.Matcher,
		cache:           cfg.Cache,
		registry:        cfg.Registry,
		sink:            cfg.Sink,
		log:             log,
		metrics:         cfg.Metrics,
		tracer:          cfg.Tracer,
		openContainers:  open,
		gatedContainers: gated,
		approvalTimeout: cfg.ApprovalTimeout,
		startedAt:       time.Now(),
	}
}

// ReadResult is the outcome of a Read call: exactly one of Value or
// Err is set.
type ReadResult struct {
	Value string
	Err   error
}

// classify returns the container's classification, case-insensitively,
// per spec.md §3.
func (o *Orchestrator) classify(container string) Classification {
	c := strings.ToLower(container)
	if _, ok := o.openContainers[c]; ok {
		return Open
	}
	if _, ok := o.gatedContainers[c]; ok {
		return Gated
	}
	return Unknown
}

// Read implements the full decision tree of spec.md §4.10 for the
// `read` transport action.
func (o *Orchestrator) Read(ctx context.Context, reference, reason string) ReadResult {
	ctx, span := o.tracer.Start(ctx, "broker.Read")
	defer span.End()

	ref, ok := o.provider.ParseReference(reference)
	if !ok {
		return ReadResult{Err: fmt.Errorf("Invalid URI")}
	}

	switch o.classify(ref.Container) {
	case Open:
		return o.readOpen(ctx, reference, ref)
	case Gated:
		return o.readGated(ctx, reference, ref, reason)
	default:
		return ReadResult{Err: fmt.Errorf("container %q is not configured", ref.Container)}
	}
}

func (o *Orchestrator) readOpen(ctx context.Context, reference string, ref provider.Reference) ReadResult {
	o.sink.Append(audit.Record{
		Action:    audit.ActionRead,
		Result:    audit.ResultAllowed,
		Container: ref.Container,
		Item:      ref.Item,
		Field:     ref.Field,
	})
	o.countResult("allowed")

	ctx, span := o.tracer.Start(ctx, "provider.Fetch")
	value, err := o.provider.Fetch(ctx, ref, provider.FetchOptions{Elevated: false})
	span.End()
	if err != nil {
		o.sink.Append(audit.Record{
			Action:    audit.ActionReadError,
			Container: ref.Container,
			Item:      ref.Item,
			Field:     ref.Field,
			Error:     err.Error(),
		})
		return ReadResult{Err: err}
	}
	return ReadResult{Value: value}
}

func (o *Orchestrator) readGated(ctx context.Context, reference string, ref provider.Reference, reason string) ReadResult {
	if strings.TrimSpace(reason) == "" {
		return ReadResult{Err: fmt.Errorf("Reason is REQUIRED for gated containers")}
	}

	if rule, ok := o.matcher.Match(ref.Item, reason); ok {
		return o.readStandingApproved(ctx, ref, rule)
	}

	if value, ok := o.cache.Lookup(reference); ok {
		o.sink.Append(audit.Record{
			Action:    audit.ActionRead,
			Result:    audit.ResultCacheHit,
			Container: ref.Container,
			Item:      ref.Item,
			Field:     ref.Field,
			Reason:    reason,
		})
		o.countResult("cache_hit")
		return ReadResult{Value: value}
	}

	return o.readApprovalPath(ctx, reference, ref, reason)
}

func (o *Orchestrator) readStandingApproved(ctx context.Context, ref provider.Reference, rule standing.Rule) ReadResult {
	o.sink.Append(audit.Record{
		Action:    audit.ActionRead,
		Result:    audit.ResultStandingApproval,
		Container: ref.Container,
		Item:      ref.Item,
		Field:     ref.Field,
		Detail:    map[string]any{"note": rule.Note},
	})

	ctx, span := o.tracer.Start(ctx, "provider.Fetch")
	value, err := o.provider.Fetch(ctx, ref, provider.FetchOptions{Elevated: true})
	span.End()
	if err != nil {
		o.sink.Append(audit.Record{
			Action:    audit.ActionReadError,
			Container: ref.Container,
			Item:      ref.Item,
			Field:     ref.Field,
			Error:     err.Error(),
		})
		return ReadResult{Err: err}
	}

	o.sink.Append(audit.Record{
		Action:    audit.ActionRead,
		Result:    audit.ResultStandingApproved,
		Container: ref.Container,
		Item:      ref.Item,
		Field:     ref.Field,
	})
	o.countResult("standing_approved_read")
	return ReadResult{Value: value}
}

func (o *Orchestrator) readApprovalPath(ctx context.Context, reference string, ref provider.Reference, reason string) ReadResult {
	id, err := registry.NewID()
	if err != nil {
		return ReadResult{Err: err}
	}

	o.sink.Append(audit.Record{
		Action:    audit.ActionRequest,
		Result:    audit.ResultPending,
		RequestID: id,
		Container: ref.Container,
		Item:      ref.Item,
		Field:     ref.Field,
		Reason:    reason,
	})

	prompt := channel.Prompt{
		RequestID: id,
		Container: ref.Container,
		Item:      ref.Item,
		Field:     ref.Field,
		Reason:    reason,
	}

	type sent struct {
		ch     channel.Channel
		handle channel.MessageHandle
	}
	var handles []sent

	all := o.channels.All()
	for _, ch := range all {
		ctx, span := o.tracer.Start(ctx, "channel.SendPrompt")
		h, err := ch.SendPrompt(ctx, prompt)
		span.End()
		if err != nil {
			o.sink.Append(audit.Record{
				Action:  audit.ActionChannelError,
				Channel: ch.Name(),
				Error:   err.Error(),
			})
			if o.metrics != nil {
				o.metrics.ChannelErrorsTotal.WithLabelValues(ch.Name()).Inc()
			}
			continue
		}
		handles = append(handles, sent{ch: ch, handle: h})
	}

	if len(all) > 0 && len(handles) == 0 {
		return ReadResult{Err: fmt.Errorf("Failed to send approval request to any channel")}
	}

	entry := registry.Entry{
		ID:        id,
		Reference: reference,
		Reason:    reason,
		Deadline:  time.Now().Add(o.approvalTimeout),
	}
	waiter := o.registry.Register(entry)
	if o.metrics != nil {
		o.metrics.PendingRequests.Inc()
	}

	ctx, waitSpan := o.tracer.Start(ctx, "registry.Wait")
	outcome := waiter.Wait()
	waitSpan.End()
	if o.metrics != nil {
		o.metrics.PendingRequests.Dec()
	}

	notify := func(approved bool) {
		for _, s := range handles {
			ctx, span := o.tracer.Start(ctx, "channel.UpdateOutcome")
			if err := s.ch.UpdateOutcome(ctx, s.handle, approved, prompt); err != nil {
				o.log.Warn("channel update outcome failed", "channel", s.ch.Name(), "error", err)
			}
			span.End()
		}
	}

	switch outcome {
	case registry.OutcomeApproved:
		o.sink.Append(audit.Record{Action: audit.ActionApproved, RequestID: id})
		notify(true)
		return o.fetchAfterApproval(ctx, ref, reference)

	case registry.OutcomeDenied:
		o.sink.Append(audit.Record{Action: audit.ActionDenied, RequestID: id})
		notify(false)
		o.countResult("denied")
		return ReadResult{Err: fmt.Errorf("Request denied by operator")}

	case registry.OutcomeTimeout:
		notify(false)
		o.sink.Append(audit.Record{Action: audit.ActionTimeout, RequestID: id})
		o.countResult("timeout")
		if o.metrics != nil {
			o.metrics.ApprovalTimeoutsTotal.Inc()
		}
		return ReadResult{Err: fmt.Errorf("Request timed out after %s", o.approvalTimeout)}

	default: // OutcomeShutdown
		return ReadResult{Err: fmt.Errorf("Request denied by operator")}
	}
}

func (o *Orchestrator) fetchAfterApproval(ctx context.Context, ref provider.Reference, reference string) ReadResult {
	ctx, span := o.tracer.Start(ctx, "provider.Fetch")
	value, err := o.provider.Fetch(ctx, ref, provider.FetchOptions{Elevated: true})
	span.End()
	if err != nil {
		o.sink.Append(audit.Record{
			Action:    audit.ActionReadError,
			Container: ref.Container,
			Item:      ref.Item,
			Field:     ref.Field,
			Error:     err.Error(),
		})
		return ReadResult{Err: err}
	}

	o.cache.Store(reference, value)
	o.sink.Append(audit.Record{
		Action:    audit.ActionRead,
		Result:    audit.ResultApprovedRead,
		Container: ref.Container,
		Item:      ref.Item,
		Field:     ref.Field,
	})
	o.countResult("approved_read")
	return ReadResult{Value: value}
}

func (o *Orchestrator) countResult(result string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RequestsTotal.WithLabelValues(result).Inc()
}

// Status carries the `status` transport action's response fields
// (spec.md §4.7).
type Status struct {
	Pending       int
	CacheSize     int
	UptimeSeconds float64
	Channels      []string
	Provider      string
}

// StatusSnapshot returns the current Status.
func (o *Orchestrator) StatusSnapshot() Status {
	return Status{
		Pending:       o.registry.Snapshot(),
		CacheSize:     o.cache.Size(),
		UptimeSeconds: time.Since(o.startedAt).Seconds(),
		Channels:      o.channels.Names(),
		Provider:      o.provider.Name(),
	}
}

// Shutdown resolves every pending request as denied and emits the
// daemon_stop audit event, per spec.md §5.
func (o *Orchestrator) Shutdown() {
	o.registry.Shutdown()
	o.sink.Append(audit.Record{Action: audit.ActionDaemonStop})
}
