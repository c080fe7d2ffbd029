// Package observability implements the ambient metrics and tracing
// surfaces described in SPEC_FULL §4.14/§4.15. Neither component
// affects the orchestrator's control flow or any spec.md invariant;
// both are pure side observation.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the broker's Prometheus collectors.
//
// Grounded on haasonsaas-nexus's internal/gateway/http_server.go
// promhttp.Handler mounting convention.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	ChannelErrorsTotal   *prometheus.CounterVec
	ApprovalTimeoutsTotal prometheus.Counter
	PendingRequests      prometheus.Gauge

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics constructs a fresh collector set registered against its
// own registry (not the global default, to keep the broker's metrics
// surface self-contained and test-friendly).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approvalbroker_requests_total",
			Help: "Total read requests by result.",
		}, []string{"result"}),
		ChannelErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approvalbroker_channel_errors_total",
			Help: "Total channel.SendPrompt failures by channel.",
		}, []string{"channel"}),
		ApprovalTimeoutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "approvalbroker_approval_timeouts_total",
			Help: "Total approval requests that reached their deadline unresolved.",
		}),
		PendingRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "approvalbroker_pending_requests",
			Help: "Current count of outstanding approval requests.",
		}),
		registry: reg,
	}
}

// Start mounts /metrics and begins serving on addr. An empty addr
// disables the metrics endpoint entirely, per SPEC_FULL §6.
func (m *Metrics) Start(addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("observability: metrics listen %s: %w", addr, err)
	default:
		return nil
	}
}

// Stop gracefully shuts the metrics server down, if started.
func (m *Metrics) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
