package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/approvalbroker/broker/internal/audit"
	"github.com/approvalbroker/broker/internal/broker"
	"github.com/approvalbroker/broker/internal/callback"
	"github.com/approvalbroker/broker/internal/config"
	"github.com/approvalbroker/broker/internal/daemon"
	"github.com/approvalbroker/broker/internal/observability"
	"github.com/approvalbroker/broker/internal/registry"
	"github.com/approvalbroker/broker/internal/transport"
	"github.com/approvalbroker/broker/internal/valuecache"
)

// runServe loads configuration, wires every component, and runs the
// broker until SIGINT/SIGTERM, following the graceful-shutdown
// pattern of haasonsaas-nexus's cmd/nexus/handlers_serve.go.
func runServe(ctx context.Context, configPath string, debug bool) error {
	log := newLogger(debug)

	resolvedPath := config.ResolveConfigPath(configPath)
	cfg, err := config.Load(resolvedPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lock, err := daemon.Acquire(cfg.PIDFile, resolvedPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	sink, err := audit.New(cfg.Audit.Path, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	prov, err := broker.BuildProvider(cfg.Provider)
	if err != nil {
		return err
	}
	if err := prov.Validate(ctx); err != nil {
		return fmt.Errorf("provider %q failed validation: %w", cfg.Provider.Name, err)
	}

	channels, err := broker.BuildChannels(ctx, cfg.Channels)
	if err != nil {
		return err
	}

	matcher := broker.BuildMatcher(cfg.StandingRules)
	cache := valuecache.New(cfg.CacheTTL())
	reg := registry.New()

	metrics := observability.NewMetrics()
	if err := metrics.Start(cfg.Observability.MetricsAddr); err != nil {
		return err
	}
	defer metrics.Stop(context.Background())

	tracer, err := maybeTracer(ctx, cfg)
	if err != nil {
		return err
	}
	if tracer != nil {
		defer tracer.Shutdown(context.Background())
	}

	orch := broker.New(broker.Config{
		Provider:        prov,
		Channels:        channels,
		Matcher:         matcher,
		Cache:           cache,
		Registry:        reg,
		Sink:            sink,
		Log:             log,
		Metrics:         metrics,
		Tracer:          tracer,
		OpenContainers:  cfg.Containers.Open,
		GatedContainers: cfg.Containers.Gated,
		ApprovalTimeout: cfg.ApprovalTimeout(),
	})

	sock := transport.New(cfg.Transport.SocketPath, orch.Handle, log)
	if err := sock.Start(ctx); err != nil {
		return err
	}
	defer sock.Stop()

	httpSrv := callback.NewHTTPServer(cfg.HTTP.Addr, reg)
	if err := httpSrv.Start(ctx); err != nil {
		return err
	}
	defer httpSrv.Stop(context.Background())

	poller := callback.NewFSPoller(cfg.PendingDir, reg, log)
	if err := poller.Start(); err != nil {
		return err
	}
	defer poller.Stop()

	sink.Append(audit.Record{Action: audit.ActionDaemonStart})
	log.Info("approval broker started", "socket", cfg.Transport.SocketPath, "http", cfg.HTTP.Addr)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	log.Info("shutting down")
	orch.Shutdown()

	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if debug {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func maybeTracer(ctx context.Context, cfg *config.Config) (*observability.Tracer, error) {
	if !cfg.Observability.Tracing.Enabled {
		return nil, nil
	}
	return observability.NewTracer(ctx, observability.TraceConfig{
		ServiceName:    "approvalbrokerd",
		Environment:    cfg.Observability.Tracing.Environment,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
		EnableInsecure: cfg.Observability.Tracing.EnableInsecure,
	})
}
