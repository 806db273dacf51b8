package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthReporter keeps the gRPC health status in line with the service's
// dependencies: SERVING while every check passes, NOT_SERVING otherwise.
type HealthReporter struct {
	srv      *health.Server
	checks   map[string]Check
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewHealthReporter(srv *health.Server, checks map[string]Check, interval time.Duration, log *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{srv: srv, checks: checks, interval: interval, timeout: 2 * time.Second, log: log}
}

// Run probes immediately and then on every tick until ctx is done, when the
// status is switched to NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return nil
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Probe runs all checks once and publishes the result.
func (h *HealthReporter) Probe(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check(cctx)
		cancel()
		if err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	h.srv.SetServingStatus("", st)
	return st
}
