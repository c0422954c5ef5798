package observability

import (
	"context"
	"errors"
	"log/slog"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kenacbank/auth-service/internal/config"
)

// Runtime holds the telemetry providers that need an orderly flush at
// shutdown. Metrics and traces are initialized together so the process
// either gets a working pipeline for both signals or fails to start.
type Runtime struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Runtime{MeterProvider: mp, TracerProvider: tp}, nil
}

// Shutdown flushes both providers and reports every failure, not just
// the first; a lost metric flush must not hide a lost trace flush.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	shutdowns := []func(context.Context) error{}
	if r.MeterProvider != nil {
		shutdowns = append(shutdowns, r.MeterProvider.Shutdown)
	}
	if r.TracerProvider != nil {
		shutdowns = append(shutdowns, r.TracerProvider.Shutdown)
	}
	var errs []error
	for _, shutdown := range shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
