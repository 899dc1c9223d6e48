// Package telemetry wires OpenTelemetry tracing, metrics and logs plus
// Pyroscope profiling for the service.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// ServiceVersion is reported on every exported signal
const ServiceVersion = "1.0.0"

// Providers groups the signal providers created from TelemetryConfig
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts every provider enabled by cfg. Disabled signals fall back to
// the global no-op implementations.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	base := Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}

	p := &Providers{}
	var err error
	if p.Tracer, err = NewTracerProvider(ctx, base, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, base, logger); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	if p.Logs, err = NewLoggerProvider(ctx, base, logger); err != nil {
		_ = p.Meter.Shutdown(ctx)
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	p.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.PyroscopeEndpoint,
		ApplicationName: cfg.ServiceName,
	}, logger)
	if err != nil {
		// profiling is optional
		logger.Warn("Failed to start profiler", zap.Error(err))
		p.Profiler, _ = NewProfiler(ProfilerConfig{}, logger)
	}
	if p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}
	return p, nil
}

// Shutdown flushes and stops all providers in reverse start order
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.Profiler.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Logs.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.Meter.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
