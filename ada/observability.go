package ada

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/odit-bit/ada/ada/config"
)

func startMetric(ctx context.Context, res *resource.Resource, cfg config.ObsConfig) (*metric.MeterProvider, error) {
	var reader metric.Reader

	switch cfg.Metrics {
	case "", "prometheus":
		// served by promhttp on /metrics
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		reader = exporter

	case "otlp":
		opts := []otlpmetrichttp.Option{}
		if cfg.MetricsEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.MetricsEndpoint))
		}
		if !cfg.Secure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp http metric exporter: %w", err)
		}
		reader = metric.NewPeriodicReader(exporter)

	case "stdout":
		slog.Debug("Initilize stdout metric")
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		reader = metric.NewPeriodicReader(exporter)

	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Metrics)
	}

	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(res),
	), nil
}

func startTrace(ctx context.Context, res *resource.Resource, cfg config.ObsConfig) (*trace.TracerProvider, error) {
	var traceExporter trace.SpanExporter
	var err error

	switch cfg.Traces {
	case "otlp":
		otlpOpts := []otlptracehttp.Option{}
		if cfg.TraceEndpoint != "" {
			otlpOpts = append(otlpOpts, otlptracehttp.WithEndpoint(cfg.TraceEndpoint))
		}
		if !cfg.Secure {
			otlpOpts = append(otlpOpts, otlptracehttp.WithInsecure())
		}
		traceExporter, err = otlptracehttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp http trace exporter: %w", err)
		}

	case "stdout":
		slog.Debug("Initilize stdout trace")
		traceExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Traces)
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	), nil
}

// Initializes and configures OpenTelemetry for the application.
// It returns a shutdown function that must be called on application exit.
func InitObservability(ctx context.Context, serviceName string, cfg config.ObsConfig) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enable {
		slog.Info("observability is disabled")
		return noop, nil
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("failed to create otel resource: %w", err)
	}

	sfn := []func(context.Context) error{}
	shutdown = func(ctx context.Context) error {
		var shutdownErr error
		for _, fn := range sfn {
			shutdownErr = errors.Join(shutdownErr, fn(ctx))
		}
		sfn = nil
		return shutdownErr
	}

	// --- METER PROVIDER ---
	meterProvider, err := startMetric(ctx, res, cfg)
	if err != nil {
		return noop, err
	}
	otel.SetMeterProvider(meterProvider)
	sfn = append(sfn, meterProvider.Shutdown)

	if err := memoryUsage(); err != nil {
		slog.Warn("failed register memory gauge", "error", err)
	}

	// --- TRACER PROVIDER ---
	if cfg.Traces != "" {
		tracerProvider, err := startTrace(ctx, res, cfg)
		if err != nil {
			return noop, errors.Join(err, shutdown(ctx))
		}
		otel.SetTracerProvider(tracerProvider)
		sfn = append(sfn, tracerProvider.Shutdown)
	}

	// Set the global propagator to tracecontext.
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Info("observability initialized", "metrics", cfg.Metrics, "traces", cfg.Traces)
	return shutdown, nil
}

// memoryUsage report the memory obtained from the OS by the process.
func memoryUsage() error {
	meter := otel.Meter("ada.process")
	_, err := meter.Int64ObservableGauge(
		"ada.process.memory_bytes",
		otelmetric.WithDescription("Memory obtained from the OS in bytes"),
		otelmetric.WithInt64Callback(func(_ context.Context, o otelmetric.Int64Observer) error {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			o.Observe(int64(stats.Sys))
			return nil
		}),
	)
	return err
}
