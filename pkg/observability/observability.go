// Package observability provides OpenTelemetry tracing and metrics for
// chaos verification runs: spans around replay and injection batches, and
// RED-style counters over attempts and failures.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string        // e.g., "localhost:4317" for gRPC
	SampleRate     float64       // 0.0 to 1.0, default 1.0 (sample all)
	BatchTimeout   time.Duration // How long to wait before sending batched spans
	Enabled        bool          // Enable/disable telemetry
	Insecure       bool          // Use insecure connection (dev only)
}

// DefaultConfig returns development defaults pointed at a local collector.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "isl-chaoscore",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		OTLPEndpoint:   "localhost:4317",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        true,
		Insecure:       true,
	}
}

// Provider manages OpenTelemetry trace and metric providers.
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	attemptCounter metric.Int64Counter
	failureCounter metric.Int64Counter
	batchDuration  metric.Float64Histogram
	activeBatches  metric.Int64UpDownCounter
}

// New creates a new observability provider. When config.Enabled is false,
// the returned provider is a no-op and never dials the collector.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Provider{
		config: config,
		logger: slog.Default().With("component", "observability"),
	}

	if !config.Enabled {
		p.logger.InfoContext(ctx, "observability disabled")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
			attribute.String("isl.component", "chaoscore"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.initTraceProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to init trace provider: %w", err)
	}
	if err := p.initMetricProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to init metric provider: %w", err)
	}

	p.tracer = otel.Tracer("isl.chaoscore",
		trace.WithInstrumentationVersion(config.ServiceVersion),
	)
	p.meter = otel.Meter("isl.chaoscore",
		metric.WithInstrumentationVersion(config.ServiceVersion),
	)

	if err := p.initBatchMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init batch metrics: %w", err)
	}

	p.logger.InfoContext(ctx, "observability initialized",
		"service", config.ServiceName,
		"environment", config.Environment,
		"endpoint", config.OTLPEndpoint,
		"sample_rate", config.SampleRate,
	)

	return p, nil
}

// initTraceProvider initializes the OpenTelemetry trace provider.
func (p *Provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint),
	}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	if p.config.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if p.config.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(p.config.SampleRate)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(p.config.BatchTimeout),
		),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

// initMetricProvider initializes the OpenTelemetry metric provider.
func (p *Provider) initMetricProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(p.config.OTLPEndpoint),
	}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(15*time.Second),
		)),
	)

	otel.SetMeterProvider(p.meterProvider)

	return nil
}

// initBatchMetrics initializes the injection batch instruments.
func (p *Provider) initBatchMetrics() error {
	var err error

	p.attemptCounter, err = p.meter.Int64Counter("chaoscore.injection.attempts.total",
		metric.WithDescription("Total injection attempts launched"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	p.failureCounter, err = p.meter.Int64Counter("chaoscore.injection.failures.total",
		metric.WithDescription("Total injection attempts that failed or did not complete"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	p.batchDuration, err = p.meter.Float64Histogram("chaoscore.injection.batch.duration",
		metric.WithDescription("Injection batch wall time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return err
	}

	p.activeBatches, err = p.meter.Int64UpDownCounter("chaoscore.injection.batches.active",
		metric.WithDescription("Number of injection batches currently running"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shutdown trace provider", "error", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shutdown metric provider", "error", err)
		}
	}
	return nil
}

// Tracer returns the configured tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.Tracer("isl.chaoscore")
	}
	return p.tracer
}

// Meter returns the configured meter.
func (p *Provider) Meter() metric.Meter {
	if p.meter == nil {
		return otel.Meter("isl.chaoscore")
	}
	return p.meter
}

// StartSpan starts a new span with the given name.
func (p *Provider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.Tracer().Start(ctx, name, opts...)
}

// ObserveBatch records a completed injection batch. kind names the batch
// flavor (plain, race, idempotency) so failures can be sliced per check.
func (p *Provider) ObserveBatch(ctx context.Context, kind string, attempts, failures int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("batch.kind", kind))
	if p.attemptCounter != nil {
		p.attemptCounter.Add(ctx, int64(attempts), attrs)
	}
	if p.failureCounter != nil && failures > 0 {
		p.failureCounter.Add(ctx, int64(failures), attrs)
	}
	if p.batchDuration != nil {
		p.batchDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// TrackBatch brackets a batch with a span and the active-batch gauge.
// Call the returned function when the batch completes.
func (p *Provider) TrackBatch(ctx context.Context, kind string) (context.Context, func(attempts, failures int)) {
	start := time.Now()
	attrs := []attribute.KeyValue{attribute.String("batch.kind", kind)}

	ctx, span := p.StartSpan(ctx, "chaoscore.injection.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	if p.activeBatches != nil {
		p.activeBatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	return ctx, func(attempts, failures int) {
		if p.activeBatches != nil {
			p.activeBatches.Add(ctx, -1, metric.WithAttributes(attrs...))
		}
		p.ObserveBatch(ctx, kind, attempts, failures, time.Since(start))
		span.SetAttributes(
			attribute.Int("batch.attempts", attempts),
			attribute.Int("batch.failures", failures),
		)
		span.End()
	}
}
