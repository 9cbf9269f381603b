// Package telemetry provides optional OpenTelemetry tracing over OTLP
// gRPC. When disabled, every helper is a no-op and no collector
// connection is ever made.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "licorflow"

// Config configures the OTLP gRPC exporter.
type Config struct {
	// Enabled gates the whole subsystem.
	Enabled bool

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string

	// ServiceVersion is stamped on every span's resource.
	ServiceVersion string

	// Environment names the deployment environment.
	Environment string

	// InsecureTLS disables TLS for the gRPC connection.
	InsecureTLS bool

	// BatchTimeout is how long spans buffer before export.
	BatchTimeout time.Duration

	// ExportTimeout bounds each export call.
	ExportTimeout time.Duration
}

// DefaultConfig returns the local-collector defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:       "localhost:4317",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		InsecureTLS:    true,
		BatchTimeout:   5 * time.Second,
		ExportTimeout:  30 * time.Second,
	}
}

// Init sets up the global tracer provider and returns a shutdown function
// that flushes pending spans. A disabled config yields a no-op shutdown.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig().Endpoint
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = DefaultConfig().BatchTimeout
	}
	if cfg.ExportTimeout == 0 {
		cfg.ExportTimeout = DefaultConfig().ExportTimeout
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(cfg.ExportTimeout),
	}
	if cfg.InsecureTLS {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
			sdktrace.WithExportTimeout(cfg.ExportTimeout),
		),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// StartSpan starts a span on the global tracer. With telemetry disabled
// the global provider is a no-op and this costs nothing.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(serviceName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// FileAttrs describes one file conversion for span attributes.
func FileAttrs(path, device, config string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("licorflow.input", path),
		attribute.String("licorflow.device", device),
		attribute.String("licorflow.config", config),
	}
}

// RecordError records err on the span in ctx and marks it failed.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordRows annotates the span in ctx with conversion output counts.
func RecordRows(ctx context.Context, rows int64, warnings int) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("licorflow.rows", rows),
		attribute.Int("licorflow.warnings", warnings),
	)
}
