package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ExporterConfig describes the OTLP/HTTP trace endpoint spans are shipped to.
type ExporterConfig struct {
	// Endpoint is host:port of the collector, e.g. "localhost:4318".
	Endpoint string
	// Insecure disables TLS toward the collector.
	Insecure bool
}

// NewOTLPTracerProvider builds a batching tracer provider that exports to the
// configured OTLP/HTTP endpoint. Pass the result as Config.TracerProvider.
func NewOTLPTracerProvider(ctx context.Context, cfg Config, exp ExporterConfig) (*sdktrace.TracerProvider, error) {
	endpoint := strings.TrimSpace(exp.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("telemetry: exporter endpoint required")
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if exp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create otlp exporter: %w", err)
	}
	res := cfg.Resource
	if res == nil {
		res, err = buildResource(cfg)
		if err != nil {
			return nil, err
		}
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
