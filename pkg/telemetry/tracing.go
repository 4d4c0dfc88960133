// Package telemetry instruments the API client: one span per request, a
// small set of HTTP client metrics, and a regex filter that keeps session
// tokens and passwords out of everything exported.
package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/cexll/conduitsdk-go/telemetry"

// Config assembles a Manager. Zero-valued provider fields get working
// in-process defaults, so a Manager is safe to build without a collector.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Resource       *resource.Resource
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Filter         FilterConfig
}

// Manager is the single instrumentation entry point the transport uses.
// All methods tolerate a nil receiver so instrumented code needs no guards.
type Manager struct {
	tracer  trace.Tracer
	filter  *Filter
	metrics *metrics

	closers []shutdowner
}

type shutdowner interface {
	Shutdown(context.Context) error
}

// NewManager builds a manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	filter, err := NewFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	tp, mp, err := cfg.providers()
	if err != nil {
		return nil, err
	}
	recorder, err := newMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	m := &Manager{
		tracer:  tp.Tracer(instrumentationName),
		filter:  filter,
		metrics: recorder,
	}
	for _, provider := range []any{tp, mp} {
		if closer, ok := provider.(shutdowner); ok {
			m.closers = append(m.closers, closer)
		}
	}
	return m, nil
}

func (c Config) providers() (trace.TracerProvider, metric.MeterProvider, error) {
	tp := c.TracerProvider
	if tp == nil {
		res := c.Resource
		if res == nil {
			var err error
			res, err = buildResource(c)
			if err != nil {
				return nil, nil, err
			}
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}
	mp := c.MeterProvider
	if mp == nil {
		mp = sdkmetric.NewMeterProvider()
	}
	return tp, mp, nil
}

// StartSpan opens a span on the manager's tracer.
func (m *Manager) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if m == nil || m.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return m.tracer.Start(ctx, name, opts...)
}

// RecordRequest counts one finished request. The path is run through the
// filter first; a slug is fine to export, an embedded token is not.
func (m *Manager) RecordRequest(ctx context.Context, data RequestData) {
	if m == nil || m.metrics == nil {
		return
	}
	data.Path = m.filter.MaskText(data.Path)
	m.metrics.RecordRequest(ctx, data)
}

// SanitizeAttributes scrubs credential-shaped values out of attrs.
func (m *Manager) SanitizeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	if m == nil {
		return attrs
	}
	return m.filter.MaskAttributes(attrs...)
}

// MaskText scrubs credential-shaped segments out of value.
func (m *Manager) MaskText(value string) string {
	if m == nil {
		return value
	}
	return m.filter.MaskText(value)
}

// Shutdown flushes and stops every provider the manager owns.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, closer := range m.closers {
		errs = append(errs, closer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// The process-wide manager. Instrumented code reaches it through the
// package-level helpers below; nil means telemetry is off and every helper
// degrades to a no-op.
var globalManager atomic.Pointer[Manager]

// SetDefault installs mgr as the process-wide manager.
func SetDefault(mgr *Manager) {
	globalManager.Store(mgr)
}

// Default returns the process-wide manager, nil when none is installed.
func Default() *Manager {
	return globalManager.Load()
}

// StartSpan opens a span on the default manager.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if mgr := Default(); mgr != nil {
		return mgr.StartSpan(ctx, name, opts...)
	}
	return ctx, trace.SpanFromContext(ctx)
}

// RecordRequest records through the default manager.
func RecordRequest(ctx context.Context, data RequestData) {
	Default().RecordRequest(ctx, data)
}

// SanitizeAttributes scrubs through the default manager.
func SanitizeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	return Default().SanitizeAttributes(attrs...)
}

// MaskText scrubs through the default manager.
func MaskText(value string) string {
	return Default().MaskText(value)
}

// EndSpan closes span, recording err as the span status when present.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "ok")
	}
	span.End()
}

func buildResource(cfg Config) (*resource.Resource, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "conduitsdk-go"
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if v := strings.TrimSpace(cfg.ServiceVersion); v != "" {
		attrs = append(attrs, semconv.ServiceVersion(v))
	}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(env))
	}

	base := resource.Default()
	schema := base.SchemaURL()
	if schema == "" {
		schema = semconv.SchemaURL
	}
	return resource.Merge(base, resource.NewWithAttributes(schema, attrs...))
}
