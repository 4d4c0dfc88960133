package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attrMethod     = attribute.Key("http.request.method")
	attrPath       = attribute.Key("url.path")
	attrStatus     = attribute.Key("http.response.status_code")
	attrRequestErr = attribute.Key("http.request.error")
)

type metrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	errors   metric.Float64Histogram
}

// RequestData captures the metadata recorded for each API request.
type RequestData struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Error    error
}

func newMetrics(m meterProvider) (*metrics, error) {
	if m == nil {
		return &metrics{}, nil
	}
	requests, err := m.Int64Counter("http.client.requests.total", metric.WithDescription("Total number of API requests issued by the client."))
	if err != nil {
		return nil, err
	}
	latency, err := m.Float64Histogram("http.client.latency.ms", metric.WithDescription("API request round-trip latency in milliseconds."), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	errorRate, err := m.Float64Histogram("http.client.errors.rate", metric.WithDescription("Per-request error indicator (0 or 1)."), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}
	return &metrics{
		requests: requests,
		latency:  latency,
		errors:   errorRate,
	}, nil
}

func (m *metrics) RecordRequest(ctx context.Context, data RequestData) {
	if m == nil || m.requests == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 4)
	if data.Method != "" {
		attrs = append(attrs, attrMethod.String(data.Method))
	}
	if data.Path != "" {
		attrs = append(attrs, attrPath.String(data.Path))
	}
	if data.Status != 0 {
		attrs = append(attrs, attrStatus.Int(data.Status))
	}
	errFlag := data.Error != nil
	attrs = append(attrs, attrRequestErr.Bool(errFlag))

	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if data.Duration > 0 && m.latency != nil {
		m.latency.Record(ctx, float64(data.Duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if m.errors != nil {
		if errFlag {
			m.errors.Record(ctx, 1, metric.WithAttributes(attrs...))
		} else {
			m.errors.Record(ctx, 0, metric.WithAttributes(attrs...))
		}
	}
}

// meterProvider is the subset of metric.Meter we rely on, which makes
// dependency injection straightforward in tests.
type meterProvider interface {
	Int64Counter(name string, opts ...metric.Int64CounterOption) (metric.Int64Counter, error)
	Float64Histogram(name string, opts ...metric.Float64HistogramOption) (metric.Float64Histogram, error)
}
