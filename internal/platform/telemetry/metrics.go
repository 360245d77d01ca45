package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ClientMetrics holds the instruments recorded for each outgoing request.
type ClientMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	inFlight        metric.Int64UpDownCounter
}

// NewClientMetrics creates HTTP client instruments on the global meter
// provider under the given instrumentation scope.
func NewClientMetrics(scope string) (*ClientMetrics, error) {
	meter := otel.Meter(scope)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter(
		"http.client.active_requests",
		metric.WithDescription("Number of in-flight HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating in-flight counter: %w", err)
	}

	return &ClientMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		inFlight:        inFlight,
	}, nil
}

// Start marks a request in flight and returns a func that ends it.
func (m *ClientMetrics) Start(ctx context.Context, method, service string) func() {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("peer.service", service),
	)

	m.inFlight.Add(ctx, 1, attrs)

	return func() { m.inFlight.Add(ctx, -1, attrs) }
}

// Record records one finished request. statusCode is 0 when no response
// was received.
func (m *ClientMetrics) Record(ctx context.Context, method, service string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", service),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
