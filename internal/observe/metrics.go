// Package observe provides application-wide observability primitives for
// hindinames: OpenTelemetry metrics, tracing helpers, trace-aware structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that the server can
// expose them on /metrics. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all hindinames metrics.
const meterName = "github.com/MrWong99/hindinames"

// Filter decision attribute values.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// Renders counts P2G renderings. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	Renders metric.Int64Counter

	// RenderDuration tracks the latency of a rendering, phoneme lookup included.
	RenderDuration metric.Float64Histogram

	// FilterDecisions counts pair filter outcomes. Use with attributes:
	//   attribute.String("decision", ...), attribute.String("rule", ...)
	// Accepted pairs carry an empty rule.
	FilterDecisions metric.Int64Counter

	// CanonicalEntries counts canonical entries produced.
	CanonicalEntries metric.Int64Counter

	// Consistency records the consistency score of every canonical entry.
	Consistency metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// renderings, which range from microseconds (dictionary hit) to seconds
// (remote model).
var latencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5,
}

// consistencyBuckets mirror the stability bands used by the reports.
var consistencyBuckets = []float64{
	0.25, 0.5, 0.7, 0.8, 0.9, 0.95, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Renders, err = m.Int64Counter("hindinames.p2g.renders",
		metric.WithDescription("Total P2G renderings by status."),
	); err != nil {
		return nil, err
	}
	if met.RenderDuration, err = m.Float64Histogram("hindinames.p2g.render.duration",
		metric.WithDescription("Latency of a single P2G rendering."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FilterDecisions, err = m.Int64Counter("hindinames.filter.decisions",
		metric.WithDescription("Pair filter outcomes by decision and rejecting rule."),
	); err != nil {
		return nil, err
	}
	if met.CanonicalEntries, err = m.Int64Counter("hindinames.canonical.entries",
		metric.WithDescription("Total canonical entries produced."),
	); err != nil {
		return nil, err
	}
	if met.Consistency, err = m.Float64Histogram("hindinames.canonical.consistency",
		metric.WithDescription("Consistency score of produced canonical entries."),
		metric.WithExplicitBucketBoundaries(consistencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("hindinames.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRender records one rendering with its status and latency.
func (m *Metrics) RecordRender(ctx context.Context, status string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Renders.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordFilterDecision records a filter outcome. An empty rule means the
// pair was accepted.
func (m *Metrics) RecordFilterDecision(ctx context.Context, rule string) {
	decision := DecisionAccept
	if rule != "" {
		decision = DecisionReject
	}
	m.FilterDecisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("decision", decision),
			attribute.String("rule", rule),
		),
	)
}

// RecordCanonicalEntry records one produced canonical entry.
func (m *Metrics) RecordCanonicalEntry(ctx context.Context, consistency float64) {
	m.CanonicalEntries.Add(ctx, 1)
	m.Consistency.Record(ctx, consistency)
}
