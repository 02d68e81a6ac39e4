// Package observe provides observability primitives for voxturn:
// OpenTelemetry metrics and the pipeline observer that feeds them.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// Prometheus exporter bridge is available via [InitProvider] so that
// metrics can be scraped via the standard /metrics endpoint. A
// package-level default [Metrics] instance ([DefaultMetrics]) is
// provided for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxturn metrics.
const meterName = "github.com/MrWong99/voxturn"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types
// handle their own synchronisation.
type Metrics struct {
	// StageDuration tracks per-recording pipeline stage latency. Use
	// with attribute: attribute.String("stage", ...).
	StageDuration metric.Float64Histogram

	// RecordingsProcessed counts finished recordings. Use with
	// attributes: attribute.String("split", ...), attribute.String("status", ...).
	RecordingsProcessed metric.Int64Counter

	// DisconnectedGraphs counts recordings whose affinity graph fell
	// apart into multiple components.
	DisconnectedGraphs metric.Int64Counter

	// TunerIterations counts clustering runs performed by the speaker
	// count sweep.
	TunerIterations metric.Int64Counter

	// ActiveWorkers tracks the number of recordings being clustered
	// concurrently.
	ActiveWorkers metric.Int64UpDownCounter
}

// stageBuckets defines histogram bucket boundaries (in seconds) sized
// for per-recording clustering stages.
var stageBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the
// given [metric.MeterProvider]. Returns an error if any instrument
// creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("voxturn.stage.duration",
		metric.WithDescription("Per-recording pipeline stage latency by stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecordingsProcessed, err = m.Int64Counter("voxturn.recordings.processed",
		metric.WithDescription("Total recordings processed by split and status."),
	); err != nil {
		return nil, err
	}
	if met.DisconnectedGraphs, err = m.Int64Counter("voxturn.graphs.disconnected",
		metric.WithDescription("Total recordings whose affinity graph had more than one component."),
	); err != nil {
		return nil, err
	}
	if met.TunerIterations, err = m.Int64Counter("voxturn.tuner.iterations",
		metric.WithDescription("Total clustering runs performed by the speaker count sweep."),
	); err != nil {
		return nil, err
	}
	if met.ActiveWorkers, err = m.Int64UpDownCounter("voxturn.active_workers",
		metric.WithDescription("Number of recordings being clustered concurrently."),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating
// it on first call using [otel.GetMeterProvider]. Subsequent calls
// return the same pointer. Panics if instrument creation fails (should
// not happen with the global provider).
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

// RecordRecording records one finished recording with the standard
// attribute set.
func (m *Metrics) RecordRecording(ctx context.Context, split, status string) {
	m.RecordingsProcessed.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("split", split),
			attribute.String("status", status),
		),
	)
}

// RecordTunerIteration records one clustering run of the speaker sweep.
func (m *Metrics) RecordTunerIteration(ctx context.Context, split string) {
	m.TunerIterations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("split", split)),
	)
}

// WorkerStarted increments the active worker gauge.
func (m *Metrics) WorkerStarted(ctx context.Context) {
	m.ActiveWorkers.Add(ctx, 1)
}

// WorkerFinished decrements the active worker gauge.
func (m *Metrics) WorkerFinished(ctx context.Context) {
	m.ActiveWorkers.Add(ctx, -1)
}
