package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestStageDurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.StageDuration.Record(ctx, 0.02)
	m.StageDuration.Record(ctx, 1.5)

	rm := collect(t, reader)
	met := findMetric(rm, "voxturn.stage.duration")
	if met == nil {
		t.Fatal("metric voxturn.stage.duration not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("voxturn.stage.duration is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("voxturn.stage.duration has no data points")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRecording(ctx, "dev", "ok")
	m.RecordRecording(ctx, "dev", "failed")
	m.DisconnectedGraphs.Add(ctx, 1)
	m.RecordTunerIteration(ctx, "dev")
	m.RecordTunerIteration(ctx, "dev")

	rm := collect(t, reader)

	counters := []struct {
		name string
		want int64
	}{
		{"voxturn.recordings.processed", 2},
		{"voxturn.graphs.disconnected", 1},
		{"voxturn.tuner.iterations", 2},
	}
	for _, tc := range counters {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not an int64 sum", tc.name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			if total != tc.want {
				t.Errorf("total = %d, want %d", total, tc.want)
			}
		})
	}
}

func TestActiveWorkersGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.WorkerStarted(ctx)
	m.WorkerStarted(ctx)
	m.WorkerFinished(ctx)

	rm := collect(t, reader)
	met := findMetric(rm, "voxturn.active_workers")
	if met == nil {
		t.Fatal("metric voxturn.active_workers not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("voxturn.active_workers is not an int64 sum")
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 1 {
		t.Errorf("active workers = %d, want 1", total)
	}
}
