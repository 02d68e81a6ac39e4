package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/voxturn/pkg/diar"
)

// Compile-time interface check.
var _ diar.Observer = (*PipelineObserver)(nil)

// PipelineObserver bridges [diar.Observer] callbacks into metrics and
// structured logs. One observer serves all recordings of a run; the
// underlying instruments synchronise themselves.
type PipelineObserver struct {
	metrics *Metrics
	log     *slog.Logger
}

// NewPipelineObserver returns an observer recording into metrics and
// logging through log. A nil log falls back to [slog.Default].
func NewPipelineObserver(metrics *Metrics, log *slog.Logger) *PipelineObserver {
	if log == nil {
		log = slog.Default()
	}
	return &PipelineObserver{metrics: metrics, log: log}
}

// StageCompleted implements [diar.Observer].
func (o *PipelineObserver) StageCompleted(ctx context.Context, stage diar.Stage, seconds float64) {
	o.metrics.StageDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("stage", string(stage))),
	)
	o.log.Debug("pipeline stage completed", "stage", stage, "duration_s", seconds)
}

// GraphDisconnected implements [diar.Observer].
func (o *PipelineObserver) GraphDisconnected(ctx context.Context, recordingID string, components int) {
	o.metrics.DisconnectedGraphs.Add(ctx, 1)
	o.log.Warn("affinity graph is disconnected",
		"recording", recordingID,
		"components", components,
	)
}
