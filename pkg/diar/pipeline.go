// Package diar implements the graph-based clustering core of the voxturn
// speaker diarization pipeline.
//
// For one recording, a cloud of per-segment speaker embeddings (produced by
// an external model — see the embedstore package) is turned into coherent,
// time-ordered speaker turns in four strictly sequential stages:
//
//  1. [BuildAffinity]: symmetric sparse nearest-neighbor similarity graph
//     over the embedding set.
//  2. [SpectralEmbedding]: bottom eigenvectors of the (normalized) graph
//     Laplacian as a low-dimensional representation per segment.
//  3. [KMeans.Partition]: centroid partitioning of the spectral points
//     into k clusters, k supplied by the caller (oracle or swept
//     externally — never inferred here).
//  4. [Reconcile]: merge temporally adjacent same-speaker segments, then
//     split residual cross-speaker overlap at the midpoint.
//
// Every decision in the pipeline is deterministic given (seed, k,
// neighbors): identical inputs always reproduce identical turns, which the
// evaluation workflow depends on. Recordings share no state, so distinct
// recordings may be processed concurrently; a [Pipeline] itself is
// read-only after construction and safe for concurrent use.
package diar

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/voxturn/pkg/types"
)

// Stage identifies one step of the per-recording pipeline for observers.
type Stage string

const (
	StageAffinity  Stage = "affinity"
	StageSpectral  Stage = "spectral"
	StageAssign    Stage = "assign"
	StageReconcile Stage = "reconcile"
)

// Observer receives pipeline telemetry. Implementations must be safe for
// concurrent use; the runner calls them from multiple worker goroutines.
type Observer interface {
	// StageCompleted reports that one pipeline stage finished for a
	// recording, with its wall-clock duration in seconds.
	StageCompleted(ctx context.Context, stage Stage, seconds float64)

	// GraphDisconnected reports the non-fatal numerical warning condition
	// of an affinity graph with more than one connected component.
	GraphDisconnected(ctx context.Context, recordingID string, components int)
}

// Params holds the clustering parameters threaded through the pipeline.
// The zero value is not useful; fill in at least Neighbors.
type Params struct {
	// Neighbors is the k of the k-nearest-neighbor affinity graph.
	Neighbors int

	// IncludeSelf counts a point as its own neighbor when building the
	// affinity graph.
	IncludeSelf bool

	// NormalizedLaplacian selects the degree-normalized Laplacian variant.
	NormalizedLaplacian bool

	// DropFirst discards the trivial leading eigenvector of the spectral
	// embedding.
	DropFirst bool

	// NInit is the number of independent k-means initializations.
	NInit int

	// MaxIter caps the Lloyd iterations per k-means initialization.
	MaxIter int

	// Seed fixes all randomness in the pipeline. It is an explicit
	// parameter rather than ambient process state so per-recording runs
	// stay independently reproducible and safely parallelizable.
	Seed int64
}

// PipelineOption is a functional option for configuring a [Pipeline].
type PipelineOption func(*Pipeline)

// WithObserver attaches an [Observer] that receives stage timings and
// numerical warnings.
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) {
		p.obs = o
	}
}

// Pipeline runs the full clustering core for one recording at a time.
type Pipeline struct {
	params Params
	km     *KMeans
	obs    Observer
}

// NewPipeline returns a [Pipeline] using the supplied clustering
// parameters. An NInit or MaxIter of 0 falls back to the k-means
// defaults.
func NewPipeline(params Params, opts ...PipelineOption) *Pipeline {
	var kmOpts []KMeansOption
	if params.NInit > 0 {
		kmOpts = append(kmOpts, WithNInit(params.NInit))
	}
	if params.MaxIter > 0 {
		kmOpts = append(kmOpts, WithMaxIter(params.MaxIter))
	}
	p := &Pipeline{
		params: params,
		km:     NewKMeans(kmOpts...),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Diarize assigns one of k speakers to every segment of a single recording
// and returns the reconciled, non-overlapping speaker turns.
//
// All segments must belong to the same recording ([ErrData] otherwise).
// k must be between 1 and the number of segments ([ErrConfig] otherwise).
// Speaker IDs take the form <recordingID>_<label>.
func (p *Pipeline) Diarize(ctx context.Context, segments []types.Segment, k int) ([]types.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments supplied", ErrConfig)
	}

	recID := segments[0].RecordingID
	embeddings := make([][]float32, len(segments))
	for i, s := range segments {
		if s.RecordingID != recID {
			return nil, fmt.Errorf("%w: segments span recordings %q and %q", ErrData, recID, s.RecordingID)
		}
		embeddings[i] = s.Embedding
	}
	if k > len(segments) {
		return nil, fmt.Errorf("%w: k = %d exceeds the %d segments of recording %q",
			ErrConfig, k, len(segments), recID)
	}

	start := time.Now()
	affinity, err := BuildAffinity(embeddings, p.params.Neighbors, p.params.IncludeSelf)
	if err != nil {
		return nil, fmt.Errorf("recording %q: build affinity: %w", recID, err)
	}
	p.stageDone(ctx, StageAffinity, start)

	if components := affinity.ConnectedComponents(); components > 1 && p.obs != nil {
		p.obs.GraphDisconnected(ctx, recID, components)
	}

	start = time.Now()
	points, err := SpectralEmbedding(affinity, k, p.params.NormalizedLaplacian, p.params.DropFirst)
	if err != nil {
		return nil, fmt.Errorf("recording %q: spectral embedding: %w", recID, err)
	}
	p.stageDone(ctx, StageSpectral, start)

	start = time.Now()
	labels, err := p.km.Partition(points, k, p.params.Seed)
	if err != nil {
		return nil, fmt.Errorf("recording %q: cluster assignment: %w", recID, err)
	}
	p.stageDone(ctx, StageAssign, start)

	start = time.Now()
	entries := make([]Entry, len(segments))
	for i, s := range segments {
		entries[i] = Entry{
			RecordingID: recID,
			Start:       s.Start,
			End:         s.End,
			SpeakerID:   fmt.Sprintf("%s_%d", recID, labels[i]),
		}
	}
	turns, err := Reconcile(entries)
	if err != nil {
		return nil, fmt.Errorf("recording %q: reconcile: %w", recID, err)
	}
	p.stageDone(ctx, StageReconcile, start)

	return turns, nil
}

func (p *Pipeline) stageDone(ctx context.Context, stage Stage, started time.Time) {
	if p.obs != nil {
		p.obs.StageCompleted(ctx, stage, time.Since(started).Seconds())
	}
}
