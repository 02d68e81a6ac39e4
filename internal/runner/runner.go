// Package runner orchestrates clustering runs over whole dataset splits:
// loading embeddings, fanning recordings out over a bounded worker pool,
// writing RTTM output, and scoring the merged result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voxturn/internal/config"
	"github.com/MrWong99/voxturn/internal/observe"
	"github.com/MrWong99/voxturn/pkg/diar"
	"github.com/MrWong99/voxturn/pkg/embedstore"
	"github.com/MrWong99/voxturn/pkg/rttm"
	"github.com/MrWong99/voxturn/pkg/score"
)

// RecordingResult captures the outcome for one recording. Err is non-nil
// when clustering or serialization failed; a failed recording never
// aborts the rest of the split.
type RecordingResult struct {
	RecordingID string
	Speakers    int
	Turns       int
	OutputPath  string
	Err         error
}

// SplitReport summarises one processed split.
type SplitReport struct {
	Split string

	// Results holds one entry per recording in store order.
	Results []RecordingResult

	// Failed counts recordings with a non-nil Err.
	Failed int

	// OutputPath is the merged system RTTM for the split.
	OutputPath string

	// Score is set when scoring ran for this split.
	Score *score.Result

	// TunedSpeakers is the swept speaker count in tune mode, 0 otherwise.
	TunedSpeakers int
}

// Report is the outcome of one full run across all configured splits.
type Report struct {
	// RunID uniquely identifies this run in logs and output metadata.
	RunID string

	Splits []SplitReport
}

// Option is a functional option for configuring a [Runner].
type Option func(*Runner)

// WithScorer attaches the scorer used when scoring is enabled.
func WithScorer(s score.Scorer) Option {
	return func(r *Runner) {
		r.scorer = s
	}
}

// WithMetrics attaches a metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger attaches a logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// Runner executes clustering runs per the loaded configuration. It is
// safe for a single Run call at a time; recordings within a run are
// processed concurrently.
type Runner struct {
	cfg     *config.Config
	store   embedstore.Store
	scorer  score.Scorer
	metrics *observe.Metrics
	log     *slog.Logger

	pipeline *diar.Pipeline
}

// New returns a Runner over the given store.
func New(cfg *config.Config, store embedstore.Store, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		store: store,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}

	params := diar.Params{
		Neighbors:           cfg.Clustering.Neighbors,
		IncludeSelf:         cfg.Clustering.IncludeSelf,
		NormalizedLaplacian: cfg.Clustering.Laplacian == config.LaplacianNormalized,
		DropFirst:           cfg.Clustering.DropFirst,
		NInit:               cfg.Clustering.NInit,
		MaxIter:             cfg.Clustering.MaxIter,
		Seed:                cfg.Run.Seed,
	}
	r.pipeline = diar.NewPipeline(params,
		diar.WithObserver(observe.NewPipelineObserver(r.metrics, r.log)),
	)
	return r
}

// Run processes every configured split and returns the per-split
// reports. In tune mode the speaker count is swept on the first split
// before any split is processed.
//
// Run fails outright only on setup problems (listing recordings,
// missing oracle counts file, tuner failure) or context cancellation;
// individual recording failures are isolated into the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := r.log.With("run_id", report.RunID)
	log.Info("starting clustering run",
		"splits", r.cfg.Run.Splits,
		"mode", r.cfg.Speakers.Mode,
		"neighbors", r.cfg.Clustering.Neighbors,
	)

	tunedK := 0
	if r.cfg.Speakers.Mode == config.SpeakersTune {
		k, err := r.tuneSpeakerCount(ctx, log, r.cfg.Run.Splits[0])
		if err != nil {
			return nil, fmt.Errorf("runner: tune speaker count: %w", err)
		}
		tunedK = k
		log.Info("speaker count tuned", "split", r.cfg.Run.Splits[0], "speakers", tunedK)
	}

	for _, split := range r.cfg.Run.Splits {
		kFor, err := r.speakerCounts(split, tunedK)
		if err != nil {
			return nil, fmt.Errorf("runner: split %s: %w", split, err)
		}

		outDir := filepath.Join(r.cfg.Paths.OutputDir, split)
		sr, err := r.processSplit(ctx, log, split, outDir, kFor)
		if err != nil {
			return nil, fmt.Errorf("runner: split %s: %w", split, err)
		}
		sr.TunedSpeakers = tunedK

		if r.cfg.Scoring.Enabled && r.scorer != nil {
			result, err := r.scoreSplit(ctx, split, sr.OutputPath)
			if err != nil {
				return nil, fmt.Errorf("runner: score split %s: %w", split, err)
			}
			sr.Score = &result
			log.Info("split scored",
				"split", split,
				"der", result.DER,
				"missed", result.MissedSpeech,
				"false_alarm", result.FalseAlarm,
				"speaker_error", result.SpeakerError,
			)
		}

		report.Splits = append(report.Splits, sr)
	}
	return report, nil
}

// speakerCounts returns the per-recording speaker count lookup for a
// split: oracle counts from the reference RTTM, or the tuned constant.
func (r *Runner) speakerCounts(split string, tunedK int) (func(recordingID string) (int, error), error) {
	if r.cfg.Speakers.Mode == config.SpeakersTune {
		return func(string) (int, error) { return tunedK, nil }, nil
	}

	refPath := r.cfg.Paths.ReferenceRTTM[split]
	counts, err := rttm.OracleSpeakerCountsFile(refPath)
	if err != nil {
		return nil, fmt.Errorf("oracle speaker counts: %w", err)
	}
	return func(recordingID string) (int, error) {
		k, ok := counts[recordingID]
		if !ok {
			return 0, fmt.Errorf("%w: recording %q has no SPKR-INFO records in %s", diar.ErrData, recordingID, refPath)
		}
		return k, nil
	}, nil
}

// processSplit clusters every recording of a split into outDir and
// merges the per-recording RTTM files into sys_output.rttm.
func (r *Runner) processSplit(ctx context.Context, log *slog.Logger, split, outDir string, kFor func(string) (int, error)) (SplitReport, error) {
	recordings, err := r.store.Recordings(ctx, split)
	if err != nil {
		return SplitReport{}, fmt.Errorf("list recordings: %w", err)
	}
	if len(recordings) == 0 {
		return SplitReport{}, fmt.Errorf("split has no recordings")
	}

	results := make([]RecordingResult, len(recordings))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.Run.Workers)
	for i, rec := range recordings {
		eg.Go(func() error {
			r.metrics.WorkerStarted(egCtx)
			defer r.metrics.WorkerFinished(egCtx)

			results[i] = r.processRecording(egCtx, log, split, outDir, rec, kFor)
			if results[i].Err != nil {
				// Isolate the failure; only cancellation stops the split.
				if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
					return results[i].Err
				}
				log.Error("recording failed", "split", split, "recording", rec, "error", results[i].Err)
				r.metrics.RecordRecording(egCtx, split, "failed")
				return nil
			}
			r.metrics.RecordRecording(egCtx, split, "ok")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return SplitReport{}, err
	}

	sr := SplitReport{Split: split, Results: results}
	var produced []string
	for _, res := range results {
		if res.Err != nil {
			sr.Failed++
			continue
		}
		produced = append(produced, res.OutputPath)
	}
	if len(produced) == 0 {
		return SplitReport{}, fmt.Errorf("all %d recordings failed", len(results))
	}

	sr.OutputPath = filepath.Join(outDir, "sys_output.rttm")
	if err := rttm.Concat(sr.OutputPath, produced); err != nil {
		return SplitReport{}, fmt.Errorf("merge system output: %w", err)
	}
	log.Info("split processed",
		"split", split,
		"recordings", len(results),
		"failed", sr.Failed,
		"output", sr.OutputPath,
	)
	return sr, nil
}

// processRecording runs the clustering pipeline for one recording and
// writes its RTTM file.
func (r *Runner) processRecording(ctx context.Context, log *slog.Logger, split, outDir, recordingID string, kFor func(string) (int, error)) RecordingResult {
	res := RecordingResult{RecordingID: recordingID}

	segments, err := r.store.Load(ctx, split, recordingID)
	if err != nil {
		res.Err = fmt.Errorf("load embeddings: %w", err)
		return res
	}

	k, err := kFor(recordingID)
	if err != nil {
		res.Err = err
		return res
	}
	if k > len(segments) {
		// Short recordings cannot host more clusters than segments.
		log.Debug("clamping speaker count to segment count",
			"recording", recordingID, "speakers", k, "segments", len(segments))
		k = len(segments)
	}
	res.Speakers = k

	turns, err := r.pipeline.Diarize(ctx, segments, k)
	if err != nil {
		res.Err = err
		return res
	}
	res.Turns = len(turns)

	res.OutputPath = filepath.Join(outDir, recordingID+".rttm")
	if err := rttm.WriteFile(res.OutputPath, turns); err != nil {
		res.Err = err
		return res
	}
	return res
}

// scoreSplit scores the merged system output of a split against its
// reference RTTM.
func (r *Runner) scoreSplit(ctx context.Context, split, sysPath string) (score.Result, error) {
	return r.scorer.Score(ctx, r.cfg.Paths.ReferenceRTTM[split], sysPath, score.Options{
		IgnoreOverlap: r.cfg.Scoring.IgnoreOverlapOrDefault(),
		Collar:        r.cfg.Scoring.CollarOrDefault(),
	})
}
