package runner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
)

// tuneSpeakerCount sweeps candidate speaker counts on the given split
// and returns the count with the lowest scored error rate. Candidate
// outputs land under <output_dir>/tune/<split>/k<N>/ so a sweep can be
// inspected after the run.
//
// Tuning needs a scorer; candidates that fail to process or score are
// skipped rather than aborting the sweep.
func (r *Runner) tuneSpeakerCount(ctx context.Context, log *slog.Logger, split string) (int, error) {
	if r.scorer == nil {
		return 0, fmt.Errorf("speaker tuning requires a configured scorer")
	}

	bestK, bestDER := 0, math.Inf(1)
	var lastErr error
	for k := 1; k <= r.cfg.Speakers.Max; k++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		r.metrics.RecordTunerIteration(ctx, split)

		outDir := filepath.Join(r.cfg.Paths.OutputDir, "tune", split, fmt.Sprintf("k%d", k))
		fixed := func(string) (int, error) { return k, nil }

		sr, err := r.processSplit(ctx, log, split, outDir, fixed)
		if err != nil {
			lastErr = fmt.Errorf("candidate k=%d: %w", k, err)
			log.Warn("tuner candidate failed", "split", split, "speakers", k, "error", err)
			continue
		}
		result, err := r.scoreSplit(ctx, split, sr.OutputPath)
		if err != nil {
			lastErr = fmt.Errorf("candidate k=%d: %w", k, err)
			log.Warn("tuner candidate failed to score", "split", split, "speakers", k, "error", err)
			continue
		}

		log.Debug("tuner candidate scored", "split", split, "speakers", k, "der", result.DER)
		if result.DER < bestDER {
			bestK, bestDER = k, result.DER
		}
	}
	if bestK == 0 {
		return 0, fmt.Errorf("no candidate speaker count produced a score: %w", lastErr)
	}
	return bestK, nil
}
