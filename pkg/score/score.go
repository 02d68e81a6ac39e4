// Package score defines the interface for diarization scoring.
//
// Scoring compares a system RTTM against a reference RTTM and reports
// the diarization error rate and its components. The reference scorer is
// the NIST md-eval.pl tool, wrapped by
// [github.com/MrWong99/voxturn/pkg/score/mdeval]; the clustering code
// itself never computes DER.
package score

import "context"

// Result holds the component error rates of one scoring run, each as a
// percentage of scored speaker time.
type Result struct {
	// MissedSpeech is reference speech the system left unattributed.
	MissedSpeech float64

	// FalseAlarm is system speech outside any reference speech region.
	FalseAlarm float64

	// SpeakerError is speech attributed to the wrong speaker under the
	// optimal reference/system speaker mapping.
	SpeakerError float64

	// DER is the overall diarization error rate, the sum of the three
	// components as computed by the scoring tool.
	DER float64
}

// Options controls how strictly a scoring run judges boundaries.
type Options struct {
	// IgnoreOverlap excludes regions where the reference has more than
	// one active speaker, the common single-speaker evaluation setup.
	IgnoreOverlap bool

	// Collar is the no-score zone in seconds around every reference
	// boundary, forgiving small annotation offsets. 0.25 is customary.
	Collar float64
}

// Scorer scores one system output against one reference. Implementations
// must be safe for concurrent use; the tuner scores candidate runs in
// parallel.
type Scorer interface {
	// Score evaluates the system RTTM at sysPath against the reference
	// RTTM at refPath.
	Score(ctx context.Context, refPath, sysPath string, opts Options) (Result, error)
}
