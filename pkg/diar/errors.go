package diar

import "errors"

// Error taxonomy of the clustering core. Both sentinels are wrapped with
// context at the failure site; callers match with [errors.Is].
//
// Configuration and data errors abort only the recording they affect —
// the batch runner isolates them per recording and keeps going. Numerical
// conditions (a disconnected affinity graph) are warnings, never errors.
var (
	// ErrConfig marks an invalid parameter combination: a neighbor count
	// below 1, fewer than 2 segments, or more clusters than points.
	ErrConfig = errors.New("diar: invalid configuration")

	// ErrData marks malformed input data: entries spanning multiple
	// recordings in a single call, or zero-duration / inverted intervals.
	ErrData = errors.New("diar: invalid data")
)
