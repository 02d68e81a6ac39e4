// Package types defines the shared types used across all voxturn packages.
//
// These types form the lingua franca between the embedding store, the
// clustering core, the reconciler, and the RTTM serializer. They are
// intentionally minimal — each package defines its own domain types, but
// cross-cutting data structures live here to avoid circular imports.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one oracle-VAD segment of a recording together with the
// embedding vector produced for it by the external extraction step.
//
// Segments are immutable once loaded. Start and End are in seconds from the
// beginning of the recording. The embedding dimension is fixed per run and
// determined by the external model; all segments of a run share it.
type Segment struct {
	// RecordingID identifies the recording this segment belongs to.
	RecordingID string

	// Start is the segment start time in seconds.
	Start float64

	// End is the segment end time in seconds. Always > Start for valid data.
	End float64

	// Embedding is the fixed-length speaker embedding for this segment.
	Embedding []float32
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 { return s.End - s.Start }

// ID returns the canonical segment identifier <recording>_<start>_<end>,
// the key format used by the external embedding store.
func (s Segment) ID() string {
	return fmt.Sprintf("%s_%.2f_%.2f", s.RecordingID, s.Start, s.End)
}

// Turn is one continuous speaker turn produced by the reconciler.
//
// Within a recording, reconciled turns are strictly time-ordered and
// pairwise non-overlapping. A Turn exists between reconciliation and
// serialization; it carries no embedding data.
type Turn struct {
	// RecordingID identifies the recording this turn belongs to.
	RecordingID string

	// Start is the turn start time in seconds.
	Start float64

	// End is the turn end time in seconds.
	End float64

	// SpeakerID names the speaker. Cluster-derived speakers use the form
	// <recording>_<label>; the label namespace is scoped to one recording
	// and carries no meaning across recordings.
	SpeakerID string
}

// Duration returns the turn length in seconds.
func (t Turn) Duration() float64 { return t.End - t.Start }

// Overlaps reports whether t and o overlap as open intervals. Turns that
// merely touch at a boundary do not overlap.
func (t Turn) Overlaps(o Turn) bool {
	return t.Start < o.End && o.Start < t.End
}

// ParseSegmentID splits a segment identifier of the form
// <recording>_<start>_<end> into its parts. The recording ID itself may
// contain underscores, so the identifier is split on the last two
// underscores only.
//
// Callers that already know the recording ID should prefer threading it
// explicitly and treating the identifier as a plain (start, end) pair;
// ParseSegmentID exists for readers that only have the key.
func ParseSegmentID(id string) (recordingID string, start, end float64, err error) {
	last := strings.LastIndex(id, "_")
	if last <= 0 {
		return "", 0, 0, fmt.Errorf("types: segment id %q: missing time fields", id)
	}
	second := strings.LastIndex(id[:last], "_")
	if second <= 0 {
		return "", 0, 0, fmt.Errorf("types: segment id %q: missing time fields", id)
	}

	recordingID = id[:second]
	start, err = strconv.ParseFloat(id[second+1:last], 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("types: segment id %q: bad start: %w", id, err)
	}
	end, err = strconv.ParseFloat(id[last+1:], 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("types: segment id %q: bad end: %w", id, err)
	}
	return recordingID, start, end, nil
}
