package diar

import (
	"fmt"
	"sort"

	"github.com/MrWong99/voxturn/pkg/types"
)

// Entry is one labelled sub-segment handed to [Reconcile]: the raw output
// of cluster assignment before any temporal cleanup.
type Entry struct {
	RecordingID string
	Start       float64
	End         float64
	SpeakerID   string
}

// Reconcile converts labelled sub-segments into a minimal set of
// continuous, non-overlapping speaker turns.
//
// Entries are sorted by start time (stable, so ties keep their original
// order) and processed in two deterministic passes:
//
//  1. Merge: consecutive entries with the same speaker whose intervals
//     touch or overlap (next.Start <= current.End) are collapsed into one
//     turn spanning [min(start), max(end)].
//  2. Overlap split: where two adjacent turns of different speakers still
//     overlap, both are truncated to the midpoint of the contested
//     interval, so no instant is attributed to two speakers.
//
// The output is strictly time-ordered and pairwise non-overlapping, and
// the union of output intervals equals the union of input intervals —
// merge and split neither invent nor drop covered time.
//
// Returns [ErrData] if entries reference more than one recording (callers
// must reconcile per recording) or if any entry has End <= Start.
func Reconcile(entries []Entry) ([]types.Turn, error) {
	if len(entries) == 0 {
		return []types.Turn{}, nil
	}

	recID := entries[0].RecordingID
	for _, e := range entries {
		if e.RecordingID != recID {
			return nil, fmt.Errorf("%w: entries span recordings %q and %q, reconcile one recording at a time",
				ErrData, recID, e.RecordingID)
		}
		if e.End <= e.Start {
			return nil, fmt.Errorf("%w: entry [%v, %v] for speaker %q has non-positive duration",
				ErrData, e.Start, e.End, e.SpeakerID)
		}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := mergeSameSpeaker(sorted)
	split := distributeOverlap(merged)

	turns := make([]types.Turn, len(split))
	for i, e := range split {
		turns[i] = types.Turn{
			RecordingID: e.RecordingID,
			Start:       e.Start,
			End:         e.End,
			SpeakerID:   e.SpeakerID,
		}
	}
	return turns, nil
}

// mergeSameSpeaker collapses runs of same-speaker entries whose intervals
// touch or overlap. Input must be sorted by start time. Applying it to
// already-merged output is a no-op.
func mergeSameSpeaker(sorted []Entry) []Entry {
	var out []Entry
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.SpeakerID == cur.SpeakerID && next.Start <= cur.End {
			if next.End > cur.End {
				cur.End = next.End
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

// distributeOverlap resolves residual overlap between adjacent turns of
// different speakers by truncating both at the midpoint of the overlap.
// Input must be sorted by start time and same-speaker merged.
func distributeOverlap(merged []Entry) []Entry {
	out := make([]Entry, 0, len(merged))
	cur := merged[0]
	for _, next := range merged[1:] {
		if next.Start < cur.End {
			mid := (next.Start + cur.End) / 2
			cur.End = mid
			next.Start = mid
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}
