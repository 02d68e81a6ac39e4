// Package embedstore defines the storage interface for pre-computed
// speaker embeddings, grouped by dataset split and recording.
//
// Two implementations exist: [github.com/MrWong99/voxturn/pkg/embedstore/file]
// reads JSONL exports from disk, and
// [github.com/MrWong99/voxturn/pkg/embedstore/postgres] serves embeddings
// from a pgvector-enabled PostgreSQL database.
package embedstore

import (
	"context"
	"errors"

	"github.com/MrWong99/voxturn/pkg/types"
)

// ErrRecordingNotFound is returned by [Store.Load] when the requested
// recording has no stored segments in the given split.
var ErrRecordingNotFound = errors.New("embedstore: recording not found")

// Store provides read access to embedded segments. Implementations must
// be safe for concurrent use; the batch runner loads recordings from
// multiple goroutines.
type Store interface {
	// Recordings lists the recording IDs available in a split, sorted
	// ascending for stable iteration order.
	Recordings(ctx context.Context, split string) ([]string, error)

	// Load returns all embedded segments of one recording in a split,
	// ordered by onset. It returns [ErrRecordingNotFound] when the
	// recording is absent.
	Load(ctx context.Context, split, recordingID string) ([]types.Segment, error)
}
