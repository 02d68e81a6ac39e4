// Package file implements an [embedstore.Store] over JSONL exports on
// disk, the format the embedding extraction step writes.
//
// Layout: one file per recording under a per-split directory,
//
//	<root>/<split>/<recording>.jsonl
//
// with one JSON object per line:
//
//	{"id":"ES2011a_0.00_2.00","start":0,"end":2,"embedding":[…]}
//
// The recording ID comes from the file name; the per-line "id" field is
// only consulted as a fallback when start/end are absent.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrWong99/voxturn/pkg/embedstore"
	"github.com/MrWong99/voxturn/pkg/types"
)

// Compile-time interface check.
var _ embedstore.Store = (*Store)(nil)

// Store reads embedded segments from JSONL files under a root directory.
// It holds no open file handles between calls and is safe for concurrent
// use.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The directory must exist.
func NewStore(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file store: %s is not a directory", dir)
	}
	return &Store{root: dir}, nil
}

// segmentRecord is the on-disk JSONL schema. Start/End of zero with a
// non-empty ID means the times are encoded in the ID only.
type segmentRecord struct {
	ID        string    `json:"id,omitempty"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	Embedding []float32 `json:"embedding"`
}

// Recordings implements [embedstore.Store]. A missing split directory is
// an empty split, not an error.
func (s *Store) Recordings(_ context.Context, split string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, split))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file store: list split %s: %w", split, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Load implements [embedstore.Store].
func (s *Store) Load(_ context.Context, split, recordingID string) ([]types.Segment, error) {
	path := filepath.Join(s.root, split, recordingID+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file store: %s/%s: %w", split, recordingID, embedstore.ErrRecordingNotFound)
		}
		return nil, fmt.Errorf("file store: open %s: %w", path, err)
	}
	defer f.Close()

	var segments []types.Segment
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec segmentRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("file store: %s line %d: %w", path, line, err)
		}

		seg := types.Segment{
			RecordingID: recordingID,
			Start:       rec.Start,
			End:         rec.End,
			Embedding:   rec.Embedding,
		}
		if seg.End <= seg.Start && rec.ID != "" {
			_, start, end, err := types.ParseSegmentID(rec.ID)
			if err != nil {
				return nil, fmt.Errorf("file store: %s line %d: %w", path, line, err)
			}
			seg.Start, seg.End = start, end
		}
		segments = append(segments, seg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("file store: scan %s: %w", path, err)
	}

	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments, nil
}
