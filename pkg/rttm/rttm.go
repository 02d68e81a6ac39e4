// Package rttm reads and writes Rich Transcription Time Marked files,
// the exchange format consumed by diarization scoring tools.
//
// Only SPEAKER records are produced. The reader is tolerant: records of
// other types (SPKR-INFO, NON-SPEECH, …) are skipped rather than
// rejected, so reference files from annotation pipelines load as-is.
package rttm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrWong99/voxturn/pkg/types"
)

// WriteTurns serializes turns as SPEAKER records in input order.
//
// Each record carries the recording ID, channel 1, onset and duration
// with millisecond precision, and the speaker label. The remaining RTTM
// slots are not applicable to diarization output and stay <NA>.
func WriteTurns(w io.Writer, turns []types.Turn) error {
	bw := bufio.NewWriter(w)
	for _, turn := range turns {
		_, err := fmt.Fprintf(bw, "SPEAKER %s 1 %.3f %.3f <NA> <NA> %s <NA> <NA>\n",
			turn.RecordingID, turn.Start, turn.Duration(), turn.SpeakerID)
		if err != nil {
			return fmt.Errorf("write SPEAKER record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

// WriteFile writes turns to path, creating parent directories as needed.
func WriteFile(path string, turns []types.Turn) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTurns(f, turns); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ReadTurns parses SPEAKER records from r. Records of any other type and
// blank lines are skipped. A SPEAKER record with fewer than 8 fields or
// unparsable onset/duration is an error.
func ReadTurns(r io.Reader) ([]types.Turn, error) {
	var turns []types.Turn
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "SPEAKER" {
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("line %d: SPEAKER record has %d fields, want at least 8", line, len(fields))
		}
		start, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse onset %q: %w", line, fields[3], err)
		}
		dur, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse duration %q: %w", line, fields[4], err)
		}
		turns = append(turns, types.Turn{
			RecordingID: fields[1],
			Start:       start,
			End:         start + dur,
			SpeakerID:   fields[7],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return turns, nil
}

// ReadFile parses SPEAKER records from the file at path.
func ReadFile(path string) ([]types.Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	turns, err := ReadTurns(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return turns, nil
}

// OracleSpeakerCounts extracts the number of distinct speakers per
// recording from SPKR-INFO records in a reference RTTM. Recordings
// without SPKR-INFO records are absent from the result.
func OracleSpeakerCounts(r io.Reader) (map[string]int, error) {
	speakers := make(map[string]map[string]bool)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "SPKR-INFO" {
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("line %d: SPKR-INFO record has %d fields, want at least 8", line, len(fields))
		}
		rec, name := fields[1], fields[7]
		if speakers[rec] == nil {
			speakers[rec] = make(map[string]bool)
		}
		speakers[rec][name] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	counts := make(map[string]int, len(speakers))
	for rec, names := range speakers {
		counts[rec] = len(names)
	}
	return counts, nil
}

// OracleSpeakerCountsFile extracts per-recording speaker counts from the
// reference RTTM at path.
func OracleSpeakerCountsFile(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	counts, err := OracleSpeakerCounts(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return counts, nil
}

// Concat appends the contents of each source file to dst in order,
// producing the merged system output scoring tools expect. Sources are
// copied verbatim; no parsing or reordering happens.
func Concat(dst string, sources []string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	for _, src := range sources {
		in, err := os.Open(src)
		if err != nil {
			out.Close()
			return fmt.Errorf("open %s: %w", src, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return fmt.Errorf("append %s: %w", src, err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
