package rttm_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/voxturn/pkg/rttm"
	"github.com/MrWong99/voxturn/pkg/types"
)

func sampleTurns() []types.Turn {
	return []types.Turn{
		{RecordingID: "ES2011a", Start: 0, End: 2.5, SpeakerID: "ES2011a_0"},
		{RecordingID: "ES2011a", Start: 2.5, End: 4.125, SpeakerID: "ES2011a_1"},
	}
}

func TestWriteTurns_Format(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	if err := rttm.WriteTurns(&sb, sampleTurns()); err != nil {
		t.Fatalf("WriteTurns: %v", err)
	}

	want := "SPEAKER ES2011a 1 0.000 2.500 <NA> <NA> ES2011a_0 <NA> <NA>\n" +
		"SPEAKER ES2011a 1 2.500 1.625 <NA> <NA> ES2011a_1 <NA> <NA>\n"
	if got := sb.String(); got != want {
		t.Errorf("output:\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteTurns_MillisecondRounding(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	turns := []types.Turn{{RecordingID: "r", Start: 1.23456, End: 2.99999, SpeakerID: "r_0"}}
	if err := rttm.WriteTurns(&sb, turns); err != nil {
		t.Fatalf("WriteTurns: %v", err)
	}
	if got, want := sb.String(), "SPEAKER r 1 1.235 1.765 <NA> <NA> r_0 <NA> <NA>\n"; got != want {
		t.Errorf("output %q, want %q", got, want)
	}
}

func TestReadTurns_RoundTrip(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	if err := rttm.WriteTurns(&sb, sampleTurns()); err != nil {
		t.Fatalf("WriteTurns: %v", err)
	}

	got, err := rttm.ReadTurns(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ReadTurns: %v", err)
	}
	want := sampleTurns()
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadTurns_SkipsNonSpeakerRecords(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"SPKR-INFO ES2011a 1 <NA> <NA> <NA> unknown FEE041 <NA> <NA>",
		"",
		"SPEAKER ES2011a 1 0.000 1.000 <NA> <NA> FEE041 <NA> <NA>",
		"NON-LEX ES2011a 1 1.000 0.200 <NA> laugh FEE041 <NA> <NA>",
	}, "\n")

	turns, err := rttm.ReadTurns(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].SpeakerID != "FEE041" {
		t.Errorf("turns = %+v, want exactly the one SPEAKER record", turns)
	}
}

func TestReadTurns_MalformedRecord(t *testing.T) {
	t.Parallel()

	if _, err := rttm.ReadTurns(strings.NewReader("SPEAKER ES2011a 1 0.000\n")); err == nil {
		t.Error("short SPEAKER record accepted, want error")
	}
	if _, err := rttm.ReadTurns(strings.NewReader("SPEAKER ES2011a 1 zero 1.0 <NA> <NA> a <NA> <NA>\n")); err == nil {
		t.Error("unparsable onset accepted, want error")
	}
}

func TestOracleSpeakerCounts(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"SPKR-INFO ES2011a 1 <NA> <NA> <NA> unknown FEE041 <NA> <NA>",
		"SPKR-INFO ES2011a 1 <NA> <NA> <NA> unknown FEE042 <NA> <NA>",
		"SPKR-INFO ES2011a 1 <NA> <NA> <NA> unknown FEE041 <NA> <NA>",
		"SPKR-INFO IS1008b 1 <NA> <NA> <NA> unknown MIO086 <NA> <NA>",
		"SPEAKER ES2011a 1 0.000 1.000 <NA> <NA> FEE041 <NA> <NA>",
	}, "\n")

	counts, err := rttm.OracleSpeakerCounts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("OracleSpeakerCounts: %v", err)
	}
	if got := counts["ES2011a"]; got != 2 {
		t.Errorf("ES2011a count = %d, want 2 (duplicates collapse)", got)
	}
	if got := counts["IS1008b"]; got != 1 {
		t.Errorf("IS1008b count = %d, want 1", got)
	}
	if _, ok := counts["EN2002a"]; ok {
		t.Error("count present for recording with no SPKR-INFO records")
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "ES2011a.rttm")
	if err := rttm.WriteFile(path, sampleTurns()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	turns, err := rttm.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(turns) != 2 {
		t.Errorf("len(turns) = %d, want 2", len(turns))
	}
}

func TestConcat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.rttm")
	b := filepath.Join(dir, "b.rttm")
	if err := os.WriteFile(a, []byte("SPEAKER a 1 0.000 1.000 <NA> <NA> a_0 <NA> <NA>\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("SPEAKER b 1 0.000 2.000 <NA> <NA> b_0 <NA> <NA>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "merged", "sys_output.rttm")
	if err := rttm.Concat(dst, []string{a, b}); err != nil {
		t.Fatalf("Concat: %v", err)
	}

	merged, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	want := "SPEAKER a 1 0.000 1.000 <NA> <NA> a_0 <NA> <NA>\n" +
		"SPEAKER b 1 0.000 2.000 <NA> <NA> b_0 <NA> <NA>\n"
	if string(merged) != want {
		t.Errorf("merged output:\n%q\nwant:\n%q", merged, want)
	}
}
