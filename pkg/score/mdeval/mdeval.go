// Package mdeval wraps the NIST md-eval.pl scoring script as a
// [score.Scorer].
//
// md-eval.pl is the reference implementation of the diarization error
// rate; wrapping it instead of reimplementing DER keeps results
// comparable with published numbers. The script and a perl interpreter
// must be present on the host.
package mdeval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/MrWong99/voxturn/pkg/score"
)

// Compile-time interface check.
var _ score.Scorer = (*Scorer)(nil)

// Option is a functional option for configuring a [Scorer].
type Option func(*Scorer)

// WithPerl sets the perl interpreter binary. Default: "perl".
func WithPerl(path string) Option {
	return func(s *Scorer) {
		s.perl = path
	}
}

// Scorer invokes md-eval.pl once per [Scorer.Score] call. It keeps no
// state between calls and is safe for concurrent use.
type Scorer struct {
	script string
	perl   string
}

// NewScorer returns a Scorer that runs the md-eval.pl script at
// scriptPath.
func NewScorer(scriptPath string, opts ...Option) *Scorer {
	s := &Scorer{
		script: scriptPath,
		perl:   "perl",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score implements [score.Scorer]. It shells out to md-eval.pl with the
// collar (-c) and, when overlap is ignored, the single-speaker region
// restriction (-1), then parses the component rates from its report.
func (s *Scorer) Score(ctx context.Context, refPath, sysPath string, opts score.Options) (score.Result, error) {
	args := []string{s.script, "-af"}
	if opts.IgnoreOverlap {
		args = append(args, "-1")
	}
	args = append(args,
		"-c", strconv.FormatFloat(opts.Collar, 'f', -1, 64),
		"-r", refPath,
		"-s", sysPath,
	)

	cmd := exec.CommandContext(ctx, s.perl, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return score.Result{}, fmt.Errorf("mdeval: run %s: %w (stderr: %s)", s.script, err, bytes.TrimSpace(stderr.Bytes()))
	}

	result, err := ParseReport(&stdout)
	if err != nil {
		return score.Result{}, fmt.Errorf("mdeval: %w", err)
	}
	return result, nil
}

// Report line shapes, e.g.
//
//	MISSED SPEAKER TIME =  12.96 secs ( 0.7 percent of scored speaker time)
//	OVERALL SPEAKER DIARIZATION ERROR = 21.47 percent of scored speaker time  `(ALL)
var (
	reMissed  = regexp.MustCompile(`MISSED SPEAKER TIME =.*\(\s*([\d.]+) percent`)
	reFalarm  = regexp.MustCompile(`FALARM SPEAKER TIME =.*\(\s*([\d.]+) percent`)
	reSpkrErr = regexp.MustCompile(`SPEAKER ERROR TIME =.*\(\s*([\d.]+) percent`)
	reOverall = regexp.MustCompile(`OVERALL SPEAKER DIARIZATION ERROR =\s*([\d.]+) percent`)
)

// ParseReport extracts the component error rates from an md-eval.pl
// report. The overall DER line is mandatory; a report without it means
// the script did not score anything.
func ParseReport(r io.Reader) (score.Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return score.Result{}, fmt.Errorf("read report: %w", err)
	}
	text := string(raw)

	var result score.Result
	overall := reOverall.FindStringSubmatch(text)
	if overall == nil {
		return score.Result{}, fmt.Errorf("report contains no OVERALL SPEAKER DIARIZATION ERROR line")
	}
	if result.DER, err = strconv.ParseFloat(overall[1], 64); err != nil {
		return score.Result{}, fmt.Errorf("parse overall rate %q: %w", overall[1], err)
	}

	// Component lines are informational; a partial report still yields
	// the DER.
	for _, c := range []struct {
		re  *regexp.Regexp
		dst *float64
	}{
		{reMissed, &result.MissedSpeech},
		{reFalarm, &result.FalseAlarm},
		{reSpkrErr, &result.SpeakerError},
	} {
		if m := c.re.FindStringSubmatch(text); m != nil {
			if *c.dst, err = strconv.ParseFloat(m[1], 64); err != nil {
				return score.Result{}, fmt.Errorf("parse component rate %q: %w", m[1], err)
			}
		}
	}
	return result, nil
}
