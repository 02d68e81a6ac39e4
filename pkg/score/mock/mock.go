// Package mock provides a configurable test double for [score.Scorer].
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voxturn/pkg/score"
)

// Compile-time interface check.
var _ score.Scorer = (*Scorer)(nil)

// Call records the arguments of one Score invocation.
type Call struct {
	RefPath string
	SysPath string
	Opts    score.Options
}

// Scorer is a test double for [score.Scorer]. Results are served from
// [Scorer.ResultFor] keyed by system path, falling back to
// [Scorer.Result]. It is safe for concurrent use.
type Scorer struct {
	mu sync.Mutex

	// calls records every Score invocation in order.
	calls []Call

	// Result is returned by Score when no per-path override matches.
	Result score.Result

	// ResultFor overrides Result for specific system paths, letting
	// tuner tests rank candidate outputs differently.
	ResultFor map[string]score.Result

	// Err is returned by Score when non-nil.
	Err error
}

// Score implements [score.Scorer].
func (s *Scorer) Score(_ context.Context, refPath, sysPath string, opts score.Options) (score.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{RefPath: refPath, SysPath: sysPath, Opts: opts})

	if s.Err != nil {
		return score.Result{}, s.Err
	}
	if r, ok := s.ResultFor[sysPath]; ok {
		return r, nil
	}
	return s.Result, nil
}

// CallCount returns how many times Score was invoked.
func (s *Scorer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Calls returns a copy of all recorded invocations in order.
func (s *Scorer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}
