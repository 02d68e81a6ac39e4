// Package mock provides an in-memory test double for [embedstore.Store].
//
// The mock records every method call for assertion in tests and exposes
// exported fields that control what it returns. It is safe for
// concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	store := &mock.Store{}
//	store.Segments = map[string][]types.Segment{"dev/ES2011a": segs}
//
//	// inject store into the system under test …
//
//	if got := store.CallCount("Load"); got != 1 {
//	    t.Errorf("expected 1 Load call, got %d", got)
//	}
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/MrWong99/voxturn/pkg/embedstore"
	"github.com/MrWong99/voxturn/pkg/types"
)

// Compile-time interface check.
var _ embedstore.Store = (*Store)(nil)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// Store is a configurable test double for [embedstore.Store]. Populate
// [Store.Segments] with "<split>/<recording>" keys; Recordings and Load
// both derive their answers from it.
type Store struct {
	mu sync.Mutex

	// calls records every method invocation in order.
	calls []Call

	// Segments maps "<split>/<recording>" to the segments Load returns.
	Segments map[string][]types.Segment

	// RecordingsErr is returned by [Store.Recordings] when non-nil.
	RecordingsErr error

	// LoadErr is returned by [Store.Load] when non-nil. It takes
	// precedence over the not-found error for absent recordings.
	LoadErr error
}

// Recordings implements [embedstore.Store].
func (s *Store) Recordings(_ context.Context, split string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "Recordings", Args: []any{split}})

	if s.RecordingsErr != nil {
		return nil, s.RecordingsErr
	}
	var ids []string
	prefix := split + "/"
	for key := range s.Segments {
		if strings.HasPrefix(key, prefix) {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load implements [embedstore.Store].
func (s *Store) Load(_ context.Context, split, recordingID string) ([]types.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "Load", Args: []any{split, recordingID}})

	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	segs, ok := s.Segments[split+"/"+recordingID]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", split, recordingID, embedstore.ErrRecordingNotFound)
	}
	out := make([]types.Segment, len(segs))
	copy(out, segs)
	return out, nil
}

// CallCount returns how many times the named method was invoked.
func (s *Store) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Calls returns a copy of all recorded invocations in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}
