package workflow

import (
	"context"
	"errors"
	"fmt"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

type scopeEntry struct {
	name    string
	value   any
	release ReleaseFunc
}

// Scope is the LIFO stack of resources acquired by one chain.
//
// A Scope is owned by a single chain execution and is not safe for concurrent use.
type Scope struct {
	logger  Logger
	entries []scopeEntry
}

// NewScope creates an empty scope
func NewScope(logger Logger) *Scope {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &Scope{logger: logger}
}

// Enter pushes the release step of a scoped result and returns its payload.
// Plain results are returned unchanged and nothing is pushed.
func (s *Scope) Enter(name string, r Result) any {
	if !r.IsScoped() {
		return r.Value()
	}
	s.entries = append(s.entries, scopeEntry{name: name, value: r.Value(), release: r.release})
	s.logger.Debug("Entered scoped resource from '%s' (depth %d): %v", name, len(s.entries), r.Value())
	return r.Value()
}

// Len returns the number of resources currently held
func (s *Scope) Len() int {
	return len(s.entries)
}

// ReleaseAll pops and invokes every release step in reverse acquisition order.
//
// A failing release step does not stop the unwind: every step is attempted and
// the failures are returned joined under ErrRelease once the stack is empty.
func (s *Scope) ReleaseAll(ctx context.Context) error {
	var errs []error

	for len(s.entries) > 0 {
		last := len(s.entries) - 1
		entry := s.entries[last]
		s.entries = s.entries[:last]

		s.logger.Debug("Releasing resource from '%s': %v", entry.name, entry.value)
		if err := entry.release(ctx); err != nil {
			s.logger.Error("Release of '%s' failed: %v", entry.name, err)
			errs = append(errs, fmt.Errorf("release '%s': %w", entry.name, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return bmerrors.Wrap(errors.Join(errs...), bmerrors.ErrRelease, "scope unwind incomplete")
}
