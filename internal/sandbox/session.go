package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
)

// Session owns one sandbox state. All access goes through its lock, so a
// session may be shared between request goroutines, but sessions never share
// state with each other.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	machine  *Machine
	state    State
	lastUsed time.Time
	runs     int
}

// NewSession starts a session at the machine's initial state.
func NewSession(id string, m *Machine) *Session {
	now := m.now()
	return &Session{
		ID:        id,
		CreatedAt: now.UTC(),
		machine:   m,
		state:     m.Initial(),
		lastUsed:  now,
	}
}

// Provider returns the session's provider.
func (s *Session) Provider() *provider.Provider { return s.machine.provider }

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// LastUsed is the time of the last dispatch.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Dispatch applies a and returns a copy of the resulting state.
func (s *Session) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Session) dispatchLocked(a Action) (State, error) {
	next, err := s.machine.Dispatch(s.state, a)
	if err != nil {
		return s.state.Clone(), err
	}
	s.state = next
	s.lastUsed = s.machine.now()
	return s.state.Clone(), nil
}

// Preview runs PREVIEW_START, the enforcement engine and PREVIEW_COMPLETE.
// delay is cosmetic pacing between start and completion; the lock is released
// while it runs so State stays readable. If the engine fails or ctx ends
// during the delay, the session returns to idle.
func (s *Session) Preview(ctx context.Context, delay time.Duration) (State, error) {
	s.mu.Lock()
	before := s.state
	started, err := s.dispatchLocked(PreviewStart{})
	if err != nil {
		s.mu.Unlock()
		return started, err
	}
	s.runs++
	run := s.runs

	res, err := enforce.Apply(s.machine.provider, started.Rules, started.Profiles, started.Overrides)
	if err != nil {
		s.state = before
		out := s.state.Clone()
		s.mu.Unlock()
		return out, err
	}
	if delay <= 0 {
		defer s.mu.Unlock()
		return s.dispatchLocked(PreviewComplete{Result: res})
	}
	s.mu.Unlock()

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A reset or a newer preview may have taken over while unlocked.
	if s.runs != run || s.state.Phase != Computing {
		if ctx.Err() != nil {
			return s.state.Clone(), ctx.Err()
		}
		return s.state.Clone(), errors.NewInvalidTransition(PreviewComplete{}.Name(), string(s.state.Phase))
	}
	if err := ctx.Err(); err != nil {
		next := s.state.Clone()
		next.Phase = Idle
		s.state = next
		return s.state.Clone(), err
	}
	return s.dispatchLocked(PreviewComplete{Result: res})
}
