package ops

import (
	"strings"
	"sync"
	"time"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/config"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/metrics"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// Sessions is the in-memory registry of live sandbox sessions. When full,
// creating a session evicts the least recently accessed one.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry

	defaultProvider string
	historyLimit    int
	max             int
	metrics         *metrics.Metrics
	now             func() time.Time
}

type sessionEntry struct {
	session  *sandbox.Session
	accessed time.Time
}

// NewSessions creates an empty registry sized by cfg.
func NewSessions(cfg *config.Config, m *metrics.Metrics) *Sessions {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Sessions{
		entries:         make(map[string]*sessionEntry),
		defaultProvider: cfg.DefaultProvider,
		historyLimit:    cfg.HistoryLimit,
		max:             cfg.MaxSessions,
		metrics:         m,
		now:             time.Now,
	}
}

// Create starts a session for providerID (the configured default when empty).
// profiles, when non-empty, replace the provider's seed profiles.
func (s *Sessions) Create(providerID string, profiles []provider.Profile) (*sandbox.Session, error) {
	providerID = strings.ToLower(strings.TrimSpace(providerID))
	if providerID == "" {
		providerID = s.defaultProvider
	}
	p, err := provider.Get(providerID)
	if err != nil {
		return nil, err
	}

	m := sandbox.NewMachine(p, sandbox.Options{
		HistoryLimit: s.historyLimit,
		Profiles:     profiles,
	})
	sess := sandbox.NewSession(sandbox.NewID(), m)

	s.mu.Lock()
	if s.max > 0 {
		for len(s.entries) >= s.max {
			s.evictOldestLocked()
		}
	}
	s.entries[sess.ID] = &sessionEntry{session: sess, accessed: s.now()}
	n := len(s.entries)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsTotal.WithLabelValues(string(p.ID())).Inc()
		s.metrics.SessionsActive.Set(float64(n))
	}
	return sess, nil
}

// Get returns the session with id and marks it as accessed.
func (s *Sessions) Get(id string) (*sandbox.Session, error) {
	id, err := requireID("session_id", id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, errors.NewNotFound("session", id)
	}
	e.accessed = s.now()
	return e.session, nil
}

// Close drops a session. Returns false if it did not exist.
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	n := len(s.entries)
	s.mu.Unlock()

	if ok && s.metrics != nil {
		s.metrics.SessionsActive.Set(float64(n))
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.accessed.Before(oldest) {
			oldestID, oldest = id, e.accessed
		}
	}
	delete(s.entries, oldestID)
}
