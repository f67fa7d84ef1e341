// Package sandbox holds the preview/commit/discard state machine of one
// simulation session.
package sandbox

import (
	"time"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// Phase is where a session is in the preview protocol.
type Phase string

const (
	// Idle has no preview pending.
	Idle Phase = "idle"
	// Computing has started a preview whose result has not arrived yet.
	Computing Phase = "computing"
	// Previewing holds an enforcement result awaiting commit or discard.
	Previewing Phase = "previewing"
)

// Preview is the pending enforcement result. A state carries either a full
// Preview or none.
type Preview struct {
	PreviousProfiles []provider.Profile    `json:"previous_profiles"`
	Profiles         []provider.Profile    `json:"profiles"`
	Changes          []enforce.ChangeDelta `json:"changes"`
	Applied          int                   `json:"applied"`
	Skipped          int                   `json:"skipped"`
	PlatformManaged  int                   `json:"platform_managed"`
}

// Snapshot is one committed enforcement run. Snapshots are never modified
// once appended to history.
type Snapshot struct {
	ID              string                `json:"id"`
	Provider        provider.ID           `json:"provider"`
	Timestamp       time.Time             `json:"timestamp"`
	Profiles        []provider.Profile    `json:"profiles"`
	Changes         []enforce.ChangeDelta `json:"changes"`
	Applied         int                   `json:"applied"`
	Skipped         int                   `json:"skipped"`
	PlatformManaged int                   `json:"platform_managed"`
}

// State is the whole sandbox aggregate.
type State struct {
	Provider  provider.ID        `json:"provider"`
	Phase     Phase              `json:"phase"`
	Profiles  []provider.Profile `json:"profiles"`
	Rules     []ruleset.Rule     `json:"rules"`
	Overrides enforce.Overrides  `json:"overrides,omitempty"`
	Preview   *Preview           `json:"preview,omitempty"`
	History   []Snapshot         `json:"history"`
}

// IsComputing reports whether an enforcement run is in flight.
func (s State) IsComputing() bool { return s.Phase == Computing }

// Clone deep-copies the mutable parts of s. Snapshots in History are shared
// since they are immutable. Empty lists stay empty rather than nil so they
// encode as [].
func (s State) Clone() State {
	out := s
	out.Profiles = provider.CloneProfiles(s.Profiles)
	out.Rules = ruleset.Clone(s.Rules)
	out.Overrides = s.Overrides.Clone()
	if s.Preview != nil {
		p := *s.Preview
		p.PreviousProfiles = provider.CloneProfiles(p.PreviousProfiles)
		p.Profiles = provider.CloneProfiles(p.Profiles)
		p.Changes = append(make([]enforce.ChangeDelta, 0, len(p.Changes)), p.Changes...)
		out.Preview = &p
	}
	out.History = append(make([]Snapshot, 0, len(s.History)), s.History...)
	return out
}

// Snapshot returns the committed snapshot with the given id.
func (s State) Snapshot(id string) (Snapshot, bool) {
	for _, snap := range s.History {
		if snap.ID == id {
			return snap, true
		}
	}
	return Snapshot{}, false
}

// Latest returns the most recent committed snapshot.
func (s State) Latest() (Snapshot, bool) {
	if len(s.History) == 0 {
		return Snapshot{}, false
	}
	return s.History[len(s.History)-1], true
}
