package sandbox

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// DefaultHistoryLimit bounds committed snapshots when Options leaves it unset.
const DefaultHistoryLimit = 50

// Options tunes a Machine. Zero values pick defaults.
type Options struct {
	HistoryLimit int
	Now          func() time.Time
	NewID        func() string

	// Profiles replaces the provider seed profiles as the initial profiles.
	Profiles []provider.Profile
}

// Machine is the reducer for one provider. It holds no session state.
type Machine struct {
	provider     *provider.Provider
	historyLimit int
	now          func() time.Time
	newID        func() string
	seed         []provider.Profile
}

// NewMachine builds a reducer for p.
func NewMachine(p *provider.Provider, opts Options) *Machine {
	m := &Machine{
		provider:     p,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
		newID:        opts.NewID,
		seed:         provider.CloneProfiles(opts.Profiles),
	}
	if m.historyLimit <= 0 {
		m.historyLimit = DefaultHistoryLimit
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = NewID
	}
	return m
}

// NewID returns a fresh ULID string.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Provider returns the provider the machine enforces for.
func (m *Machine) Provider() *provider.Provider { return m.provider }

// Initial returns the provider defaults: seed profiles, all rules disabled,
// no preview, empty history.
func (m *Machine) Initial() State {
	profiles := m.provider.DefaultProfiles()
	if len(m.seed) > 0 {
		profiles = provider.CloneProfiles(m.seed)
	}
	return State{
		Provider: m.provider.ID(),
		Phase:    Idle,
		Profiles: profiles,
		Rules:    ruleset.BuildDefault(m.provider),
		History:  []Snapshot{},
	}
}

// Dispatch applies a to s and returns the next state. s is never modified.
// Actions that are not valid in the current phase return INVALID_TRANSITION.
func (m *Machine) Dispatch(s State, a Action) (State, error) {
	switch a := a.(type) {
	case ToggleRule:
		rules, err := ruleset.Toggle(s.Rules, a.Category)
		if err != nil {
			return s, err
		}
		next := s.Clone()
		next.Rules = rules
		return next, nil

	case UpdateRuleConfig:
		rules, err := ruleset.UpdateConfig(s.Rules, a.Category, a.Config)
		if err != nil {
			return s, err
		}
		next := s.Clone()
		next.Rules = rules
		return next, nil

	case UpdateProfileRuleConfig:
		if !category.Valid(a.Category) {
			return s, errors.NewUnknownCategory(string(a.Category))
		}
		if provider.FindProfile(s.Profiles, a.ProfileID) < 0 {
			return s, errors.NewNotFound("profile", a.ProfileID)
		}
		next := s.Clone()
		next.Overrides = s.Overrides.Set(a.ProfileID, a.Category, a.Config)
		return next, nil

	case PreviewStart:
		if s.Phase != Idle {
			return s, errors.NewInvalidTransition(a.Name(), string(s.Phase))
		}
		next := s.Clone()
		next.Phase = Computing
		return next, nil

	case PreviewComplete:
		if s.Phase != Computing {
			return s, errors.NewInvalidTransition(a.Name(), string(s.Phase))
		}
		next := s.Clone()
		next.Phase = Previewing
		next.Preview = &Preview{
			PreviousProfiles: provider.CloneProfiles(s.Profiles),
			Profiles:         provider.CloneProfiles(a.Result.Profiles),
			Changes:          append([]enforce.ChangeDelta{}, a.Result.Changes...),
			Applied:          a.Result.Applied,
			Skipped:          a.Result.Skipped,
			PlatformManaged:  a.Result.PlatformManaged,
		}
		return next, nil

	case Commit:
		if s.Phase != Previewing || s.Preview == nil {
			return s, errors.NewInvalidTransition(a.Name(), string(s.Phase))
		}
		next := s.Clone()
		snap := Snapshot{
			ID:              m.newID(),
			Provider:        m.provider.ID(),
			Timestamp:       m.now().UTC(),
			Profiles:        provider.CloneProfiles(s.Preview.Profiles),
			Changes:         append([]enforce.ChangeDelta{}, s.Preview.Changes...),
			Applied:         s.Preview.Applied,
			Skipped:         s.Preview.Skipped,
			PlatformManaged: s.Preview.PlatformManaged,
		}
		next.Profiles = provider.CloneProfiles(s.Preview.Profiles)
		next.History = append(next.History, snap)
		if over := len(next.History) - m.historyLimit; over > 0 {
			next.History = append([]Snapshot(nil), next.History[over:]...)
		}
		next.Preview = nil
		next.Phase = Idle
		return next, nil

	case Discard:
		if s.Phase != Previewing {
			return s, errors.NewInvalidTransition(a.Name(), string(s.Phase))
		}
		next := s.Clone()
		next.Preview = nil
		next.Phase = Idle
		return next, nil

	case Reset:
		return m.Initial(), nil

	default:
		return s, errors.NewInvalidRequest(fmt.Sprintf("unknown action %T", a))
	}
}
