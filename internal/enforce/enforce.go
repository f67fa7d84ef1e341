// Package enforce runs an enabled rule set against a profile collection.
//
// One Apply serves every provider: a provider only contributes its
// capability table, its per-category mutators and its platform-managed
// fallbacks through the Enforcer interface.
package enforce

import (
	"fmt"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// Enforcer is what Apply needs from a provider. *provider.Provider satisfies it.
type Enforcer interface {
	ID() provider.ID
	Capability(c category.Category) (provider.Capability, error)
	Mutator(c category.Category) (provider.Mutator, bool)
	Fallback(c category.Category) (provider.Mutator, bool)
}

// ChangeDelta is one observed field mutation.
type ChangeDelta struct {
	ProfileID   string            `json:"profile_id"`
	ProfileName string            `json:"profile_name"`
	Category    category.Category `json:"category"`
	Field       string            `json:"field"`
	OldValue    any               `json:"old_value"`
	NewValue    any               `json:"new_value"`
	Description string            `json:"description"`
}

// Overrides holds per-profile rule configs, keyed by profile id then category.
// An override replaces the rule's config for that profile.
type Overrides map[string]map[category.Category]category.Config

// Clone deep-copies o.
func (o Overrides) Clone() Overrides {
	if o == nil {
		return nil
	}
	out := make(Overrides, len(o))
	for pid, byCat := range o {
		m := make(map[category.Category]category.Config, len(byCat))
		for c, cfg := range byCat {
			m[c] = cfg.Clone()
		}
		out[pid] = m
	}
	return out
}

// Set returns a copy of o with cfg stored for (profileID, c).
func (o Overrides) Set(profileID string, c category.Category, cfg category.Config) Overrides {
	out := o.Clone()
	if out == nil {
		out = Overrides{}
	}
	if out[profileID] == nil {
		out[profileID] = map[category.Category]category.Config{}
	}
	out[profileID][c] = cfg.Clone()
	return out
}

// Lookup returns the override for (profileID, c), if any.
func (o Overrides) Lookup(profileID string, c category.Category) (category.Config, bool) {
	byCat, ok := o[profileID]
	if !ok {
		return nil, false
	}
	cfg, ok := byCat[c]
	return cfg, ok
}

// Result is the outcome of one enforcement run.
type Result struct {
	Profiles        []provider.Profile `json:"profiles"`
	Changes         []ChangeDelta      `json:"changes"`
	Applied         int                `json:"applied"`
	Skipped         int                `json:"skipped"`
	PlatformManaged int                `json:"platform_managed"`
}

// Apply runs every enabled rule, in order, against a deep copy of profiles.
// The input profiles are never modified.
//
// Disabled rules are ignored. Rules for categories outside the catalog, and
// unsupported categories without a fallback, count as skipped. Fallback
// rules touch every non-adult profile and count as applied and platform
// managed. Supported rules run their mutator on each targeted profile and
// count as applied once per rule.
func Apply(e Enforcer, rules []ruleset.Rule, profiles []provider.Profile, overrides Overrides) (Result, error) {
	res := Result{
		Profiles: provider.CloneProfiles(profiles),
		Changes:  []ChangeDelta{},
	}
	if res.Profiles == nil {
		res.Profiles = []provider.Profile{}
	}

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		capability, err := e.Capability(rule.Category)
		if err != nil {
			if errors.Is(err, errors.ErrUnknownCategory) {
				res.Skipped++
				continue
			}
			return Result{}, err
		}

		if !capability.Supported {
			fallback, ok := e.Fallback(rule.Category)
			if !ok {
				res.Skipped++
				continue
			}
			if err := res.run(fallback, rule, overrides, func(t provider.ProfileType) bool {
				return t != provider.Adult
			}); err != nil {
				return Result{}, err
			}
			res.Applied++
			res.PlatformManaged++
			continue
		}

		mutate, ok := e.Mutator(rule.Category)
		if !ok {
			return Result{}, errors.NewInternal(fmt.Errorf("%s declares %s supported without a mutator", e.ID(), rule.Category))
		}
		if err := res.run(mutate, rule, overrides, capability.Targets); err != nil {
			return Result{}, err
		}
		res.Applied++
	}
	return res, nil
}

// run applies one mutator to every eligible profile and records the deltas.
func (r *Result) run(mutate provider.Mutator, rule ruleset.Rule, overrides Overrides, eligible func(provider.ProfileType) bool) error {
	for i := range r.Profiles {
		p := &r.Profiles[i]
		if !eligible(p.Type) {
			continue
		}
		cfg := rule.Config
		if o, ok := overrides.Lookup(p.ID, rule.Category); ok {
			cfg = o
		}
		changes, err := mutate(p, cfg.Clone())
		if err != nil {
			return withProfile(err, p.ID)
		}
		for _, fc := range changes {
			r.Changes = append(r.Changes, ChangeDelta{
				ProfileID:   p.ID,
				ProfileName: p.Name,
				Category:    rule.Category,
				Field:       fc.Field,
				OldValue:    fc.Old,
				NewValue:    fc.New,
				Description: fc.Description,
			})
		}
	}
	return nil
}

func withProfile(err error, profileID string) error {
	se, ok := errors.As(err)
	if !ok {
		return errors.NewInternal(err)
	}
	details := make(map[string]any, len(se.Details)+1)
	for k, v := range se.Details {
		details[k] = v
	}
	details["profile_id"] = profileID
	out := *se
	out.Details = details
	return &out
}
