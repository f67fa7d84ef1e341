// Package scenario loads YAML simulation scenarios for headless runs.
//
// A scenario names a provider, optionally replaces its seed profiles, and
// lists the rules to enable with their config:
//
//	provider: netflix
//	rules:
//	  - category: content_rating
//	    config: {maxRating: PG}
//	  - category: time_daily_limit
//	overrides:
//	  nf-teen:
//	    content_rating: {maxRating: PG-13}
//	commit: true
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// RuleSpec enables one rule. A nil Config keeps the default config.
type RuleSpec struct {
	Category string         `yaml:"category"`
	Config   map[string]any `yaml:"config,omitempty"`
}

// Scenario is one YAML scenario file.
type Scenario struct {
	Name      string                               `yaml:"name,omitempty"`
	Provider  string                               `yaml:"provider,omitempty"`
	Profiles  []provider.Profile                   `yaml:"profiles,omitempty"`
	Rules     []RuleSpec                           `yaml:"rules"`
	Overrides map[string]map[string]map[string]any `yaml:"overrides,omitempty"`
	Commit    bool                                 `yaml:"commit,omitempty"`
}

// Plan is a scenario resolved against a provider.
type Plan struct {
	Provider  *provider.Provider
	Profiles  []provider.Profile
	Rules     []ruleset.Rule
	Overrides enforce.Overrides
	Commit    bool
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("scenario", path)
		}
		return nil, errors.NewInternal(fmt.Errorf("read scenario: %w", err))
	}
	return Parse(data)
}

// Parse decodes scenario YAML. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid scenario: %v", err))
	}
	return &s, nil
}

// Resolve turns the scenario into a runnable plan. defaultProvider is used
// when the scenario names none.
func (s *Scenario) Resolve(defaultProvider string) (*Plan, error) {
	id := s.Provider
	if id == "" {
		id = defaultProvider
	}
	p, err := provider.Get(id)
	if err != nil {
		return nil, err
	}

	profiles := p.DefaultProfiles()
	if len(s.Profiles) > 0 {
		profiles = provider.CloneProfiles(s.Profiles)
		seen := make(map[string]bool, len(profiles))
		for i := range profiles {
			pr := &profiles[i]
			if pr.ID == "" {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("profile %d has no id", i))
			}
			if seen[pr.ID] {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("duplicate profile id %q", pr.ID))
			}
			seen[pr.ID] = true
			t, err := provider.ParseProfileType(string(pr.Type))
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("profile %s: %v", pr.ID, err))
			}
			pr.Type = t
			if pr.MaturityRating != "" {
				tier, err := p.Ladder().Resolve(pr.MaturityRating)
				if err != nil {
					return nil, errors.NewInvalidRequest(fmt.Sprintf("profile %s: %v", pr.ID, err))
				}
				pr.MaturityRating = tier
			}
		}
	}

	rules := ruleset.BuildDefault(p)
	for _, spec := range s.Rules {
		c := category.Category(spec.Category)
		if rules, err = ruleset.SetEnabled(rules, c, true); err != nil {
			return nil, err
		}
		if spec.Config != nil {
			if rules, err = ruleset.UpdateConfig(rules, c, category.Config(spec.Config)); err != nil {
				return nil, err
			}
		}
	}

	var overrides enforce.Overrides
	for profileID, byCat := range s.Overrides {
		if provider.FindProfile(profiles, profileID) < 0 {
			return nil, errors.NewNotFound("profile", profileID)
		}
		for cat, cfg := range byCat {
			c := category.Category(cat)
			if !category.Valid(c) {
				return nil, errors.NewUnknownCategory(cat)
			}
			overrides = overrides.Set(profileID, c, category.Config(cfg))
		}
	}

	return &Plan{
		Provider:  p,
		Profiles:  profiles,
		Rules:     rules,
		Overrides: overrides,
		Commit:    s.Commit,
	}, nil
}
