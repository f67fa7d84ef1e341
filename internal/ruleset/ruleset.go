// Package ruleset builds and edits the user-facing rule toggles of a sandbox.
package ruleset

import (
	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
)

// Rule is one toggleable category. AppliesToProvider mirrors the provider
// capability's Supported flag.
type Rule struct {
	Category          category.Category `json:"category"`
	Label             string            `json:"label"`
	Description       string            `json:"description"`
	Enabled           bool              `json:"enabled"`
	Config            category.Config   `json:"config"`
	AppliesToProvider bool              `json:"applies_to_provider"`
}

// Capabilities is the part of a provider the builder needs.
type Capabilities interface {
	Capability(c category.Category) (provider.Capability, error)
}

// BuildDefault returns one disabled rule per catalog category, in catalog
// order, with the default config for each.
func BuildDefault(p Capabilities) []Rule {
	infos := category.Infos()
	rules := make([]Rule, 0, len(infos))
	for _, info := range infos {
		capability, err := p.Capability(info.ID)
		if err != nil {
			// Providers declare the whole catalog.
			panic(err)
		}
		rules = append(rules, Rule{
			Category:          info.ID,
			Label:             info.Label,
			Description:       info.Description,
			Config:            category.DefaultConfig(info.ID),
			AppliesToProvider: capability.Supported,
		})
	}
	return rules
}

// Clone deep-copies a rule set.
func Clone(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.Config = r.Config.Clone()
		out[i] = r
	}
	return out
}

// Index returns the position of the rule for c, or -1.
func Index(rules []Rule, c category.Category) int {
	for i := range rules {
		if rules[i].Category == c {
			return i
		}
	}
	return -1
}

// Find returns the rule for c.
func Find(rules []Rule, c category.Category) (Rule, error) {
	i := Index(rules, c)
	if i < 0 {
		return Rule{}, errors.NewUnknownCategory(string(c))
	}
	return rules[i], nil
}

// Toggle returns a copy of rules with the rule for c flipped.
func Toggle(rules []Rule, c category.Category) ([]Rule, error) {
	i := Index(rules, c)
	if i < 0 {
		return nil, errors.NewUnknownCategory(string(c))
	}
	out := Clone(rules)
	out[i].Enabled = !out[i].Enabled
	return out, nil
}

// SetEnabled returns a copy of rules with the rule for c set to enabled.
func SetEnabled(rules []Rule, c category.Category, enabled bool) ([]Rule, error) {
	i := Index(rules, c)
	if i < 0 {
		return nil, errors.NewUnknownCategory(string(c))
	}
	out := Clone(rules)
	out[i].Enabled = enabled
	return out, nil
}

// UpdateConfig returns a copy of rules with cfg merged into the config of
// the rule for c. Keys with a nil value are removed.
func UpdateConfig(rules []Rule, c category.Category, cfg category.Config) ([]Rule, error) {
	i := Index(rules, c)
	if i < 0 {
		return nil, errors.NewUnknownCategory(string(c))
	}
	out := Clone(rules)
	merged := out[i].Config
	if merged == nil {
		merged = category.Config{}
	}
	for k, v := range cfg.Clone() {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	out[i].Config = merged
	return out, nil
}

// Enabled returns the categories of enabled rules, in rule order.
func Enabled(rules []Rule) []category.Category {
	var out []category.Category
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r.Category)
		}
	}
	return out
}
