// Package provider declares, per streaming provider, which catalog categories
// it can enforce and how each enforceable category mutates a profile.
package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
)

// ID identifies a provider.
type ID string

const (
	Netflix    ID = "netflix"
	DisneyPlus ID = "disneyplus"
)

// Capability is a provider's declared ability to enforce one category.
type Capability struct {
	Category           category.Category `json:"category"`
	Supported          bool              `json:"supported"`
	SettingName        string            `json:"setting_name,omitempty"`
	TargetProfileTypes []ProfileType     `json:"target_profile_types"`
	Description        string            `json:"description"`
	PlatformManaged    bool              `json:"platform_managed,omitempty"`
}

// Targets reports whether the capability applies to profiles of type t.
func (c Capability) Targets(t ProfileType) bool {
	for _, pt := range c.TargetProfileTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// FieldChange is one field mutation reported by a Mutator.
type FieldChange struct {
	Field       string
	Old         any
	New         any
	Description string
}

// Mutator applies one category to a profile copy and reports what changed.
// A mutator that finds nothing to change returns no field changes.
type Mutator func(p *Profile, cfg category.Config) ([]FieldChange, error)

// Provider is a capability registry plus the per-category mutators for one provider.
// Providers are built once at init and never mutated.
type Provider struct {
	id          ID
	name        string
	labels      map[ProfileType]string
	ladder      Ladder
	kidsCeiling string

	capabilities map[category.Category]Capability
	mutators     map[category.Category]Mutator
	fallbacks    map[category.Category]Mutator
	seed         []Profile
}

// support declares one enforceable category.
type support struct {
	setting     string
	targets     []ProfileType
	description string
	mutate      Mutator
}

// fallback declares a category the provider cannot enforce natively but that
// is still offered through a platform-managed badge on non-adult profiles.
type fallback struct {
	description string
	mutate      Mutator
}

type definition struct {
	id          ID
	name        string
	labels      map[ProfileType]string
	ladder      Ladder
	kidsCeiling string
	supported   map[category.Category]support
	fallbacks   map[category.Category]fallback
	seed        []Profile
}

// build assembles a Provider, declaring every catalog category. Unsupported
// categories without a fallback get a plain "not available" capability.
func build(d definition) *Provider {
	if _, ok := d.ladder.Rank(d.kidsCeiling); !ok {
		panic(fmt.Sprintf("%s: kids ceiling %q is not a tier", d.id, d.kidsCeiling))
	}
	p := &Provider{
		id:           d.id,
		name:         d.name,
		labels:       d.labels,
		ladder:       d.ladder,
		kidsCeiling:  d.kidsCeiling,
		capabilities: make(map[category.Category]Capability, len(category.All())),
		mutators:     make(map[category.Category]Mutator, len(d.supported)),
		fallbacks:    make(map[category.Category]Mutator, len(d.fallbacks)),
		seed:         d.seed,
	}

	for c := range d.supported {
		if !category.Valid(c) {
			panic(fmt.Sprintf("%s: supported category %q is not in the catalog", d.id, c))
		}
		if _, dup := d.fallbacks[c]; dup {
			panic(fmt.Sprintf("%s: category %q is both supported and platform-managed", d.id, c))
		}
	}
	for c := range d.fallbacks {
		if !category.Valid(c) {
			panic(fmt.Sprintf("%s: fallback category %q is not in the catalog", d.id, c))
		}
	}

	for _, c := range category.All() {
		if s, ok := d.supported[c]; ok {
			p.capabilities[c] = Capability{
				Category:           c,
				Supported:          true,
				SettingName:        s.setting,
				TargetProfileTypes: s.targets,
				Description:        s.description,
			}
			p.mutators[c] = s.mutate
			continue
		}
		if f, ok := d.fallbacks[c]; ok {
			p.capabilities[c] = Capability{
				Category:           c,
				Supported:          false,
				TargetProfileTypes: []ProfileType{Standard, Kids},
				Description:        f.description,
				PlatformManaged:    true,
			}
			p.fallbacks[c] = f.mutate
			continue
		}
		p.capabilities[c] = Capability{
			Category:           c,
			TargetProfileTypes: []ProfileType{},
			Description:        fmt.Sprintf("%s has no setting for %s.", d.name, strings.ToLower(category.Label(c))),
		}
	}
	return p
}

// ID returns the provider identifier.
func (p *Provider) ID() ID { return p.id }

// Name returns the display name.
func (p *Provider) Name() string { return p.name }

// ProfileTypeLabel returns the provider's own word for a profile type.
func (p *Provider) ProfileTypeLabel(t ProfileType) string {
	if l, ok := p.labels[t]; ok {
		return l
	}
	return string(t)
}

// Ladder returns the provider's maturity ladder.
func (p *Provider) Ladder() Ladder { return p.ladder }

// KidsCeiling is the most permissive tier a kids profile may hold.
func (p *Provider) KidsCeiling() string { return p.kidsCeiling }

// Capability returns the declared capability for c.
// Categories outside the catalog are a caller bug and yield UNKNOWN_CATEGORY.
func (p *Provider) Capability(c category.Category) (Capability, error) {
	capability, ok := p.capabilities[c]
	if !ok {
		return Capability{}, errors.NewUnknownCategory(string(c))
	}
	return capability, nil
}

// Capabilities returns every capability in catalog order.
func (p *Provider) Capabilities() []Capability {
	out := make([]Capability, 0, len(p.capabilities))
	for _, c := range category.All() {
		out = append(out, p.capabilities[c])
	}
	return out
}

// SupportedCategories returns the natively supported categories in catalog order.
func (p *Provider) SupportedCategories() []category.Category {
	var out []category.Category
	for _, c := range category.All() {
		if p.capabilities[c].Supported {
			out = append(out, c)
		}
	}
	return out
}

// Mutator returns the mutator for a supported category.
func (p *Provider) Mutator(c category.Category) (Mutator, bool) {
	m, ok := p.mutators[c]
	return m, ok
}

// Fallback returns the platform-managed handler for an unsupported category.
func (p *Provider) Fallback(c category.Category) (Mutator, bool) {
	m, ok := p.fallbacks[c]
	return m, ok
}

// FallbackCategories returns the platform-managed categories in catalog order.
func (p *Provider) FallbackCategories() []category.Category {
	var out []category.Category
	for _, c := range category.All() {
		if _, ok := p.fallbacks[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Applies reports whether a rule for c takes effect on profiles of type t.
// Enforcement and scoring both go through this check.
func (p *Provider) Applies(c category.Category, t ProfileType) bool {
	capability, ok := p.capabilities[c]
	if !ok {
		return false
	}
	if capability.Supported {
		return capability.Targets(t)
	}
	if _, ok := p.fallbacks[c]; ok {
		return t != Adult
	}
	return false
}

// DefaultProfiles returns a fresh copy of the provider's seed profiles.
func (p *Provider) DefaultProfiles() []Profile {
	return CloneProfiles(p.seed)
}

var registry = map[ID]*Provider{}

func register(p *Provider) {
	if _, dup := registry[p.id]; dup {
		panic(fmt.Sprintf("provider %s registered twice", p.id))
	}
	registry[p.id] = p
}

// Get returns the provider with the given id.
func Get(id string) (*Provider, error) {
	p, ok := registry[ID(strings.ToLower(strings.TrimSpace(id)))]
	if !ok {
		return nil, errors.NewUnknownProvider(id)
	}
	return p, nil
}

// All returns every registered provider sorted by id.
func All() []*Provider {
	out := make([]*Provider, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// IDs returns every registered provider id, sorted.
func IDs() []string {
	ps := All()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p.id)
	}
	return out
}
