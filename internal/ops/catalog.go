package ops

import (
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// CategoriesInput contains parameters for the Categories operation.
type CategoriesInput struct {
	Domain string // optional filter
}

// CategoriesOutput lists catalog entries.
type CategoriesOutput struct {
	Version    string          `json:"version"`
	Domains    []string        `json:"domains"`
	Categories []category.Info `json:"categories"`
}

// Categories returns the category catalog, optionally narrowed to one domain.
func Categories(input CategoriesInput) (*CategoriesOutput, error) {
	domain := category.Domain(strings.ToLower(strings.TrimSpace(input.Domain)))

	out := &CategoriesOutput{Version: category.Version, Categories: []category.Info{}}
	known := false
	for _, d := range category.Domains() {
		out.Domains = append(out.Domains, string(d))
		if d == domain {
			known = true
		}
	}
	if domain != "" && !known {
		return nil, errors.NewInvalidRequest("unknown domain: " + string(domain))
	}

	for _, info := range category.Infos() {
		if domain == "" || info.Domain == domain {
			out.Categories = append(out.Categories, info)
		}
	}
	return out, nil
}

// CapabilitiesInput contains parameters for the Capabilities operation.
type CapabilitiesInput struct {
	Provider string // optional, defaults to config default_provider
}

// CapabilitiesOutput describes what one provider can enforce.
type CapabilitiesOutput struct {
	Provider        string                `json:"provider"`
	Name            string                `json:"name"`
	ProfileTypes    map[string]string     `json:"profile_types"`
	RatingLadder    []string              `json:"rating_ladder"`
	KidsCeiling     string                `json:"kids_ceiling"`
	Supported       int                   `json:"supported"`
	PlatformManaged []category.Category   `json:"platform_managed"`
	Capabilities    []provider.Capability `json:"capabilities"`
	Providers       []string              `json:"providers"`
}

// Capabilities returns the capability registry of a provider.
func Capabilities(env *Env, input CapabilitiesInput) (*CapabilitiesOutput, error) {
	p, err := resolveProvider(env, input.Provider)
	if err != nil {
		return nil, err
	}

	types := make(map[string]string, 3)
	for _, t := range []provider.ProfileType{provider.Adult, provider.Standard, provider.Kids} {
		types[string(t)] = p.ProfileTypeLabel(t)
	}
	fallbacks := p.FallbackCategories()
	if fallbacks == nil {
		fallbacks = []category.Category{}
	}

	return &CapabilitiesOutput{
		Provider:        string(p.ID()),
		Name:            p.Name(),
		ProfileTypes:    types,
		RatingLadder:    p.Ladder().Tiers(),
		KidsCeiling:     p.KidsCeiling(),
		Supported:       len(p.SupportedCategories()),
		PlatformManaged: fallbacks,
		Capabilities:    p.Capabilities(),
		Providers:       provider.IDs(),
	}, nil
}

// DefaultRulesInput contains parameters for the DefaultRules operation.
type DefaultRulesInput struct {
	Provider string
}

// DefaultRulesOutput is a provider's starting rule set.
type DefaultRulesOutput struct {
	Provider string         `json:"provider"`
	Rules    []ruleset.Rule `json:"rules"`
}

// DefaultRules returns the rule set a new session starts with.
func DefaultRules(env *Env, input DefaultRulesInput) (*DefaultRulesOutput, error) {
	p, err := resolveProvider(env, input.Provider)
	if err != nil {
		return nil, err
	}
	return &DefaultRulesOutput{Provider: string(p.ID()), Rules: ruleset.BuildDefault(p)}, nil
}

func resolveProvider(env *Env, id string) (*provider.Provider, error) {
	if strings.TrimSpace(id) == "" && env != nil && env.Config != nil {
		id = env.Config.DefaultProvider
	}
	return provider.Get(id)
}
