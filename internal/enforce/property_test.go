package enforce

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// rulesFromMask enables rule i when mask[i] is set. Extra unknown categories
// are appended enabled, to exercise the skipped path.
func rulesFromMask(p *provider.Provider, mask []bool, unknown int) []ruleset.Rule {
	rules := ruleset.BuildDefault(p)
	for i := range rules {
		if i < len(mask) && mask[i] {
			rules[i].Enabled = true
		}
	}
	for i := 0; i < unknown; i++ {
		rules = append(rules, ruleset.Rule{Category: category.Category("unknown_" + string(rune('a'+i))), Enabled: true})
	}
	return rules
}

// TestApplyIsIdempotent checks that a second run over the first run's output
// produces no deltas.
func TestApplyIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, p := range provider.All() {
		p := p
		properties.Property(string(p.ID())+": second apply yields no deltas", prop.ForAll(
			func(mask []bool) bool {
				rules := rulesFromMask(p, mask, 0)
				first, err := Apply(p, rules, p.DefaultProfiles(), nil)
				if err != nil {
					return false
				}
				second, err := Apply(p, rules, first.Profiles, nil)
				if err != nil {
					return false
				}
				return len(second.Changes) == 0
			},
			gen.SliceOfN(len(category.All()), gen.Bool()),
		))
	}

	properties.TestingRun(t)
}

// TestKidsCeilingHolds checks that no requested rating lifts a kids profile
// above the provider's kids ceiling.
func TestKidsCeilingHolds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, p := range provider.All() {
		p := p
		ratings := append(append([]string{}, provider.GenericRatings...), p.Ladder().Tiers()...)
		tiers := p.Ladder().Tiers()

		properties.Property(string(p.ID())+": kids stay at or below the ceiling", prop.ForAll(
			func(ratingIdx, startIdx int) bool {
				rules := ruleset.BuildDefault(p)
				rules, _ = ruleset.SetEnabled(rules, category.ContentRating, true)
				rules, _ = ruleset.UpdateConfig(rules, category.ContentRating,
					category.Config{"maxRating": ratings[ratingIdx]})

				kid := provider.Profile{ID: "k", Name: "K", Type: provider.Kids, MaturityRating: tiers[startIdx]}
				res, err := Apply(p, rules, []provider.Profile{kid}, nil)
				if err != nil {
					return false
				}
				return !p.Ladder().Exceeds(res.Profiles[0].MaturityRating, p.KidsCeiling())
			},
			gen.IntRange(0, len(ratings)-1),
			gen.IntRange(0, len(tiers)-1),
		))

		properties.Property(string(p.ID())+": kids overrides stay at or below the ceiling", prop.ForAll(
			func(ratingIdx, startIdx int) bool {
				rules := ruleset.BuildDefault(p)
				rules, _ = ruleset.SetEnabled(rules, category.ContentRating, true)
				overrides := Overrides(nil).Set("k", category.ContentRating,
					category.Config{"maxRating": ratings[ratingIdx]})

				kid := provider.Profile{ID: "k", Name: "K", Type: provider.Kids, MaturityRating: tiers[startIdx]}
				res, err := Apply(p, rules, []provider.Profile{kid}, overrides)
				if err != nil {
					return false
				}
				return !p.Ladder().Exceeds(res.Profiles[0].MaturityRating, p.KidsCeiling())
			},
			gen.IntRange(0, len(ratings)-1),
			gen.IntRange(0, len(tiers)-1),
		))
	}

	properties.TestingRun(t)
}

// TestCountsAreConserved checks applied + skipped equals the number of
// enabled rules, including rules outside the catalog.
func TestCountsAreConserved(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, p := range provider.All() {
		p := p
		properties.Property(string(p.ID())+": applied + skipped == enabled", prop.ForAll(
			func(mask []bool, unknown int) bool {
				rules := rulesFromMask(p, mask, unknown)
				res, err := Apply(p, rules, p.DefaultProfiles(), nil)
				if err != nil {
					return false
				}
				enabled := len(ruleset.Enabled(rules))
				return res.Applied+res.Skipped == enabled &&
					res.PlatformManaged <= res.Applied
			},
			gen.SliceOfN(len(category.All()), gen.Bool()),
			gen.IntRange(0, 3),
		))
	}

	properties.TestingRun(t)
}
