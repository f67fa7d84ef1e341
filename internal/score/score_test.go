package score

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

func netflix(t *testing.T) *provider.Provider {
	t.Helper()
	p, err := provider.Get("netflix")
	require.NoError(t, err)
	return p
}

func TestAdultIsNotScored(t *testing.T) {
	p := netflix(t)
	_, ok := Compute(p, provider.Profile{Type: provider.Adult}, ruleset.BuildDefault(p))
	assert.False(t, ok)
}

func TestNothingEnabled(t *testing.T) {
	p := netflix(t)
	s, ok := Compute(p, provider.Profile{Type: provider.Kids}, ruleset.BuildDefault(p))
	require.True(t, ok)

	// Netflix kids: six supported categories plus the time limit fallback.
	assert.Equal(t, 7, s.ApplicableCount)
	assert.Equal(t, 0, s.EnabledCount)
	assert.Equal(t, 7, s.GapCount)
	assert.Equal(t, 0, s.Value)
	assert.Equal(t, AtRisk, s.Level)
}

func TestWeightedValue(t *testing.T) {
	p := netflix(t)
	rules := ruleset.BuildDefault(p)
	rules, _ = ruleset.SetEnabled(rules, category.ContentRating, true)
	rules, _ = ruleset.SetEnabled(rules, category.TimeDailyLimit, true)

	// Applicable weight for kids: rating 3 + titles 2 + activity 2 + feed 1
	// + autoplay 1 + ads 1 + time 3 = 13. Enabled: 6. round(60/13) = 5.
	s, ok := Compute(p, provider.Profile{Type: provider.Kids}, rules)
	require.True(t, ok)
	assert.Equal(t, 5, s.Value)
	assert.Equal(t, Partial, s.Level)
	assert.Equal(t, 2, s.EnabledCount)
	assert.Equal(t, 5, s.GapCount)
}

func TestEnabledUnsupportedDoesNotCount(t *testing.T) {
	p := netflix(t)
	rules := ruleset.BuildDefault(p)
	rules, _ = ruleset.SetEnabled(rules, category.SocialChatControl, true)

	s, _ := Compute(p, provider.Profile{Type: provider.Standard}, rules)
	assert.Equal(t, 0, s.EnabledCount)
	assert.Equal(t, 0, s.Value)
}

func TestEverythingEnabledIsProtected(t *testing.T) {
	p := netflix(t)
	rules := ruleset.BuildDefault(p)
	for i := range rules {
		rules[i].Enabled = true
	}
	s, _ := Compute(p, provider.Profile{Type: provider.Standard}, rules)
	assert.Equal(t, 10, s.Value)
	assert.Equal(t, Protected, s.Level)
	assert.Equal(t, 0, s.GapCount)
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		v    int
		want Level
	}{
		{0, AtRisk}, {3, AtRisk}, {4, Partial}, {6, Partial}, {7, Protected}, {10, Protected},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFor(tc.v), "value %d", tc.v)
	}
}

func TestAllSkipsAdults(t *testing.T) {
	p := netflix(t)
	scores := All(p, p.DefaultProfiles(), ruleset.BuildDefault(p))
	require.Len(t, scores, 2)
	assert.Equal(t, "nf-teen", scores[0].ProfileID)
	assert.Equal(t, "nf-kid", scores[1].ProfileID)
}

// TestEnablingNeverLowersScore checks that turning on one more rule never
// decreases a profile's score.
func TestEnablingNeverLowersScore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	types := []provider.ProfileType{provider.Standard, provider.Kids}
	n := len(category.All())

	for _, p := range provider.All() {
		p := p
		properties.Property(string(p.ID())+": score is monotone in enabled rules", prop.ForAll(
			func(mask []bool, extra, typeIdx int) bool {
				rules := ruleset.BuildDefault(p)
				for i := range rules {
					rules[i].Enabled = mask[i]
				}
				prof := provider.Profile{Type: types[typeIdx]}
				before, _ := Compute(p, prof, rules)

				rules[extra].Enabled = true
				after, _ := Compute(p, prof, rules)
				return after.Value >= before.Value
			},
			gen.SliceOfN(n, gen.Bool()),
			gen.IntRange(0, n-1),
			gen.IntRange(0, len(types)-1),
		))
	}

	properties.TestingRun(t)
}
