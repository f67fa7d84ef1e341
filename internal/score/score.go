// Package score computes a profile's protection score from the live rule set.
package score

import (
	"math"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ruleset"
)

// Level is the risk tier derived from a score value.
type Level string

const (
	AtRisk    Level = "at-risk"
	Partial   Level = "partial"
	Protected Level = "protected"
)

// weights lists the categories that count more than 1.
var weights = map[category.Category]int{
	category.ContentRating:      3,
	category.ContentBlockTitle:  2,
	category.TimeDailyLimit:     3,
	category.PurchaseApproval:   2,
	category.MonitoringActivity: 2,
}

// Weight returns the scoring weight of c.
func Weight(c category.Category) int {
	if w, ok := weights[c]; ok {
		return w
	}
	return 1
}

// Score is a profile's protection score.
type Score struct {
	Value           int   `json:"value"`
	Level           Level `json:"level"`
	ApplicableCount int   `json:"applicable_count"`
	EnabledCount    int   `json:"enabled_count"`
	GapCount        int   `json:"gap_count"`
}

// Applicability decides whether a rule takes effect on a profile type.
// *provider.Provider satisfies it with the same check enforcement uses.
type Applicability interface {
	Applies(c category.Category, t provider.ProfileType) bool
}

// Compute scores p against rules. Adult profiles are not scored and return
// false.
func Compute(a Applicability, p provider.Profile, rules []ruleset.Rule) (Score, bool) {
	if p.Type == provider.Adult {
		return Score{}, false
	}

	var s Score
	var total, enabled int
	for _, r := range rules {
		if !a.Applies(r.Category, p.Type) {
			continue
		}
		w := Weight(r.Category)
		total += w
		s.ApplicableCount++
		if r.Enabled {
			enabled += w
			s.EnabledCount++
		}
	}
	s.GapCount = s.ApplicableCount - s.EnabledCount
	if total > 0 {
		s.Value = int(math.Round(10 * float64(enabled) / float64(total)))
	}
	s.Level = LevelFor(s.Value)
	return s, true
}

// LevelFor maps a 0-10 value onto a risk tier.
func LevelFor(v int) Level {
	switch {
	case v <= 3:
		return AtRisk
	case v <= 6:
		return Partial
	default:
		return Protected
	}
}

// ProfileScore pairs a profile with its score.
type ProfileScore struct {
	ProfileID   string `json:"profile_id"`
	ProfileName string `json:"profile_name"`
	Score
}

// All scores every non-adult profile, in profile order.
func All(a Applicability, profiles []provider.Profile, rules []ruleset.Rule) []ProfileScore {
	out := []ProfileScore{}
	for _, p := range profiles {
		s, ok := Compute(a, p, rules)
		if !ok {
			continue
		}
		out = append(out, ProfileScore{ProfileID: p.ID, ProfileName: p.Name, Score: s})
	}
	return out
}
