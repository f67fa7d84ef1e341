package category

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	all := All()
	require.Len(t, all, 45)
	require.Len(t, Domains(), 12)

	seen := make(map[Category]bool)
	for _, c := range all {
		assert.False(t, seen[c], "duplicate category %s", c)
		seen[c] = true

		info, ok := Lookup(c)
		require.True(t, ok)
		assert.NotEmpty(t, info.Label, "label for %s", c)
		assert.NotEmpty(t, info.Description, "description for %s", c)
		assert.NotEmpty(t, info.Domain, "domain for %s", c)
	}
}

func TestEveryCategoryHasDefaults(t *testing.T) {
	for _, c := range All() {
		_, ok := defaults[c]
		assert.True(t, ok, "missing default config for %s", c)
	}
	assert.Len(t, defaults, len(All()), "defaults must not name categories outside the catalog")
}

func TestDefaultConfigIsACopy(t *testing.T) {
	cfg := DefaultConfig(ContentRating)
	require.Equal(t, "PG-13", cfg["maxRating"])

	cfg["maxRating"] = "R"
	assert.Equal(t, "PG-13", DefaultConfig(ContentRating)["maxRating"])

	titles := DefaultConfig(WebCategoryBlock)["categories"].([]string)
	titles[0] = "mutated"
	assert.Equal(t, "adult", DefaultConfig(WebCategoryBlock)["categories"].([]string)[0])

	assert.Equal(t, Config{}, DefaultConfig("not_a_category"))
}

func TestLookupAndLabel(t *testing.T) {
	info, ok := Lookup(TimeDailyLimit)
	require.True(t, ok)
	assert.Equal(t, DomainTime, info.Domain)
	assert.Equal(t, "Daily Screen Time Limit", Label(TimeDailyLimit))

	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.False(t, Valid("nope"))
	assert.Equal(t, "nope", Label("nope"))
}

func TestByDomain(t *testing.T) {
	groups := ByDomain()
	assert.Equal(t, []Category{TimeDailyLimit, TimeScheduledHours, TimePerAppLimit, TimeDowntime}, groups[DomainTime])
	assert.Equal(t, []Category{SocialMediaMinAge, ImageRightsMinor}, groups[DomainLegislation])

	total := 0
	for _, cs := range groups {
		total += len(cs)
	}
	assert.Equal(t, 45, total)
}

func TestSorted(t *testing.T) {
	in := []Category{"zzz", TimeDailyLimit, ContentRating, "aaa"}
	assert.Equal(t, []Category{ContentRating, TimeDailyLimit, "aaa", "zzz"}, Sorted(in))
	assert.Equal(t, Category("zzz"), in[0], "input must not be reordered")
}

func TestConfigGetters(t *testing.T) {
	var decoded Config
	require.NoError(t, json.Unmarshal([]byte(`{"minutes": 90, "titles": ["A", " B ", ""], "pin": "1234", "on": true, "frac": 1.5}`), &decoded))

	minutes, err := decoded.IntOr("minutes", 0)
	require.NoError(t, err)
	assert.Equal(t, 90, minutes)

	_, err = decoded.IntOr("frac", 0)
	assert.Error(t, err)

	_, err = decoded.IntOr("titles", 0)
	assert.Error(t, err)

	def, err := decoded.IntOr("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, def)

	titles, err := decoded.Strings("titles")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles)

	pin, err := decoded.StringOr("pin", "")
	require.NoError(t, err)
	assert.Equal(t, "1234", pin)

	_, err = decoded.StringOr("minutes", "")
	assert.Error(t, err)

	on, err := decoded.BoolOr("on", false)
	require.NoError(t, err)
	assert.True(t, on)

	csv, err := Config{"titles": "X, Y"}.Strings("titles")
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, csv)

	fromFlag, err := Config{"minutes": "45"}.IntOr("minutes", 0)
	require.NoError(t, err)
	assert.Equal(t, 45, fromFlag)
}

func TestConfigCloneIsDeep(t *testing.T) {
	orig := Config{
		"list":   []any{"a", map[string]any{"k": "v"}},
		"nested": map[string]any{"inner": []string{"x"}},
	}
	clone := orig.Clone()

	clone["list"].([]any)[0] = "changed"
	clone["list"].([]any)[1].(map[string]any)["k"] = "changed"
	clone["nested"].(map[string]any)["inner"].([]string)[0] = "changed"

	assert.Equal(t, "a", orig["list"].([]any)[0])
	assert.Equal(t, "v", orig["list"].([]any)[1].(map[string]any)["k"])
	assert.Equal(t, "x", orig["nested"].(map[string]any)["inner"].([]string)[0])
	assert.Nil(t, Config(nil).Clone())
}
