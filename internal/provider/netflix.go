package provider

import "github.com/jakeklinvexgloo/phosra-sub003/internal/category"

var netflixLadder = newLadder(
	[]string{"all", "7+", "13+", "16+", "18+"},
	map[string]string{"G": "all", "PG": "7+", "PG-13": "13+", "R": "16+", "NC-17": "18+"},
)

func init() {
	standardAndKids := []ProfileType{Standard, Kids}

	register(build(definition{
		id:   Netflix,
		name: "Netflix",
		labels: map[ProfileType]string{
			Adult:    "Adult",
			Standard: "Standard",
			Kids:     "Kids",
		},
		ladder:      netflixLadder,
		kidsCeiling: "13+",
		supported: map[category.Category]support{
			category.ContentRating: {
				setting:     "Maturity Ratings",
				targets:     standardAndKids,
				description: "Per-profile maturity rating; kids profiles cannot go above 13+.",
				mutate:      maturityRating(netflixLadder, "13+", "Maturity rating"),
			},
			category.ContentBlockTitle: {
				setting:     "Title Restrictions",
				targets:     standardAndKids,
				description: "Hide specific shows and movies from a profile.",
				mutate:      blockTitles("Title restrictions"),
			},
			category.PurchaseApproval: {
				setting:     "Profile Lock",
				targets:     []ProfileType{Adult},
				description: "Require a 4-digit PIN to open adult profiles, so children cannot switch into them.",
				mutate:      profileLock(Netflix, "Profile Lock"),
			},
			category.MonitoringActivity: {
				setting:     "Viewing Activity",
				targets:     standardAndKids,
				description: "Viewing activity is visible to the account owner.",
				mutate: setFlag("activity_review", func(p *Profile) *bool { return &p.ActivityReview }, true,
					"Viewing activity shared with the account owner"),
			},
			category.AlgoFeedControl: {
				setting:     "Autoplay Previews",
				targets:     standardAndKids,
				description: "Turn off trailers that autoplay while browsing.",
				mutate: setFlag("autoplay_previews", func(p *Profile) *bool { return &p.AutoplayPreviews }, false,
					"Autoplay previews turned off"),
			},
			category.AddictiveDesignControl: {
				setting:     "Autoplay Next Episode",
				targets:     standardAndKids,
				description: "Stop the next episode from starting automatically.",
				mutate: setFlag("autoplay_next_episode", func(p *Profile) *bool { return &p.AutoplayNextEpisode }, false,
					"Autoplay next episode turned off"),
			},
			category.TargetedAdBlock: {
				setting:     "Ad-Free Experience",
				targets:     standardAndKids,
				description: "Serve the profile without advertising.",
				mutate: setFlag("ad_free", func(p *Profile) *bool { return &p.AdFree }, true,
					"Advertising removed from the profile"),
			},
		},
		fallbacks: map[category.Category]fallback{
			category.TimeDailyLimit: {
				description: "Netflix has no screen time limit; Phosra manages it for non-adult profiles.",
				mutate:      timeLimitBadge(),
			},
		},
		// The Kid profile ships at 18+ on purpose: the sandbox opens on an
		// out-of-policy account so enforcement has something to fix.
		seed: []Profile{
			{
				ID: "nf-parent", Name: "Parent", Type: Adult,
				MaturityRating: "18+", AutoplayNextEpisode: true, AutoplayPreviews: true,
				RecentlyWatched: []string{"The Crown", "Narcos"},
			},
			{
				ID: "nf-teen", Name: "Teen", Type: Standard,
				MaturityRating: "16+", AutoplayNextEpisode: true, AutoplayPreviews: true,
				RecentlyWatched: []string{"Stranger Things", "Wednesday", "Squid Game"},
			},
			{
				ID: "nf-kid", Name: "Kid", Type: Kids,
				MaturityRating: "18+", AdFree: true, AutoplayNextEpisode: true, AutoplayPreviews: true,
				RecentlyWatched: []string{"Bluey", "Cocomelon"},
			},
		},
	}))
}
