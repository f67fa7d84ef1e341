package provider

import "github.com/jakeklinvexgloo/phosra-sub003/internal/category"

var disneyLadder = newLadder(
	[]string{"TV-Y", "TV-Y7", "TV-G", "TV-PG", "PG-13", "TV-14", "TV-MA"},
	map[string]string{"G": "TV-G", "PG": "TV-PG", "PG-13": "PG-13", "R": "TV-MA", "NC-17": "TV-MA"},
)

func init() {
	standardAndKids := []ProfileType{Standard, Kids}

	register(build(definition{
		id:   DisneyPlus,
		name: "Disney+",
		labels: map[ProfileType]string{
			Adult:    "Adult",
			Standard: "Teen",
			Kids:     "Junior Mode",
		},
		ladder:      disneyLadder,
		kidsCeiling: "TV-Y7",
		supported: map[category.Category]support{
			category.ContentRating: {
				setting:     "Content Rating",
				targets:     standardAndKids,
				description: "Per-profile content rating; Junior Mode profiles stay at TV-Y7 or below.",
				mutate:      maturityRating(disneyLadder, "TV-Y7", "Content rating"),
			},
			category.PurchaseApproval: {
				setting:     "Profile PIN",
				targets:     []ProfileType{Adult},
				description: "Require a 4-digit PIN to open adult profiles.",
				mutate:      profileLock(DisneyPlus, "Profile PIN"),
			},
			category.AgeGate: {
				setting:     "Kid-Proof Exit",
				targets:     []ProfileType{Kids},
				description: "Leaving a Junior Mode profile requires solving an adult challenge.",
				mutate: setFlag("kid_proof_exit", func(p *Profile) *bool { return &p.KidProofExit }, true,
					"Kid-proof exit turned on"),
			},
			category.PrivacyAccountSetup: {
				setting:     "Restrict Profile Creation",
				targets:     []ProfileType{Adult},
				description: "Only the account owner can create new profiles.",
				mutate: setFlag("profile_creation_locked", func(p *Profile) *bool { return &p.ProfileCreationLocked }, true,
					"Profile creation restricted to the account owner"),
			},
			category.AddictiveDesignControl: {
				setting:     "Autoplay",
				targets:     standardAndKids,
				description: "Stop the next episode from starting automatically.",
				mutate: setFlag("autoplay_next_episode", func(p *Profile) *bool { return &p.AutoplayNextEpisode }, false,
					"Autoplay turned off"),
			},
			category.AlgoFeedControl: {
				setting:     "Background Video",
				targets:     standardAndKids,
				description: "Turn off video that plays in the background while browsing.",
				mutate: setFlag("autoplay_previews", func(p *Profile) *bool { return &p.AutoplayPreviews }, false,
					"Background video turned off"),
			},
		},
		fallbacks: map[category.Category]fallback{
			category.TimeDailyLimit: {
				description: "Disney+ has no screen time limit; Phosra manages it for non-adult profiles.",
				mutate:      timeLimitBadge(),
			},
			category.TimeScheduledHours: {
				description: "Disney+ has no viewing schedule; Phosra manages allowed hours for non-adult profiles.",
				mutate:      scheduleBadge(),
			},
		},
		// Junior ships at TV-MA on purpose, mirroring the Netflix seed.
		seed: []Profile{
			{
				ID: "dp-parent", Name: "Parent", Type: Adult,
				MaturityRating: "TV-MA", AutoplayNextEpisode: true, AutoplayPreviews: true,
				RecentlyWatched: []string{"Andor", "The Bear"},
			},
			{
				ID: "dp-teen", Name: "Teen", Type: Standard,
				MaturityRating: "TV-14", AutoplayNextEpisode: true, AutoplayPreviews: true,
				RecentlyWatched: []string{"Percy Jackson", "Loki"},
			},
			{
				ID: "dp-junior", Name: "Junior", Type: Kids,
				MaturityRating: "TV-MA", AutoplayNextEpisode: true, AutoplayPreviews: true,
				RecentlyWatched: []string{"Bluey", "Moana"},
			},
		},
	}))
}
