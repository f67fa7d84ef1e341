package category

// defaults is the per-category default rule configuration. Categories without
// parameters map to an empty config.
var defaults = map[Category]Config{
	ContentRating:          {"maxRating": "PG-13"},
	ContentBlockTitle:      {"titles": []string{}},
	ContentAllowTitle:      {"titles": []string{}},
	ContentAllowlistMode:   {"titles": []string{}},
	ContentDescriptorBlock: {"descriptors": []string{"violence", "sex", "language"}},

	TimeDailyLimit:     {"minutes": 120},
	TimeScheduledHours: {"start": "07:00", "end": "20:00"},
	TimePerAppLimit:    {"minutes": 60},
	TimeDowntime:       {"start": "21:00", "end": "07:00"},

	PurchaseApproval:    {},
	PurchaseSpendingCap: {"monthlyCapCents": 0},
	PurchaseBlockIAP:    {},

	SocialContacts:    {"mode": "approved_only"},
	SocialChatControl: {"mode": "friends_only"},
	SocialMultiplayer: {"mode": "off"},
	DMRestriction:     {"mode": "contacts_only"},

	WebSafeSearch:      {},
	WebCategoryBlock:   {"categories": []string{"adult", "gambling", "violence"}},
	WebCustomAllowlist: {"domains": []string{}},
	WebCustomBlocklist: {"domains": []string{}},
	WebFilterLevel:     {"level": "strict"},

	PrivacyLocation:     {"sharing": false},
	PrivacyVisibility:   {"visibility": "private"},
	PrivacyDataSharing:  {},
	PrivacyAccountSetup: {"requireApproval": true},
	GeolocationOptIn:    {},

	MonitoringActivity: {},
	MonitoringAlerts:   {},
	ScreenTimeReport:   {"frequency": "weekly"},

	AlgoFeedControl:        {"mode": "chronological"},
	AddictiveDesignControl: {"autoplay": false},
	AIMinorInteraction:     {},

	NotificationCurfew:        {"start": "21:00", "end": "07:00"},
	UsageTimerNotification:    {"intervalMinutes": 30},
	ParentalEventNotification: {},

	TargetedAdBlock:     {},
	DataDeletionRequest: {},
	CommercialDataBan:   {},

	AgeGate:                 {"minAge": 13},
	ParentalConsentGate:     {},
	CSAMReporting:           {},
	LibraryFilterCompliance: {},
	AlgorithmicAudit:        {},

	SocialMediaMinAge: {"minAge": 16},
	ImageRightsMinor:  {},
}

// DefaultConfig returns a fresh copy of the default config for c.
// Unknown categories get an empty config.
func DefaultConfig(c Category) Config {
	if cfg, ok := defaults[c]; ok {
		return cfg.Clone()
	}
	return Config{}
}
