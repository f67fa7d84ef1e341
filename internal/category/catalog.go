// Package category holds the closed catalog of child-safety policy categories.
//
// The catalog is process-wide read-only data: categories are looked up, never
// created at runtime. Callers outside this package must not introduce
// identifiers that are not listed here.
package category

import "sort"

// Version identifies the revision of the category set.
const Version = "2025.1"

// Category is an opaque policy identifier drawn from the catalog.
type Category string

// Domain groups related categories.
type Domain string

const (
	DomainContent       Domain = "content"
	DomainTime          Domain = "time"
	DomainPurchase      Domain = "purchase"
	DomainSocial        Domain = "social"
	DomainWeb           Domain = "web"
	DomainPrivacy       Domain = "privacy"
	DomainMonitoring    Domain = "monitoring"
	DomainAlgorithmic   Domain = "algorithmic_safety"
	DomainNotifications Domain = "notifications"
	DomainAdvertising   Domain = "advertising_data"
	DomainCompliance    Domain = "compliance"
	DomainLegislation   Domain = "legislation"
)

const (
	ContentRating          Category = "content_rating"
	ContentBlockTitle      Category = "content_block_title"
	ContentAllowTitle      Category = "content_allow_title"
	ContentAllowlistMode   Category = "content_allowlist_mode"
	ContentDescriptorBlock Category = "content_descriptor_block"

	TimeDailyLimit     Category = "time_daily_limit"
	TimeScheduledHours Category = "time_scheduled_hours"
	TimePerAppLimit    Category = "time_per_app_limit"
	TimeDowntime       Category = "time_downtime"

	PurchaseApproval    Category = "purchase_approval"
	PurchaseSpendingCap Category = "purchase_spending_cap"
	PurchaseBlockIAP    Category = "purchase_block_iap"

	SocialContacts    Category = "social_contacts"
	SocialChatControl Category = "social_chat_control"
	SocialMultiplayer Category = "social_multiplayer"
	DMRestriction     Category = "dm_restriction"

	WebSafeSearch       Category = "web_safesearch"
	WebCategoryBlock    Category = "web_category_block"
	WebCustomAllowlist  Category = "web_custom_allowlist"
	WebCustomBlocklist  Category = "web_custom_blocklist"
	WebFilterLevel      Category = "web_filter_level"
	PrivacyLocation     Category = "privacy_location"
	PrivacyVisibility   Category = "privacy_profile_visibility"
	PrivacyDataSharing  Category = "privacy_data_sharing"
	PrivacyAccountSetup Category = "privacy_account_creation"
	GeolocationOptIn    Category = "geolocation_opt_in"

	MonitoringActivity Category = "monitoring_activity"
	MonitoringAlerts   Category = "monitoring_alerts"
	ScreenTimeReport   Category = "screen_time_report"

	AlgoFeedControl        Category = "algo_feed_control"
	AddictiveDesignControl Category = "addictive_design_control"
	AIMinorInteraction     Category = "ai_minor_interaction"

	NotificationCurfew        Category = "notification_curfew"
	UsageTimerNotification    Category = "usage_timer_notification"
	ParentalEventNotification Category = "parental_event_notification"

	TargetedAdBlock     Category = "targeted_ad_block"
	DataDeletionRequest Category = "data_deletion_request"
	CommercialDataBan   Category = "commercial_data_ban"

	AgeGate                 Category = "age_gate"
	ParentalConsentGate     Category = "parental_consent_gate"
	CSAMReporting           Category = "csam_reporting"
	LibraryFilterCompliance Category = "library_filter_compliance"
	AlgorithmicAudit        Category = "algorithmic_audit"

	SocialMediaMinAge Category = "social_media_min_age"
	ImageRightsMinor  Category = "image_rights_minor"
)

// Info describes one catalog entry.
type Info struct {
	ID          Category `json:"id"`
	Domain      Domain   `json:"domain"`
	Label       string   `json:"label"`
	Description string   `json:"description"` // markdown
}

// catalog is ordered: rule sets, listings and enforcement all follow this order.
var catalog = []Info{
	{ContentRating, DomainContent, "Content Rating Limit", "Cap the **maximum maturity rating** a profile can browse or play."},
	{ContentBlockTitle, DomainContent, "Block Specific Titles", "Hide individual titles from a profile, regardless of rating."},
	{ContentAllowTitle, DomainContent, "Allow Specific Titles", "Permit individual titles that the rating limit would otherwise hide."},
	{ContentAllowlistMode, DomainContent, "Allowlist-Only Mode", "Only titles on an explicit allowlist are playable."},
	{ContentDescriptorBlock, DomainContent, "Block Content Descriptors", "Hide content carrying descriptors such as *violence* or *strong language*."},

	{TimeDailyLimit, DomainTime, "Daily Screen Time Limit", "Limit total viewing time per day, in minutes."},
	{TimeScheduledHours, DomainTime, "Allowed Hours", "Restrict viewing to a daily time window."},
	{TimePerAppLimit, DomainTime, "Per-App Time Limit", "Limit time spent in this app specifically."},
	{TimeDowntime, DomainTime, "Downtime", "Block viewing entirely during a nightly downtime window."},

	{PurchaseApproval, DomainPurchase, "Purchase Approval", "Require a **PIN or parent approval** before purchases or profile switches."},
	{PurchaseSpendingCap, DomainPurchase, "Spending Cap", "Cap monthly spending on rentals, purchases and add-ons."},
	{PurchaseBlockIAP, DomainPurchase, "Block In-App Purchases", "Disable in-app purchases entirely."},

	{SocialContacts, DomainSocial, "Approved Contacts", "Restrict who can contact the child to approved contacts."},
	{SocialChatControl, DomainSocial, "Chat Controls", "Limit or disable chat features."},
	{SocialMultiplayer, DomainSocial, "Multiplayer Controls", "Restrict online multiplayer and party features."},
	{DMRestriction, DomainSocial, "Direct Message Restriction", "Block direct messages from unknown accounts."},

	{WebSafeSearch, DomainWeb, "Safe Search", "Force safe search in the provider's search surfaces."},
	{WebCategoryBlock, DomainWeb, "Web Category Blocking", "Block web categories such as gambling or adult content."},
	{WebCustomAllowlist, DomainWeb, "Custom Allowlist", "Always allow the listed domains."},
	{WebCustomBlocklist, DomainWeb, "Custom Blocklist", "Always block the listed domains."},
	{WebFilterLevel, DomainWeb, "Filter Level", "Overall web filtering strictness."},

	{PrivacyLocation, DomainPrivacy, "Location Privacy", "Disable location sharing."},
	{PrivacyVisibility, DomainPrivacy, "Profile Visibility", "Keep the child's profile private."},
	{PrivacyDataSharing, DomainPrivacy, "Data Sharing Limits", "Opt out of third-party data sharing."},
	{PrivacyAccountSetup, DomainPrivacy, "Account Creation Approval", "Require parent approval to create new profiles or accounts."},
	{GeolocationOptIn, DomainPrivacy, "Geolocation Opt-In", "Geolocation must be explicitly opted into by a parent."},

	{MonitoringActivity, DomainMonitoring, "Activity Monitoring", "Let a parent **review viewing activity** for the profile."},
	{MonitoringAlerts, DomainMonitoring, "Activity Alerts", "Alert a parent on notable activity."},
	{ScreenTimeReport, DomainMonitoring, "Screen Time Report", "Send periodic screen time reports to a parent."},

	{AlgoFeedControl, DomainAlgorithmic, "Feed Control", "Turn off algorithmic previews and recommendation-driven autoplay of trailers."},
	{AddictiveDesignControl, DomainAlgorithmic, "Addictive Design Controls", "Disable engagement loops such as autoplaying the next episode."},
	{AIMinorInteraction, DomainAlgorithmic, "AI Interaction Limits", "Restrict conversational AI features for minors."},

	{NotificationCurfew, DomainNotifications, "Notification Curfew", "Silence notifications overnight."},
	{UsageTimerNotification, DomainNotifications, "Usage Timer Notifications", "Remind the child how long they have been watching."},
	{ParentalEventNotification, DomainNotifications, "Parental Event Notifications", "Notify a parent when settings change."},

	{TargetedAdBlock, DomainAdvertising, "Block Targeted Ads", "Serve no targeted advertising to the profile."},
	{DataDeletionRequest, DomainAdvertising, "Data Deletion Request", "Request deletion of the child's data."},
	{CommercialDataBan, DomainAdvertising, "Commercial Data Ban", "Prohibit commercial use of the child's data."},

	{AgeGate, DomainCompliance, "Age Gate", "Require an age challenge to leave a kids experience."},
	{ParentalConsentGate, DomainCompliance, "Parental Consent Gate", "Require verifiable parental consent for data collection."},
	{CSAMReporting, DomainCompliance, "CSAM Reporting", "Provider reports child sexual abuse material as required by law."},
	{LibraryFilterCompliance, DomainCompliance, "Library Filter Compliance", "Filtering that meets public library requirements."},
	{AlgorithmicAudit, DomainCompliance, "Algorithmic Audit", "Provider publishes audits of recommendation systems."},

	{SocialMediaMinAge, DomainLegislation, "Social Media Minimum Age", "Enforce a statutory minimum age for social accounts."},
	{ImageRightsMinor, DomainLegislation, "Minor Image Rights", "Honor takedown requests for images of minors."},
}

var index = func() map[Category]int {
	m := make(map[Category]int, len(catalog))
	for i, info := range catalog {
		m[info.ID] = i
	}
	return m
}()

// All returns every category in catalog order.
func All() []Category {
	out := make([]Category, len(catalog))
	for i, info := range catalog {
		out[i] = info.ID
	}
	return out
}

// Infos returns a copy of every catalog entry in catalog order.
func Infos() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for c.
func Lookup(c Category) (Info, bool) {
	i, ok := index[c]
	if !ok {
		return Info{}, false
	}
	return catalog[i], true
}

// Valid reports whether c is in the catalog.
func Valid(c Category) bool {
	_, ok := index[c]
	return ok
}

// Label returns the human label for c, or the raw identifier for unknown categories.
func Label(c Category) string {
	if info, ok := Lookup(c); ok {
		return info.Label
	}
	return string(c)
}

// Domains returns every domain in catalog order.
func Domains() []Domain {
	seen := make(map[Domain]bool)
	var out []Domain
	for _, info := range catalog {
		if !seen[info.Domain] {
			seen[info.Domain] = true
			out = append(out, info.Domain)
		}
	}
	return out
}

// ByDomain returns the categories of each domain.
func ByDomain() map[Domain][]Category {
	out := make(map[Domain][]Category)
	for _, info := range catalog {
		out[info.Domain] = append(out[info.Domain], info.ID)
	}
	return out
}

// Sorted returns cs sorted by catalog position. Unknown categories sort last, by name.
func Sorted(cs []Category) []Category {
	out := append([]Category(nil), cs...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, oki := index[out[i]]
		pj, okj := index[out[j]]
		switch {
		case oki && okj:
			return pi < pj
		case oki != okj:
			return oki
		default:
			return out[i] < out[j]
		}
	})
	return out
}
