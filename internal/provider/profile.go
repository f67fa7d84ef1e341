package provider

import (
	"fmt"
	"strings"
)

// ProfileType is the canonical three-tier profile kind. Providers display
// their own vocabulary for it (see Provider.ProfileTypeLabel).
type ProfileType string

const (
	Adult    ProfileType = "adult"
	Standard ProfileType = "standard"
	Kids     ProfileType = "kids"
)

// ParseProfileType accepts the canonical names and the provider vocabulary
// ("teen", "junior", "child").
func ParseProfileType(s string) (ProfileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "adult", "owner":
		return Adult, nil
	case "standard", "teen":
		return Standard, nil
	case "kids", "kid", "junior", "child":
		return Kids, nil
	default:
		return "", fmt.Errorf("unknown profile type %q", s)
	}
}

// Profile is a simulated provider account profile.
type Profile struct {
	ID   string      `json:"id" yaml:"id"`
	Name string      `json:"name" yaml:"name"`
	Type ProfileType `json:"type" yaml:"type"`

	MaturityRating        string   `json:"maturity_rating" yaml:"maturity_rating"`
	BlockedTitles         []string `json:"blocked_titles" yaml:"blocked_titles"`
	ProfileLock           bool     `json:"profile_lock" yaml:"profile_lock"`
	PIN                   string   `json:"pin,omitempty" yaml:"pin,omitempty"`
	AdFree                bool     `json:"ad_free" yaml:"ad_free"`
	AutoplayNextEpisode   bool     `json:"autoplay_next_episode" yaml:"autoplay_next_episode"`
	AutoplayPreviews      bool     `json:"autoplay_previews" yaml:"autoplay_previews"`
	ActivityReview        bool     `json:"activity_review" yaml:"activity_review"`
	KidProofExit          bool     `json:"kid_proof_exit" yaml:"kid_proof_exit"`
	ProfileCreationLocked bool     `json:"profile_creation_locked" yaml:"profile_creation_locked"`

	// Badges set by the platform-managed fallback.
	TimeLimitManaged bool `json:"time_limit_managed" yaml:"time_limit_managed"`
	ScheduleManaged  bool `json:"schedule_managed" yaml:"schedule_managed"`

	RecentlyWatched []string `json:"recently_watched,omitempty" yaml:"recently_watched,omitempty"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	p.BlockedTitles = cloneStrings(p.BlockedTitles)
	p.RecentlyWatched = cloneStrings(p.RecentlyWatched)
	return p
}

// CloneProfiles deep-copies a profile collection.
func CloneProfiles(ps []Profile) []Profile {
	if ps == nil {
		return nil
	}
	out := make([]Profile, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// FindProfile returns the index of the profile with the given id, or -1.
func FindProfile(ps []Profile, id string) int {
	for i := range ps {
		if ps[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
