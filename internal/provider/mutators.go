package provider

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
)

// maturityRating lowers a profile's maturity tier to the configured maxRating.
// Kids profiles are clamped to the kids ceiling before comparing, and a
// profile already at or below the target is left alone.
func maturityRating(l Ladder, kidsCeiling, setting string) Mutator {
	return func(p *Profile, cfg category.Config) ([]FieldChange, error) {
		requested, err := cfg.StringOr("maxRating", "PG-13")
		if err != nil {
			return nil, errors.NewInvalidConfig(string(category.ContentRating), "maxRating", err.Error())
		}
		target, err := l.Resolve(requested)
		if err != nil {
			return nil, errors.NewInvalidConfig(string(category.ContentRating), "maxRating", err.Error())
		}
		if p.Type == Kids {
			target = l.Min(target, kidsCeiling)
		}

		if !l.Exceeds(p.MaturityRating, target) {
			return nil, nil
		}

		old := p.MaturityRating
		p.MaturityRating = target
		return []FieldChange{{
			Field:       "maturity_rating",
			Old:         old,
			New:         target,
			Description: fmt.Sprintf("%s lowered from %s to %s", setting, old, target),
		}}, nil
	}
}

// blockTitles adds the configured titles to the profile's restriction list.
func blockTitles(setting string) Mutator {
	return func(p *Profile, cfg category.Config) ([]FieldChange, error) {
		titles, err := cfg.Strings("titles")
		if err != nil {
			return nil, errors.NewInvalidConfig(string(category.ContentBlockTitle), "titles", err.Error())
		}

		existing := make(map[string]bool, len(p.BlockedTitles))
		for _, t := range p.BlockedTitles {
			existing[strings.ToLower(t)] = true
		}
		var added []string
		for _, t := range titles {
			key := strings.ToLower(t)
			if !existing[key] {
				existing[key] = true
				added = append(added, t)
			}
		}
		if len(added) == 0 {
			return nil, nil
		}

		old := cloneStrings(p.BlockedTitles)
		next := append(cloneStrings(p.BlockedTitles), added...)
		sort.Strings(next)
		p.BlockedTitles = next
		return []FieldChange{{
			Field:       "blocked_titles",
			Old:         old,
			New:         cloneStrings(next),
			Description: fmt.Sprintf("%s: blocked %s", setting, strings.Join(added, ", ")),
		}}, nil
	}
}

// profileLock locks the profile behind a 4-digit PIN. The PIN comes from the
// config when given, otherwise it is derived from the provider and profile id
// so repeated runs stay deterministic.
func profileLock(id ID, setting string) Mutator {
	return func(p *Profile, cfg category.Config) ([]FieldChange, error) {
		if p.ProfileLock {
			return nil, nil
		}
		pin, err := cfg.StringOr("pin", "")
		if err != nil {
			return nil, errors.NewInvalidConfig(string(category.PurchaseApproval), "pin", err.Error())
		}
		if pin != "" && !validPIN(pin) {
			return nil, errors.NewInvalidConfig(string(category.PurchaseApproval), "pin", "must be exactly 4 digits")
		}
		if pin == "" {
			pin = derivePIN(id, p.ID)
		}

		p.ProfileLock = true
		p.PIN = pin
		return []FieldChange{{
			Field:       "profile_lock",
			Old:         false,
			New:         true,
			Description: fmt.Sprintf("%s enabled with a 4-digit PIN", setting),
		}}, nil
	}
}

// setFlag drives one boolean profile field to want.
func setFlag(field string, get func(*Profile) *bool, want bool, description string) Mutator {
	return func(p *Profile, _ category.Config) ([]FieldChange, error) {
		v := get(p)
		if *v == want {
			return nil, nil
		}
		old := *v
		*v = want
		return []FieldChange{{
			Field:       field,
			Old:         old,
			New:         want,
			Description: description,
		}}, nil
	}
}

// timeLimitBadge marks the profile's daily limit as managed by the platform.
func timeLimitBadge() Mutator {
	return setFlag("time_limit_managed", func(p *Profile) *bool { return &p.TimeLimitManaged }, true,
		"Daily time limit managed by Phosra (not available natively)")
}

// scheduleBadge marks the profile's allowed hours as managed by the platform.
func scheduleBadge() Mutator {
	return setFlag("schedule_managed", func(p *Profile) *bool { return &p.ScheduleManaged }, true,
		"Allowed hours managed by Phosra (not available natively)")
}

func validPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func derivePIN(id ID, profileID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(string(id) + ":" + profileID))
	return fmt.Sprintf("%04d", h.Sum32()%10000)
}
