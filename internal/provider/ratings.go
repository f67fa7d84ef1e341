package provider

import (
	"fmt"
	"strings"
)

// Ladder is a provider's maturity tiers ordered from least to most permissive,
// plus a mapping from generic film ratings onto those tiers.
type Ladder struct {
	tiers   []string
	generic map[string]string
}

// GenericRatings lists the generic ratings every ladder maps.
var GenericRatings = []string{"G", "PG", "PG-13", "R", "NC-17"}

func newLadder(tiers []string, generic map[string]string) Ladder {
	l := Ladder{tiers: tiers, generic: make(map[string]string, len(generic))}
	for k, v := range generic {
		if _, ok := l.Rank(v); !ok {
			panic(fmt.Sprintf("generic rating %s maps to unknown tier %s", k, v))
		}
		l.generic[strings.ToUpper(k)] = v
	}
	for _, g := range GenericRatings {
		if _, ok := l.generic[g]; !ok {
			panic(fmt.Sprintf("ladder is missing generic rating %s", g))
		}
	}
	return l
}

// Tiers returns the native tiers, least permissive first.
func (l Ladder) Tiers() []string {
	return append([]string(nil), l.tiers...)
}

// Rank returns the position of a native tier (case-insensitive).
func (l Ladder) Rank(tier string) (int, bool) {
	for i, t := range l.tiers {
		if strings.EqualFold(t, strings.TrimSpace(tier)) {
			return i, true
		}
	}
	return 0, false
}

// Resolve maps a native tier or a generic rating to a native tier.
// Native tiers win when a string is both.
func (l Ladder) Resolve(rating string) (string, error) {
	if i, ok := l.Rank(rating); ok {
		return l.tiers[i], nil
	}
	if t, ok := l.generic[strings.ToUpper(strings.TrimSpace(rating))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown rating %q", rating)
}

// Min returns the less permissive of two native tiers. Unknown tiers rank above all known ones.
func (l Ladder) Min(a, b string) string {
	ra, oka := l.Rank(a)
	rb, okb := l.Rank(b)
	switch {
	case !oka:
		return b
	case !okb:
		return a
	case ra <= rb:
		return l.tiers[ra]
	default:
		return l.tiers[rb]
	}
}

// Exceeds reports whether tier is more permissive than ceiling.
// Unknown tiers are treated as exceeding any ceiling.
func (l Ladder) Exceeds(tier, ceiling string) bool {
	rt, ok := l.Rank(tier)
	if !ok {
		return true
	}
	rc, ok := l.Rank(ceiling)
	if !ok {
		return false
	}
	return rt > rc
}
