package ops

import (
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// ToggleRuleInput contains parameters for the ToggleRule operation.
type ToggleRuleInput struct {
	SessionID string
	Category  string
}

// ToggleRule flips the enabled flag of one rule.
func ToggleRule(env *Env, input ToggleRuleInput) (*StateOutput, error) {
	return dispatch(env, input.SessionID, sandbox.ToggleRule{
		Category: parseCategory(input.Category),
	})
}

// UpdateRuleConfigInput contains parameters for the UpdateRuleConfig operation.
type UpdateRuleConfigInput struct {
	SessionID string
	Category  string
	Config    map[string]any // merged into the rule config; nil values remove keys
}

// UpdateRuleConfig merges config into one rule's config.
func UpdateRuleConfig(env *Env, input UpdateRuleConfigInput) (*StateOutput, error) {
	return dispatch(env, input.SessionID, sandbox.UpdateRuleConfig{
		Category: parseCategory(input.Category),
		Config:   category.Config(input.Config),
	})
}

// UpdateProfileRuleConfigInput contains parameters for the UpdateProfileRuleConfig operation.
type UpdateProfileRuleConfigInput struct {
	SessionID string
	ProfileID string
	Category  string
	Config    map[string]any // replaces the rule config for this profile
}

// UpdateProfileRuleConfig sets a per-profile override for one rule.
func UpdateProfileRuleConfig(env *Env, input UpdateProfileRuleConfigInput) (*StateOutput, error) {
	profileID, err := requireID("profile_id", input.ProfileID)
	if err != nil {
		return nil, err
	}
	return dispatch(env, input.SessionID, sandbox.UpdateProfileRuleConfig{
		ProfileID: profileID,
		Category:  parseCategory(input.Category),
		Config:    category.Config(input.Config),
	})
}

// ResetInput contains parameters for the Reset operation.
type ResetInput struct {
	SessionID string
}

// Reset returns a session to its provider defaults, dropping history.
func Reset(env *Env, input ResetInput) (*StateOutput, error) {
	return dispatch(env, input.SessionID, sandbox.Reset{})
}

func parseCategory(s string) category.Category {
	return category.Category(strings.ToLower(strings.TrimSpace(s)))
}
