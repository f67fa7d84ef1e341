package sandbox

import (
	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
)

// Action is a state transition request. The set is closed.
type Action interface {
	Name() string
	action()
}

// ToggleRule flips one rule's enabled flag.
type ToggleRule struct {
	Category category.Category
}

// UpdateRuleConfig merges Config into one rule's config.
type UpdateRuleConfig struct {
	Category category.Category
	Config   category.Config
}

// UpdateProfileRuleConfig sets the config override for one profile and category.
type UpdateProfileRuleConfig struct {
	ProfileID string
	Category  category.Category
	Config    category.Config
}

// PreviewStart begins an enforcement run.
type PreviewStart struct{}

// PreviewComplete delivers the enforcement result of the run in flight.
type PreviewComplete struct {
	Result enforce.Result
}

// Commit adopts the previewed profiles.
type Commit struct{}

// Discard drops the preview.
type Discard struct{}

// Reset restores provider defaults and clears history.
type Reset struct{}

func (ToggleRule) Name() string              { return "TOGGLE_RULE" }
func (UpdateRuleConfig) Name() string        { return "UPDATE_RULE_CONFIG" }
func (UpdateProfileRuleConfig) Name() string { return "UPDATE_PROFILE_RULE_CONFIG" }
func (PreviewStart) Name() string            { return "PREVIEW_START" }
func (PreviewComplete) Name() string         { return "PREVIEW_COMPLETE" }
func (Commit) Name() string                  { return "COMMIT" }
func (Discard) Name() string                 { return "DISCARD" }
func (Reset) Name() string                   { return "RESET" }

func (ToggleRule) action()              {}
func (UpdateRuleConfig) action()        {}
func (UpdateProfileRuleConfig) action() {}
func (PreviewStart) action()            {}
func (PreviewComplete) action()         {}
func (Commit) action()                  {}
func (Discard) action()                 {}
func (Reset) action()                   {}
