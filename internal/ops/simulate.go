package ops

import (
	"context"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/manifest"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/scenario"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/score"
)

// SimulateInput contains parameters for the Simulate operation.
type SimulateInput struct {
	Plan       *scenario.Plan
	Commit     bool   // commit the preview (also set by the plan)
	Export     bool   // write the manifest file; implies Commit
	ExportPath string // optional, default ~/.phosra/exports/<provider>-<snapshot>.json
}

// SimulateOutput contains the result of the Simulate operation.
type SimulateOutput struct {
	SessionID string               `json:"session_id"`
	Preview   *PreviewOutput       `json:"preview"`
	Scores    []score.ProfileScore `json:"scores"`
	Snapshot  *sandbox.Snapshot    `json:"snapshot,omitempty"`
	Manifest  *manifest.Document   `json:"manifest,omitempty"`
	Path      string               `json:"path,omitempty"`
	Archived  bool                 `json:"archived,omitempty"`
}

// Simulate runs a resolved scenario through a fresh session: enable its rules,
// apply its overrides, preview, and optionally commit and export.
func Simulate(ctx context.Context, env *Env, input SimulateInput) (*SimulateOutput, error) {
	plan := input.Plan
	if plan == nil || plan.Provider == nil {
		return nil, errors.NewInvalidRequest("scenario plan is required")
	}

	created, err := CreateSession(env, CreateSessionInput{
		Provider: string(plan.Provider.ID()),
		Profiles: plan.Profiles,
	})
	if err != nil {
		return nil, err
	}
	id := created.SessionID

	for _, r := range plan.Rules {
		if !r.Enabled {
			continue
		}
		if _, err := dispatch(env, id, sandbox.ToggleRule{Category: r.Category}); err != nil {
			return nil, err
		}
		if _, err := dispatch(env, id, sandbox.UpdateRuleConfig{Category: r.Category, Config: r.Config.Clone()}); err != nil {
			return nil, err
		}
	}
	for profileID, byCategory := range plan.Overrides {
		for c, cfg := range byCategory {
			a := sandbox.UpdateProfileRuleConfig{ProfileID: profileID, Category: c, Config: cfg.Clone()}
			if _, err := dispatch(env, id, a); err != nil {
				return nil, err
			}
		}
	}

	preview, err := Preview(ctx, env, PreviewInput{SessionID: id})
	if err != nil {
		return nil, err
	}
	scores, err := Scores(env, ScoresInput{SessionID: id})
	if err != nil {
		return nil, err
	}
	out := &SimulateOutput{SessionID: id, Preview: preview, Scores: scores.Scores}

	if !(input.Commit || input.Export || plan.Commit) {
		return out, nil
	}
	committed, err := Commit(ctx, env, CommitInput{SessionID: id})
	if err != nil {
		return nil, err
	}
	out.Snapshot = &committed.Snapshot
	out.Archived = committed.Archived

	exported, err := ExportManifest(ctx, env, ExportManifestInput{
		SessionID:  id,
		SnapshotID: committed.Snapshot.ID,
		Path:       input.ExportPath,
		WriteFile:  input.Export,
	})
	if err != nil {
		return nil, err
	}
	out.Manifest = &exported.Manifest
	out.Path = exported.Path
	return out, nil
}
