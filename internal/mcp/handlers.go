package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// SessionRequest is the argument of tools that only need a session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// CreateRequest represents the arguments for sandbox_create.
type CreateRequest struct {
	Provider string `json:"provider,omitempty"`
}

// RuleRequest represents the arguments for sandbox_toggle_rule.
type RuleRequest struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
}

// RuleConfigRequest represents the arguments for sandbox_update_rule_config.
type RuleConfigRequest struct {
	SessionID string         `json:"session_id"`
	Category  string         `json:"category"`
	Config    map[string]any `json:"config"`
}

// ProfileRuleConfigRequest represents the arguments for sandbox_update_profile_rule_config.
type ProfileRuleConfigRequest struct {
	SessionID string         `json:"session_id"`
	ProfileID string         `json:"profile_id"`
	Category  string         `json:"category"`
	Config    map[string]any `json:"config"`
}

// ExportManifestRequest represents the arguments for manifest_export.
type ExportManifestRequest struct {
	SessionID  string `json:"session_id"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path,omitempty"`
	WriteFile  bool   `json:"write_file,omitempty"`
}

// ListManifestsRequest represents the arguments for manifest_list.
type ListManifestsRequest struct {
	Provider  string `json:"provider,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// FetchManifestRequest represents the arguments for manifest_fetch.
type FetchManifestRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

// CategoriesRequest represents the arguments for catalog_categories.
type CategoriesRequest struct {
	Domain string `json:"domain,omitempty"`
}

// Handler implementations

// HandleCreate handles sandbox_create.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.CreateSession(h.env, ops.CreateSessionInput{Provider: input.Provider}))
}

// HandleState handles sandbox_state.
func (h *Handlers) HandleState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.GetState(h.env, ops.GetStateInput{SessionID: input.SessionID}))
}

// HandleClose handles sandbox_close.
func (h *Handlers) HandleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.CloseSession(h.env, ops.CloseSessionInput{SessionID: input.SessionID}))
}

// HandleToggleRule handles sandbox_toggle_rule.
func (h *Handlers) HandleToggleRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RuleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ToggleRule(h.env, ops.ToggleRuleInput{
		SessionID: input.SessionID,
		Category:  input.Category,
	}))
}

// HandleUpdateRuleConfig handles sandbox_update_rule_config.
func (h *Handlers) HandleUpdateRuleConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RuleConfigRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Config == nil {
		return errorResult(errors.NewInvalidRequest("config is required")), nil
	}
	return respond(ops.UpdateRuleConfig(h.env, ops.UpdateRuleConfigInput{
		SessionID: input.SessionID,
		Category:  input.Category,
		Config:    input.Config,
	}))
}

// HandleUpdateProfileRuleConfig handles sandbox_update_profile_rule_config.
func (h *Handlers) HandleUpdateProfileRuleConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProfileRuleConfigRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Config == nil {
		return errorResult(errors.NewInvalidRequest("config is required")), nil
	}
	return respond(ops.UpdateProfileRuleConfig(h.env, ops.UpdateProfileRuleConfigInput{
		SessionID: input.SessionID,
		ProfileID: input.ProfileID,
		Category:  input.Category,
		Config:    input.Config,
	}))
}

// HandlePreview handles sandbox_preview.
func (h *Handlers) HandlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Preview(ctx, h.env, ops.PreviewInput{SessionID: input.SessionID}))
}

// HandleCommit handles sandbox_commit.
func (h *Handlers) HandleCommit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Commit(ctx, h.env, ops.CommitInput{SessionID: input.SessionID}))
}

// HandleDiscard handles sandbox_discard.
func (h *Handlers) HandleDiscard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Discard(h.env, ops.DiscardInput{SessionID: input.SessionID}))
}

// HandleReset handles sandbox_reset.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Reset(h.env, ops.ResetInput{SessionID: input.SessionID}))
}

// HandleScores handles sandbox_scores.
func (h *Handlers) HandleScores(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Scores(h.env, ops.ScoresInput{SessionID: input.SessionID}))
}

// HandleExportManifest handles manifest_export.
func (h *Handlers) HandleExportManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportManifestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ExportManifest(ctx, h.env, ops.ExportManifestInput{
		SessionID:  input.SessionID,
		SnapshotID: input.SnapshotID,
		Path:       input.Path,
		WriteFile:  input.WriteFile,
	}))
}

// HandleListManifests handles manifest_list.
func (h *Handlers) HandleListManifests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListManifestsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ListManifests(h.env, ops.ListManifestsInput{
		Provider:  input.Provider,
		SessionID: input.SessionID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	}))
}

// HandleFetchManifest handles manifest_fetch.
func (h *Handlers) HandleFetchManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchManifestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.FetchManifest(h.env, ops.FetchManifestInput{SnapshotID: input.SnapshotID}))
}

// HandleCategories handles catalog_categories.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CategoriesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Categories(ops.CategoriesInput{Domain: input.Domain}))
}

// HandleCapabilities handles catalog_capabilities.
func (h *Handlers) HandleCapabilities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Capabilities(h.env, ops.CapabilitiesInput{Provider: input.Provider}))
}

// respond turns an operation result into a tool result.
func respond[T any](out T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult renders err as an IsError result. INTERNAL errors carry no
// details so file paths and SQL text stay out of tool output.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := errors.As(err); ok {
		msg := sErr.Message
		if err != error(sErr) {
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": msg,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates a successful result with JSON content.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
