package mcp

import "github.com/mark3labs/mcp-go/mcp"

const sessionIDDesc = "Session id returned by sandbox_create."

var createToolDef = mcp.NewTool("sandbox_create",
	mcp.WithDescription("Start a sandbox session for a streaming provider. "+
		"The session starts from the provider's seed profiles with every rule disabled."),
	mcp.WithString("provider", mcp.Description("Provider id (netflix, disneyplus). Defaults to the configured provider.")),
)

var stateToolDef = mcp.NewTool("sandbox_state",
	mcp.WithDescription("Return the full state of a session: phase, profiles, rules, overrides, pending preview and history."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var closeToolDef = mcp.NewTool("sandbox_close",
	mcp.WithDescription("Drop a session and its history."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithDestructiveHintAnnotation(true),
)

var toggleRuleToolDef = mcp.NewTool("sandbox_toggle_rule",
	mcp.WithDescription("Flip one rule between enabled and disabled. Allowed in any phase; affects the next preview."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("category", mcp.Required(), mcp.Description("Rule category id, e.g. content_rating. See catalog_categories.")),
)

var updateRuleConfigToolDef = mcp.NewTool("sandbox_update_rule_config",
	mcp.WithDescription("Merge values into one rule's config. A null value removes the key."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("category", mcp.Required(), mcp.Description("Rule category id.")),
	mcp.WithObject("config", mcp.Required(), mcp.Description(`Config values, e.g. {"maxRating": "PG"}.`)),
)

var updateProfileRuleConfigToolDef = mcp.NewTool("sandbox_update_profile_rule_config",
	mcp.WithDescription("Override one rule's config for a single profile. The override replaces the rule config for that profile."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("profile_id", mcp.Required(), mcp.Description("Profile id from sandbox_state.")),
	mcp.WithString("category", mcp.Required(), mcp.Description("Rule category id.")),
	mcp.WithObject("config", mcp.Required(), mcp.Description("Config used for this profile instead of the rule config.")),
)

var previewToolDef = mcp.NewTool("sandbox_preview",
	mcp.WithDescription("Run the enforcement engine over the enabled rules. "+
		"Returns per-field changes and applied/skipped/platform_managed counts; the result waits for commit or discard."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
)

var commitToolDef = mcp.NewTool("sandbox_commit",
	mcp.WithDescription("Accept the pending preview: profiles take the previewed values and a snapshot is appended to history."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
)

var discardToolDef = mcp.NewTool("sandbox_discard",
	mcp.WithDescription("Drop the pending preview. Profiles and history are unchanged."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
)

var resetToolDef = mcp.NewTool("sandbox_reset",
	mcp.WithDescription("Return the session to the provider defaults, dropping rules, overrides and history."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithDestructiveHintAnnotation(true),
)

var scoresToolDef = mcp.NewTool("sandbox_scores",
	mcp.WithDescription("Protection score (0-10, at-risk/partial/protected) of every non-adult profile."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportManifestToolDef = mcp.NewTool("manifest_export",
	mcp.WithDescription("Build the versioned change manifest of a committed snapshot. "+
		"Optionally write it to a .json file in ~/.phosra/exports or an allowed path."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description(sessionIDDesc)),
	mcp.WithString("snapshot_id", mcp.Description("Snapshot id. Defaults to the latest commit.")),
	mcp.WithString("path", mcp.Description("File destination (.json).")),
	mcp.WithBoolean("write_file", mcp.Description("Write to path, or to the default exports directory when path is empty.")),
)

var listManifestsToolDef = mcp.NewTool("manifest_list",
	mcp.WithDescription("List archived manifests, newest first."),
	mcp.WithString("provider", mcp.Description("Filter by provider id.")),
	mcp.WithString("session_id", mcp.Description("Filter by session id.")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Items to skip.")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var fetchManifestToolDef = mcp.NewTool("manifest_fetch",
	mcp.WithDescription("Fetch one archived manifest by snapshot id."),
	mcp.WithString("snapshot_id", mcp.Required(), mcp.Description("Snapshot id.")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var categoriesToolDef = mcp.NewTool("catalog_categories",
	mcp.WithDescription("List the parental-control category catalog."),
	mcp.WithString("domain", mcp.Description("Only categories of this domain, e.g. time.")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var capabilitiesToolDef = mcp.NewTool("catalog_capabilities",
	mcp.WithDescription("Show which categories a provider enforces natively, which it leaves platform-managed, and its rating ladder."),
	mcp.WithString("provider", mcp.Description("Provider id. Defaults to the configured provider.")),
	mcp.WithReadOnlyHintAnnotation(true),
)
