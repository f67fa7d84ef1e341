// Package mcp exposes sandbox operations as MCP tools over stdio.
package mcp

import (
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"sandbox", "manifest", "catalog"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"sandbox_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"sandbox_state": {
		def:     stateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleState },
	},
	"sandbox_close": {
		def:     closeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClose },
	},
	"sandbox_toggle_rule": {
		def:     toggleRuleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleToggleRule },
	},
	"sandbox_update_rule_config": {
		def:     updateRuleConfigToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdateRuleConfig },
	},
	"sandbox_update_profile_rule_config": {
		def:     updateProfileRuleConfigToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdateProfileRuleConfig },
	},
	"sandbox_preview": {
		def:     previewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePreview },
	},
	"sandbox_commit": {
		def:     commitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommit },
	},
	"sandbox_discard": {
		def:     discardToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDiscard },
	},
	"sandbox_reset": {
		def:     resetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReset },
	},
	"sandbox_scores": {
		def:     scoresToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleScores },
	},
	"manifest_export": {
		def:     exportManifestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExportManifest },
	},
	"manifest_list": {
		def:     listManifestsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListManifests },
	},
	"manifest_fetch": {
		def:     fetchManifestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetchManifest },
	},
	"catalog_categories": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
	"catalog_capabilities": {
		def:     capabilitiesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapabilities },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns the names that are not registered tools.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns the names that are not known tool types.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}
	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool returns the type prefix of a tool name
// ("sandbox_preview" → "sandbox").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server with the sandbox tools registered.
// Tools in DisabledTools or of a type in DisabledTypes are left out.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"phosra",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(env.Config.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range env.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the tools on stdio until stdin closes.
func Run(env *ops.Env, version string) error {
	return server.ServeStdio(NewServer(env, version))
}
