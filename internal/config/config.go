package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// DefaultProvider is used when a session or scenario names no provider.
	DefaultProvider string `json:"default_provider,omitempty"`

	// HistoryLimit bounds committed snapshots kept per session. Oldest go first.
	HistoryLimit int `json:"history_limit,omitempty"`

	// PreviewDelayMS is cosmetic pacing between PREVIEW_START and PREVIEW_COMPLETE.
	PreviewDelayMS int `json:"preview_delay_ms,omitempty"`

	// MaxSessions caps live sessions; the least recently used one is evicted.
	MaxSessions int `json:"max_sessions,omitempty"`

	// AllowedPaths is an allowlist of directories for manifest export.
	// Paths outside ~/.phosra/exports require being in this list or AllowUnsafePaths=true.
	// Relative entries are ignored.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction on manifest export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits open archive connections. 0 keeps the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle archive connections. 0 keeps the sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools lists MCP tool names to leave unregistered.
	// Unknown names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes disables every MCP tool of a type.
	// Known types: "sandbox", "manifest", "catalog".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultProvider: "netflix",
		HistoryLimit:    50,
		MaxSessions:     64,
	}
}

// PreviewDelay returns PreviewDelayMS as a duration.
func (c *Config) PreviewDelay() time.Duration {
	return time.Duration(c.PreviewDelayMS) * time.Millisecond
}

// Validate rejects negative limits.
func (c *Config) Validate() error {
	switch {
	case c.HistoryLimit < 0:
		return fmt.Errorf("history_limit must be >= 0, got %d", c.HistoryLimit)
	case c.PreviewDelayMS < 0:
		return fmt.Errorf("preview_delay_ms must be >= 0, got %d", c.PreviewDelayMS)
	case c.MaxSessions < 0:
		return fmt.Errorf("max_sessions must be >= 0, got %d", c.MaxSessions)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads the global config from globalDir and the nearest
// .phosra/config.json found walking upward from startDir.
// Repo values win for scalars; arrays are merged.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to the nearest .phosra/config.json.
// Returns "" when there is none.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".phosra", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero config (not defaults) when the file is missing.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge combines base and overlay. Non-zero overlay scalars win; arrays are
// merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		DefaultProvider: pickString(overlay.DefaultProvider, base.DefaultProvider),
		HistoryLimit:    pickInt(overlay.HistoryLimit, base.HistoryLimit),
		PreviewDelayMS:  pickInt(overlay.PreviewDelayMS, base.PreviewDelayMS),
		MaxSessions:     pickInt(overlay.MaxSessions, base.MaxSessions),
		DBMaxOpenConns:  pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:  pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),

		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,

		AllowedPaths:  mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		DisabledTools: mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes: mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
	result.DefaultProvider = strings.ToLower(strings.TrimSpace(result.DefaultProvider))
	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice concatenates a and b, trimming and dropping duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
