package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// MaxInputChars caps the length of one capture line (runes).
	MaxInputChars int `json:"max_input_chars"`

	// DefaultListLimit is the page size used when a list request sets none.
	DefaultListLimit int `json:"default_list_limit,omitempty"`

	// DisableProjectAutocreate makes an unknown @project a NOT_FOUND error
	// instead of creating the project on first use.
	DisableProjectAutocreate bool `json:"disable_project_autocreate,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export.
	// Paths outside ~/.jot/exports must be listed here unless AllowUnsafePaths is set.
	// Relative entries are ignored.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits open database connections. 0 keeps the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 keeps the sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools lists MCP tool names to leave unregistered.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes disables every MCP tool of a type ("capture", "project").
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// WebBind and WebPort set the web UI listen address.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxInputChars:    2000,
		DefaultListLimit: 20,
		WebBind:          "127.0.0.1",
		WebPort:          7373,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads the global config from globalDir and the nearest
// .jot/config.json found walking upward from startDir.
// Precedence: defaults, then global, then repo.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .jot/config.json.
// Returns "" if none exists.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".jot", "config.json")
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

// loadFileRaw returns a zero-valued config (not defaults) when the file is missing.
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
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Scalars: overlay wins if non-zero. Booleans: either side true. Arrays: merged, deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		MaxInputChars:            pickInt(overlay.MaxInputChars, base.MaxInputChars),
		DefaultListLimit:         pickInt(overlay.DefaultListLimit, base.DefaultListLimit),
		DBMaxOpenConns:           pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:           pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		WebPort:                  pickInt(overlay.WebPort, base.WebPort),
		WebBind:                  pickString(overlay.WebBind, base.WebBind),
		DisableProjectAutocreate: base.DisableProjectAutocreate || overlay.DisableProjectAutocreate,
		AllowUnsafePaths:         base.AllowUnsafePaths || overlay.AllowUnsafePaths,
		AllowedPaths:             mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		DisabledTools:            mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes:            mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
