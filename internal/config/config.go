// Package config provides configuration loading and defaults for the carp
// daemon.
//
// Configuration is loaded from a TOML file in the user's data directory
// (~/.carp/config.toml). It holds the Discord application ID, daemon
// behavior settings, and the ordered target list that maps process names
// to presence text. Target order is priority order: when several target
// processes run at once, the earliest entry wins. The file is read once at
// startup and treated as read-only for the lifetime of the run.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/timbits/carp/internal/atomicfile"
	"github.com/timbits/carp/internal/migrate"
	"github.com/timbits/carp/internal/paths"
)

// DefaultMaxLineCells is the per-line display budget in cells. Discord
// starts eliding a presence line at roughly this rendered width.
const DefaultMaxLineCells = 35

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Discord holds Discord connection settings.
	Discord DiscordConfig `toml:"discord"`
	// Display holds presence display settings.
	Display DisplayConfig `toml:"display"`
	// Behavior holds daemon behavior settings.
	Behavior BehaviorConfig `toml:"behavior"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
	// Targets is the user-authored, priority-ordered rule list.
	Targets []Target `toml:"targets"`
}

// Target maps one process name to the presence shown while it runs.
type Target struct {
	// Process is the base process name to look for (e.g. "code").
	Process string `toml:"process"`
	// Details is the template for the top presence line. Supports the
	// {process} placeholder.
	Details string `toml:"details"`
	// State is the optional template for the bottom presence line. When
	// empty, overflow from Details flows into it.
	State string `toml:"state,omitempty"`
	// LargeImage is the Discord asset key or image URL for the large icon.
	LargeImage string `toml:"large_image"`
	// SmallImage is the optional asset key or URL for the small overlay icon.
	SmallImage string `toml:"small_image,omitempty"`
	// Match selects the matching mode: "exact" (default) or "glob".
	Match string `toml:"match,omitempty"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	// AppID is the Discord application ID for Rich Presence.
	AppID string `toml:"app_id"`
}

// DisplayConfig holds presence display settings.
type DisplayConfig struct {
	// MaxLineCells is the per-line display budget in cells.
	MaxLineCells int `toml:"max_line_cells"`
	// LargeText is the tooltip shown over the large image.
	LargeText string `toml:"large_text"`
}

// BehaviorConfig holds daemon behavior settings.
type BehaviorConfig struct {
	// PollIntervalSeconds is the process scan interval.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	// ReconnectMinSeconds is the initial Discord reconnect backoff.
	ReconnectMinSeconds int `toml:"reconnect_min_seconds"`
	// ReconnectMaxSeconds is the backoff ceiling.
	ReconnectMaxSeconds int `toml:"reconnect_max_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Defaults
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults. The
// target list starts empty; `carp run` refuses to start until at least one
// target is configured.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Discord: DiscordConfig{
			AppID: "",
		},
		Display: DisplayConfig{
			MaxLineCells: DefaultMaxLineCells,
			LargeText:    "",
		},
		Behavior: BehaviorConfig{
			PollIntervalSeconds: 2,
			ReconnectMinSeconds: 1,
			ReconnectMaxSeconds: 60,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config with one sample target, mirroring the
// commented-out sample in config.default.toml.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Targets = []Target{
		{
			Process:    "code",
			Details:    "Editing in VS Code",
			LargeImage: "vscode",
		},
	}
	return cfg
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig. Schema migrations are
// applied (with a .bak backup) before parsing.
func Load(dataDir string) (*Config, error) {
	path := paths.DataDir{Root: dataDir}.Config()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)

	migrated := migrate.Config.NeedsMigration(version)
	if migrated {
		if backupErr := os.WriteFile(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		var migrateErr error
		data, _, migrateErr = migrate.Config.Run(data, version)
		if migrateErr != nil {
			return nil, fmt.Errorf("migrate config: %w", migrateErr)
		}
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = migrate.Config.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Re-save after migration so the next load is clean.
	if migrated {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}

	return cfg, nil
}

// Save writes the config to disk as TOML using an atomic file write.
func (c *Config) Save(path string) error {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, []byte(sb.String()), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// appIDRegex matches a Discord application ID: a numeric snowflake.
var appIDRegex = regexp.MustCompile(`^[0-9]{15,21}$`)

// templateTokenRegex finds {placeholder} tokens in display templates.
var templateTokenRegex = regexp.MustCompile(`\{[^{}]*\}`)

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// ValidateTemplate checks that a display template uses only the supported
// {process} placeholder. Template schemas are fixed and validated at load
// time rather than interpolated free-form.
func ValidateTemplate(tpl string) error {
	for _, tok := range templateTokenRegex.FindAllString(tpl, -1) {
		if tok != "{process}" {
			return fmt.Errorf("unknown template placeholder %s (only {process} is supported)", tok)
		}
	}
	return nil
}

// ExpandTemplate substitutes the {process} placeholder in a template.
func ExpandTemplate(tpl, process string) string {
	return strings.ReplaceAll(tpl, "{process}", process)
}

// Validate checks structural configuration values. It does not require a
// Discord app ID or any targets; see [Config.ValidateForRun] for the
// stricter checks the daemon applies.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be debug, info, warn, or error", c.Log.Level)
	}

	if c.Behavior.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be > 0, got %d", c.Behavior.PollIntervalSeconds)
	}
	if c.Behavior.ReconnectMinSeconds <= 0 {
		return fmt.Errorf("reconnect_min_seconds must be > 0, got %d", c.Behavior.ReconnectMinSeconds)
	}
	if c.Behavior.ReconnectMaxSeconds < c.Behavior.ReconnectMinSeconds {
		return fmt.Errorf("reconnect_max_seconds must be >= reconnect_min_seconds, got %d < %d",
			c.Behavior.ReconnectMaxSeconds, c.Behavior.ReconnectMinSeconds)
	}
	if c.Display.MaxLineCells <= 0 {
		return fmt.Errorf("max_line_cells must be > 0, got %d", c.Display.MaxLineCells)
	}

	seen := make(map[string]bool, len(c.Targets))
	for i, tgt := range c.Targets {
		if tgt.Process == "" {
			return fmt.Errorf("targets[%d]: process must not be empty", i)
		}
		if seen[tgt.Process] {
			return fmt.Errorf("targets[%d]: duplicate process %q", i, tgt.Process)
		}
		seen[tgt.Process] = true

		switch tgt.Match {
		case "", "exact":
		case "glob":
			if !doublestar.ValidatePattern(tgt.Process) {
				return fmt.Errorf("targets[%d]: invalid glob pattern %q", i, tgt.Process)
			}
		default:
			return fmt.Errorf("targets[%d]: invalid match mode %q: must be exact or glob", i, tgt.Match)
		}

		if err := ValidateTemplate(tgt.Details); err != nil {
			return fmt.Errorf("targets[%d].details: %w", i, err)
		}
		if err := ValidateTemplate(tgt.State); err != nil {
			return fmt.Errorf("targets[%d].state: %w", i, err)
		}
	}

	return nil
}

// ValidateForRun applies the checks that are fatal at daemon startup: a
// structurally valid Discord application ID and a non-empty target list.
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Discord.AppID == "" {
		return fmt.Errorf("no Discord application ID configured: set one with `carp config id <client-id>`")
	}
	if !appIDRegex.MatchString(c.Discord.AppID) {
		return fmt.Errorf("invalid Discord application ID %q: must be a numeric snowflake", c.Discord.AppID)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("no targets configured: add one with `carp config add`")
	}
	return nil
}
