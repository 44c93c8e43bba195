package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPowerOffDelayMS   = 500
	DefaultHotkeyRateLimitMS = 1000
	DefaultHistoryKeep       = 20
)

// HotkeyAction is what a daemon hotkey does when pressed.
type HotkeyAction string

const (
	ActionLoad     HotkeyAction = "load"
	ActionPowerOff HotkeyAction = "power-off"
	ActionUndo     HotkeyAction = "undo"
	ActionPalette  HotkeyAction = "palette"
)

// HotkeyBinding binds an X11 key sequence (e.g. "Mod4-Shift-1") to an action.
type HotkeyBinding struct {
	Key     string       `yaml:"key"`
	Profile string       `yaml:"profile,omitempty"`
	Action  HotkeyAction `yaml:"action,omitempty"`
}

// EffectiveAction returns the action, defaulting to load.
func (b HotkeyBinding) EffectiveAction() HotkeyAction {
	if b.Action == "" {
		return ActionLoad
	}
	return b.Action
}

// HistoryConfig controls the undo snapshot database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path of the sqlite database (default: ~/.local/share/monswitch/history.db)
	Path string `yaml:"path,omitempty"`
	// Keep is how many snapshots survive pruning (default: 20)
	Keep int `yaml:"keep"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// File is the JSON log file (default: ~/.local/share/monswitch/monswitch.log)
	File string `yaml:"file,omitempty"`
}

type Config struct {
	ProfilesDir       string          `yaml:"profiles_dir,omitempty"`
	History           HistoryConfig   `yaml:"history"`
	PowerOffDelayMS   int             `yaml:"power_off_delay_ms"`
	Hotkeys           []HotkeyBinding `yaml:"hotkeys,omitempty"`
	HotkeyRateLimitMS int             `yaml:"hotkey_rate_limit_ms"`
	PaletteBackend    string          `yaml:"palette_backend"`
	// PaletteFuzzyMatching switches rofi to fuzzy matching; other backends
	// ignore it.
	PaletteFuzzyMatching bool          `yaml:"palette_fuzzy_matching"`
	Display              string        `yaml:"display,omitempty"`
	XAuthority           string        `yaml:"xauthority,omitempty"`
	Logging              LoggingConfig `yaml:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			Enabled: true,
			Keep:    DefaultHistoryKeep,
		},
		PowerOffDelayMS:   DefaultPowerOffDelayMS,
		HotkeyRateLimitMS: DefaultHotkeyRateLimitMS,
		PaletteBackend:    "auto",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// PowerOffDelay returns the grace delay before displays are turned off.
func (c *Config) PowerOffDelay() time.Duration {
	return time.Duration(c.PowerOffDelayMS) * time.Millisecond
}

// HotkeyRateLimit returns the minimum interval between hotkey actions.
func (c *Config) HotkeyRateLimit() time.Duration {
	return time.Duration(c.HotkeyRateLimitMS) * time.Millisecond
}

// HistoryPath returns the history database path with defaults applied.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return expandHome(c.History.Path)
	}
	return filepath.Join(dataDir(), "history.db")
}

// ProfilesPath returns the configured profiles directory, or "" to let the
// store pick its default.
func (c *Config) ProfilesPath() string {
	return expandHome(c.ProfilesDir)
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	cfg := c.Logging
	if cfg.File == "" {
		cfg.File = filepath.Join(dataDir(), "monswitch.log")
	} else {
		cfg.File = expandHome(cfg.File)
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.PaletteBackend {
	case "auto", "rofi", "fuzzel", "dmenu", "wofi":
	default:
		return &ValidationError{Path: "palette_backend", Err: fmt.Errorf("palette_backend must be one of: auto, rofi, fuzzel, dmenu, wofi")}
	}
	if c.PowerOffDelayMS < 0 {
		return &ValidationError{Path: "power_off_delay_ms", Err: fmt.Errorf("power_off_delay_ms must be >= 0")}
	}
	if c.HotkeyRateLimitMS < 0 {
		return &ValidationError{Path: "hotkey_rate_limit_ms", Err: fmt.Errorf("hotkey_rate_limit_ms must be >= 0")}
	}
	if c.History.Keep < 1 {
		return &ValidationError{Path: "history.keep", Err: fmt.Errorf("history.keep must be >= 1")}
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Path: "logging.level", Err: err}
	}

	seen := make(map[string]int)
	for i, hk := range c.Hotkeys {
		path := fmt.Sprintf("hotkeys[%d]", i)
		key := strings.TrimSpace(hk.Key)
		if key == "" {
			return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("%s: key is required", path)}
		}
		if prev, ok := seen[key]; ok {
			return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("%s: key %q already bound by hotkeys[%d]", path, key, prev)}
		}
		seen[key] = i

		switch hk.EffectiveAction() {
		case ActionLoad:
			if strings.TrimSpace(hk.Profile) == "" {
				return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("%s: profile is required for action load", path)}
			}
		case ActionPowerOff, ActionUndo, ActionPalette:
			if hk.Profile != "" {
				return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("%s: profile is only valid for action load", path)}
			}
		default:
			return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("%s: action must be one of: load, power-off, undo, palette", path)}
		}
	}
	return nil
}

func dataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "monswitch")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "monswitch")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
