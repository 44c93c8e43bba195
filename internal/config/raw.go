package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawHistoryConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Path    *string `yaml:"path"`
	Keep    *int    `yaml:"keep"`
}

type RawLoggingConfig struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

// RawConfig is one file as written: unset fields stay nil so later files
// only override what they mention.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	ProfilesDir          *string           `yaml:"profiles_dir"`
	History              *RawHistoryConfig `yaml:"history"`
	PowerOffDelayMS      *int              `yaml:"power_off_delay_ms"`
	Hotkeys              *[]HotkeyBinding  `yaml:"hotkeys"`
	HotkeyRateLimitMS    *int              `yaml:"hotkey_rate_limit_ms"`
	PaletteBackend       *string           `yaml:"palette_backend"`
	PaletteFuzzyMatching *bool             `yaml:"palette_fuzzy_matching"`
	Display              *string           `yaml:"display"`
	XAuthority           *string           `yaml:"xauthority"`
	Logging              *RawLoggingConfig `yaml:"logging"`
}

func (r RawConfig) merge(over RawConfig) RawConfig {
	out := r
	out.Include = nil
	if over.ProfilesDir != nil {
		out.ProfilesDir = over.ProfilesDir
	}
	if over.History != nil {
		h := RawHistoryConfig{}
		if r.History != nil {
			h = *r.History
		}
		if over.History.Enabled != nil {
			h.Enabled = over.History.Enabled
		}
		if over.History.Path != nil {
			h.Path = over.History.Path
		}
		if over.History.Keep != nil {
			h.Keep = over.History.Keep
		}
		out.History = &h
	}
	if over.PowerOffDelayMS != nil {
		out.PowerOffDelayMS = over.PowerOffDelayMS
	}
	if over.Hotkeys != nil {
		// Hotkey lists replace rather than append so a file can clear them.
		out.Hotkeys = over.Hotkeys
	}
	if over.HotkeyRateLimitMS != nil {
		out.HotkeyRateLimitMS = over.HotkeyRateLimitMS
	}
	if over.PaletteBackend != nil {
		out.PaletteBackend = over.PaletteBackend
	}
	if over.PaletteFuzzyMatching != nil {
		out.PaletteFuzzyMatching = over.PaletteFuzzyMatching
	}
	if over.Display != nil {
		out.Display = over.Display
	}
	if over.XAuthority != nil {
		out.XAuthority = over.XAuthority
	}
	if over.Logging != nil {
		l := RawLoggingConfig{}
		if r.Logging != nil {
			l = *r.Logging
		}
		if over.Logging.Level != nil {
			l.Level = over.Logging.Level
		}
		if over.Logging.File != nil {
			l.File = over.Logging.File
		}
		out.Logging = &l
	}
	return out
}
