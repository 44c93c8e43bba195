package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.ProfilesDir != nil {
		cfg.ProfilesDir = *raw.ProfilesDir
	}
	if h := raw.History; h != nil {
		if h.Enabled != nil {
			cfg.History.Enabled = *h.Enabled
		}
		if h.Path != nil {
			cfg.History.Path = *h.Path
		}
		if h.Keep != nil {
			cfg.History.Keep = *h.Keep
		}
	}
	if raw.PowerOffDelayMS != nil {
		cfg.PowerOffDelayMS = *raw.PowerOffDelayMS
	}
	if raw.Hotkeys != nil {
		cfg.Hotkeys = append([]HotkeyBinding(nil), (*raw.Hotkeys)...)
	}
	if raw.HotkeyRateLimitMS != nil {
		cfg.HotkeyRateLimitMS = *raw.HotkeyRateLimitMS
	}
	if raw.PaletteBackend != nil {
		cfg.PaletteBackend = *raw.PaletteBackend
	}
	if raw.PaletteFuzzyMatching != nil {
		cfg.PaletteFuzzyMatching = *raw.PaletteFuzzyMatching
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if l := raw.Logging; l != nil {
		if l.Level != nil {
			cfg.Logging.Level = *l.Level
		}
		if l.File != nil {
			cfg.Logging.File = *l.File
		}
	}
	return cfg
}
