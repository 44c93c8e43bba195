package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	profiles_dir
//	history.enabled
//	history.path
//	history.keep
//	power_off_delay_ms
//	hotkeys
//	hotkeys.<n>.key
//	hotkeys.<n>.profile
//	hotkeys.<n>.action
//	hotkey_rate_limit_ms
//	palette_backend
//	palette_fuzzy_matching
//	display
//	xauthority
//	logging.level
//	logging.file
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	// Individual hotkeys come from whichever file last set the list.
	if strings.HasPrefix(path, "hotkeys.") {
		if src, ok := res.Sources["hotkeys"]; ok {
			return value, src, nil
		}
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
		return v, nil
	}
	switch parts[0] {
	case "profiles_dir":
		return leaf(cfg.ProfilesDir)
	case "power_off_delay_ms":
		return leaf(cfg.PowerOffDelayMS)
	case "hotkey_rate_limit_ms":
		return leaf(cfg.HotkeyRateLimitMS)
	case "palette_backend":
		return leaf(cfg.PaletteBackend)
	case "palette_fuzzy_matching":
		return leaf(cfg.PaletteFuzzyMatching)
	case "display":
		return leaf(cfg.Display)
	case "xauthority":
		return leaf(cfg.XAuthority)
	case "history":
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
		switch parts[1] {
		case "enabled":
			return cfg.History.Enabled, nil
		case "path":
			return cfg.History.Path, nil
		case "keep":
			return cfg.History.Keep, nil
		}
	case "logging":
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
		switch parts[1] {
		case "level":
			return cfg.Logging.Level, nil
		case "file":
			return cfg.Logging.File, nil
		}
	case "hotkeys":
		if len(parts) == 1 {
			return cfg.Hotkeys, nil
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 || idx >= len(cfg.Hotkeys) {
			return nil, fmt.Errorf("hotkey index %q out of range", parts[1])
		}
		hk := cfg.Hotkeys[idx]
		if len(parts) == 2 {
			return hk, nil
		}
		if len(parts) == 3 {
			switch parts[2] {
			case "key":
				return hk.Key, nil
			case "profile":
				return hk.Profile, nil
			case "action":
				return hk.EffectiveAction(), nil
			}
		}
	}
	return nil, fmt.Errorf("unknown path %q", path)
}
