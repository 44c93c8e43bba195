package main

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/monswitch/internal/config"
	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/switcher"
)

type recordingBinder struct {
	bound    [][]config.HotkeyBinding
	interval time.Duration
	err      error
}

func (r *recordingBinder) Bind(bindings []config.HotkeyBinding) error {
	r.bound = append(r.bound, bindings)
	return r.err
}

func (r *recordingBinder) SetInterval(interval time.Duration) {
	r.interval = interval
}

func TestDaemonSettingsApplyOnReload(t *testing.T) {
	adapter := display.NewAdapter(testDriver(), display.Options{PowerOffDelay: time.Millisecond})
	binder := &recordingBinder{}
	settings := &daemonSettings{
		svc:     switcher.New(switcher.Options{Adapter: adapter, Logger: quietLogger()}),
		hotkeys: binder,
		logger:  quietLogger(),
	}

	cfg := testConfig(t)
	cfg.Hotkeys = []config.HotkeyBinding{{Key: "Mod4-1", Profile: "desk"}}
	settings.apply(cfg)

	reloaded := testConfig(t)
	reloaded.HotkeyRateLimitMS = 250
	reloaded.PowerOffDelayMS = 40
	reloaded.Hotkeys = []config.HotkeyBinding{
		{Key: "Mod4-1", Profile: "desk"},
		{Key: "Mod4-z", Action: config.ActionUndo},
	}
	settings.apply(reloaded)

	if len(binder.bound) != 2 || len(binder.bound[1]) != 2 {
		t.Fatalf("bindings not replaced: %+v", binder.bound)
	}
	if binder.interval != 250*time.Millisecond {
		t.Fatalf("rate limit = %v, want 250ms", binder.interval)
	}
	if got := adapter.PowerOffDelay(); got != 40*time.Millisecond {
		t.Fatalf("power-off delay = %v, want 40ms", got)
	}
	if settings.hotkeyCount() != 2 {
		t.Fatalf("hotkey count = %d, want 2", settings.hotkeyCount())
	}
}

func TestDaemonSettingsWithoutHotkeys(t *testing.T) {
	adapter := display.NewAdapter(testDriver(), display.Options{})
	settings := &daemonSettings{
		svc:    switcher.New(switcher.Options{Adapter: adapter, Logger: quietLogger()}),
		logger: quietLogger(),
	}
	cfg := testConfig(t)
	cfg.PowerOffDelayMS = 5
	cfg.Hotkeys = []config.HotkeyBinding{{Key: "Mod4-1", Profile: "desk"}}
	settings.apply(cfg)

	if adapter.PowerOffDelay() != 5*time.Millisecond || settings.hotkeyCount() != 0 {
		t.Fatalf("delay = %v, count = %d", adapter.PowerOffDelay(), settings.hotkeyCount())
	}
}

func TestDaemonSettingsKeepRunningOnBindFailure(t *testing.T) {
	binder := &recordingBinder{err: errors.New("grab failed")}
	settings := &daemonSettings{
		svc:     switcher.New(switcher.Options{Adapter: display.NewAdapter(testDriver(), display.Options{}), Logger: quietLogger()}),
		hotkeys: binder,
		logger:  quietLogger(),
	}
	settings.apply(testConfig(t))
	if len(binder.bound) != 1 {
		t.Fatalf("expected one bind attempt, got %d", len(binder.bound))
	}
}
