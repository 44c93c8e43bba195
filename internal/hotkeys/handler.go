package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"golang.org/x/time/rate"

	"github.com/1broseidon/monswitch/internal/config"
	"github.com/1broseidon/monswitch/internal/x11"
)

// Actions are the operations a hotkey can trigger.
type Actions interface {
	LoadProfile(ctx context.Context, name string) error
	Undo(ctx context.Context) error
	PowerOff(ctx context.Context) error
	ShowPalette(ctx context.Context) error
}

// actionTimeout bounds how long a hotkey waits for a busy switcher.
const actionTimeout = 30 * time.Second

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	actions Actions
	limiter *rate.Limiter
	logger  *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on conn. At most one action fires per
// interval; presses in between are dropped.
func NewHandler(conn *x11.Connection, actions Actions, interval time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{
		xu:      conn.XUtil,
		root:    conn.Root,
		actions: actions,
		limiter: newLimiter(interval),
		logger:  logger.With("component", "hotkeys"),
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(limitFor(interval), 1)
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// SetInterval changes the minimum spacing between fired actions. It is safe
// to call while the event loop runs.
func (h *Handler) SetInterval(interval time.Duration) {
	h.limiter.SetLimit(limitFor(interval))
}

// Bind registers every binding, replacing whatever was bound before.
func (h *Handler) Bind(bindings []config.HotkeyBinding) error {
	keybind.Detach(h.xu, h.root)
	for _, b := range bindings {
		if err := h.RegisterFunc(b.Key, h.callback(b)); err != nil {
			return fmt.Errorf("failed to register hotkey %q: %w", b.Key, err)
		}
		h.logger.Info("hotkey registered", "key", b.Key, "action", b.EffectiveAction(), "profile", b.Profile)
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// callback runs the binding off the event loop so a slow commit does not
// stall key handling.
func (h *Handler) callback(b config.HotkeyBinding) func() {
	return func() {
		if !h.limiter.Allow() {
			h.logger.Debug("hotkey rate limited", "key", b.Key)
			return
		}
		go h.run(b)
	}
}

func (h *Handler) run(b config.HotkeyBinding) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	action := b.EffectiveAction()
	h.logger.Info("hotkey triggered", "key", b.Key, "action", action, "profile", b.Profile)
	if err := dispatch(ctx, h.actions, b); err != nil {
		h.logger.Error("hotkey action failed", "key", b.Key, "action", action, "error", err)
	}
}

func dispatch(ctx context.Context, actions Actions, b config.HotkeyBinding) error {
	switch b.EffectiveAction() {
	case config.ActionLoad:
		return actions.LoadProfile(ctx, b.Profile)
	case config.ActionUndo:
		return actions.Undo(ctx)
	case config.ActionPowerOff:
		return actions.PowerOff(ctx)
	case config.ActionPalette:
		return actions.ShowPalette(ctx)
	default:
		return fmt.Errorf("unknown hotkey action %q", b.Action)
	}
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
