package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/1broseidon/monswitch/internal/config"
	"github.com/1broseidon/monswitch/internal/hotkeys"
	"github.com/1broseidon/monswitch/internal/ipc"
	"github.com/1broseidon/monswitch/internal/platform"
	"github.com/1broseidon/monswitch/internal/switcher"
)

// daemonActions runs hotkey actions against the daemon's switcher.
type daemonActions struct {
	svc    *switcher.Service
	ipc    *ipc.Server
	logger *slog.Logger
}

func (d *daemonActions) LoadProfile(ctx context.Context, name string) error {
	if _, err := d.svc.Load(ctx, name); err != nil {
		return err
	}
	d.ipc.SetLastProfile(name)
	return nil
}

func (d *daemonActions) Undo(ctx context.Context) error {
	_, err := d.svc.Undo(ctx)
	return err
}

func (d *daemonActions) PowerOff(ctx context.Context) error {
	return d.svc.PowerOff(ctx)
}

// ShowPalette launches "monswitch palette" as a child so the menu talks to
// this daemon over IPC like any other client.
func (d *daemonActions) ShowPalette(context.Context) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to find executable: %w", err)
	}
	cmd := exec.Command(exe, "palette")
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch palette: %w", err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			d.logger.Debug("palette exited", "error", err)
		}
	}()
	return nil
}

// hotkeyBinder is the part of the hotkey handler a reload touches.
type hotkeyBinder interface {
	Bind(bindings []config.HotkeyBinding) error
	SetInterval(interval time.Duration)
}

// daemonSettings applies the config values a running daemon can pick up
// without a restart: hotkey bindings, the hotkey rate limit and the
// power-off delay. The display, IPC socket, logging and history settings
// are read once at startup. The palette backend is read by each palette
// run, so it never needs a reload.
type daemonSettings struct {
	svc     *switcher.Service
	hotkeys hotkeyBinder // nil without X11
	logger  *slog.Logger
	count   atomic.Int64
}

func (d *daemonSettings) apply(cfg *config.Config) {
	d.svc.SetPowerOffDelay(cfg.PowerOffDelay())
	if d.hotkeys == nil {
		return
	}
	d.hotkeys.SetInterval(cfg.HotkeyRateLimit())
	if err := d.hotkeys.Bind(cfg.Hotkeys); err != nil {
		d.logger.Warn("failed to bind hotkeys", "error", err)
	}
	d.count.Store(int64(len(cfg.Hotkeys)))
}

func (d *daemonSettings) hotkeyCount() int {
	return int(d.count.Load())
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/monswitch/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run in the foreground: hold the display connection, bind hotkeys and")
		fmt.Fprintln(os.Stderr, "serve CLI, palette and MCP requests over the IPC socket.")
		fmt.Fprintln(os.Stderr, "SIGHUP or 'monswitch reload' re-reads the config: hotkeys, hotkey_rate_limit_ms")
		fmt.Fprintln(os.Stderr, "and power_off_delay_ms apply at once; other settings need a restart.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config

	logger, closeLog := config.SetupLogger(cfg.GetLoggingConfig())
	defer closeLog()

	if err := ipc.NewClient().Ping(); err == nil {
		logger.Error("another monswitch daemon is already running")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := platform.Open(cfg.Display, cfg.XAuthority)
	if err != nil {
		logger.Error("failed to open display", "error", err)
		return 1
	}
	defer session.Close()

	svc, db, err := buildSwitcher(ctx, session.Driver, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise switcher", "error", err)
		return 1
	}
	if db != nil {
		defer db.Close()
	}

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(svc, reloadChan, logger)
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer ipcServer.Stop()

	actions := &daemonActions{svc: svc, ipc: ipcServer, logger: logger}

	settings := &daemonSettings{svc: svc, logger: logger}
	if session.X11 != nil {
		settings.hotkeys = hotkeys.NewHandler(session.X11, actions, cfg.HotkeyRateLimit(), logger)
	} else if len(cfg.Hotkeys) > 0 {
		logger.Warn("global hotkeys are only supported on X11; ignoring configured hotkeys", "count", len(cfg.Hotkeys))
	}
	settings.apply(cfg)
	ipcServer.SetHotkeyCount(settings.hotkeyCount)

	reload := func() {
		newRes, err := loadConfig(*path)
		if err != nil {
			logger.Error("config reload failed", "error", err)
			return
		}
		settings.apply(newRes.Config)
		logger.Info("config reloaded", "hotkeys", settings.hotkeyCount())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					reload()
					continue
				}
				logger.Info("shutting down monswitch daemon")
				cancel()
				if session.X11 != nil {
					session.X11.Quit()
				}
				return
			case <-reloadChan:
				reload()
			}
		}
	}()

	logger.Info("monswitch daemon started", "profiles_dir", cfg.ProfilesPath(), "history", db != nil)
	if session.X11 != nil {
		session.X11.EventLoop()
	} else {
		<-ctx.Done()
	}
	return 0
}
