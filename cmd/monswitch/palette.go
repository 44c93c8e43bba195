package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/1broseidon/monswitch/internal/palette"
)

func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	backendName := fs.String("backend", "", "Palette backend: auto, rofi, fuzzel, wofi, dmenu (default: palette_backend from config)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: monswitch palette [--backend NAME] [--direct] [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show a launcher menu of saved profiles.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Menu options:")
		fmt.Fprintln(os.Stderr, "  <profile>          - Load the profile")
		fmt.Fprintln(os.Stderr, "  Save current...    - Save the active layout under a new name")
		fmt.Fprintln(os.Stderr, "  Delete profile     - Pick a profile to delete")
		fmt.Fprintln(os.Stderr, "  Undo last load     - Restore the previous layout")
		fmt.Fprintln(os.Stderr, "  Turn off displays  - Power displays down")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings (rofi only):")
		fmt.Fprintln(os.Stderr, "  Enter      - Load profile")
		fmt.Fprintln(os.Stderr, "  Alt+d      - Delete profile")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Backends: rofi, dmenu, wofi, fuzzel (configured via palette_backend, default: auto).")
		fmt.Fprintln(os.Stderr, "Set palette_fuzzy_matching: true for rofi fuzzy matching.")
		return 0
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	res, err := loadConfig(*flags.path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name := res.Config.PaletteBackend
	if *backendName != "" {
		name = *backendName
	}
	backend, err := palette.NewBackend(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if setter, ok := backend.(interface{ SetFuzzyMatching(bool) }); ok {
		setter.SetFuzzyMatching(res.Config.PaletteFuzzyMatching)
	}

	logger, closeLog := commandLogger(res.Config, *flags.verbose)
	defer closeLog()

	ctx := context.Background()
	svc, closeSvc, err := openService(ctx, res.Config, logger, *flags.direct, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		notify(logger, "monswitch", err.Error())
		return 1
	}
	defer closeSvc()

	msg, err := palette.Run(ctx, backend, paletteOps{svc: svc}, activeProfile(svc))
	if err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		notify(logger, "monswitch", err.Error())
		return 1
	}
	if msg != "" {
		notify(logger, "monswitch", msg)
	}
	return 0
}

// activeProfile asks the daemon which profile it loaded last.
func activeProfile(svc profileService) string {
	remote, ok := svc.(remoteService)
	if !ok {
		return ""
	}
	status, err := remote.client.GetStatus()
	if err != nil {
		return ""
	}
	return status.LastProfile
}

// notify shows a desktop notification when notify-send is installed. The
// palette has no terminal to report to.
func notify(logger *slog.Logger, summary, body string) {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		return
	}
	if err := exec.Command(path, "--app-name=monswitch", summary, body).Run(); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}
