package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/1broseidon/monswitch/internal/config"
	"github.com/1broseidon/monswitch/internal/ipc"
	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/switcher"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "profile":
		os.Exit(runProfile(os.Args[2:]))
	case "undo":
		os.Exit(runUndo(os.Args[2:]))
	case "power":
		os.Exit(runPower(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: monswitch <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  profile save        Save the current display layout")
	fmt.Fprintln(w, "  profile load        Apply a saved layout")
	fmt.Fprintln(w, "  profile delete      Delete a saved layout")
	fmt.Fprintln(w, "  profile list        List saved layouts")
	fmt.Fprintln(w, "  profile show        Show the monitors of a saved layout")
	fmt.Fprintln(w, "  profile current     Show the active monitors")
	fmt.Fprintln(w, "  undo                Restore the layout from before the last load (--list shows history)")
	fmt.Fprintln(w, "  power off           Turn all displays off")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Start the monswitch daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  palette             Open the profile palette")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'monswitch <command> --help' for command-specific options.")
}

// commonFlags are shared by the commands that touch profiles.
type commonFlags struct {
	path    *string
	direct  *bool
	verbose *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		path:    fs.String("path", "", "Config file path (default: ~/.config/monswitch/config.yaml)"),
		direct:  fs.Bool("direct", false, "Talk to the display directly even when the daemon is running"),
		verbose: fs.Bool("verbose", false, "Log progress to stderr"),
	}
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// commandLogger logs warnings only unless verbose is set; the log file
// always receives the same records as stderr.
func commandLogger(cfg *config.Config, verbose bool) (*slog.Logger, func() error) {
	lc := cfg.GetLoggingConfig()
	if !verbose {
		lc.Level = "warn"
	}
	return config.SetupLogger(lc)
}

// withService loads configuration, opens the profile service and runs fn.
// needsDisplay is false for commands that only read or remove stored
// profiles.
func withService(flags commonFlags, needsDisplay bool, fn func(ctx context.Context, svc profileService) int) int {
	res, err := loadConfig(*flags.path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, closeLog := commandLogger(res.Config, *flags.verbose)
	defer closeLog()

	ctx := context.Background()
	svc, closeSvc, err := openService(ctx, res.Config, logger, *flags.direct, needsDisplay)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeSvc()
	return fn(ctx, svc)
}

// reportError prints err with a hint for the well-known failure classes.
func reportError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintf(os.Stderr, "%v\nRun 'monswitch profile list' to see saved profiles.\n", err)
	case errors.Is(err, switcher.ErrNothingToUndo):
		fmt.Fprintln(os.Stderr, "Nothing to undo.")
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	return 1
}

// parseNoArgs parses a command that takes only flags.
func parseNoArgs(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("last_profile:   %s\n", status.LastProfile)
	fmt.Printf("profile_count:  %d\n", status.ProfileCount)
	fmt.Printf("hotkey_count:   %d\n", status.HotkeyCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-read its configuration and rebind hotkeys.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reload requested")
	return 0
}

func runPower(args []string) int {
	if len(args) == 0 || args[0] != "off" {
		fmt.Fprintln(os.Stderr, "Usage: monswitch power off [--direct] [--path PATH]")
		if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
			return 0
		}
		return 2
	}

	fs := flag.NewFlagSet("power off", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch power off [--direct] [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Turn all displays off. They wake on the next input.")
	}
	if code, ok := parseNoArgs(fs, args[1:]); !ok {
		return code
	}

	return withService(flags, true, func(ctx context.Context, svc profileService) int {
		if err := svc.PowerOff(ctx); err != nil {
			return reportError(err)
		}
		return 0
	})
}
