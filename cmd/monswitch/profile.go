package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/1broseidon/monswitch/internal/topology"
)

func printProfileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  monswitch profile save [--force] <name>")
	fmt.Fprintln(w, "  monswitch profile load <name>")
	fmt.Fprintln(w, "  monswitch profile delete [--yes] <name>")
	fmt.Fprintln(w, "  monswitch profile list [--json]")
	fmt.Fprintln(w, "  monswitch profile show [--json] <name>")
	fmt.Fprintln(w, "  monswitch profile current [--json]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every subcommand accepts --direct, --path PATH and --verbose.")
}

func runProfile(args []string) int {
	if len(args) == 0 {
		printProfileUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "save":
		return runProfileSave(args[1:])
	case "load":
		return runProfileLoad(args[1:])
	case "delete", "rm":
		return runProfileDelete(args[1:])
	case "list", "ls":
		return runProfileList(args[1:])
	case "show":
		return runProfileShow(args[1:])
	case "current":
		return runProfileCurrent(args[1:])
	case "help", "-h", "--help":
		printProfileUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown profile command: %s\n\n", args[0])
		printProfileUsage(os.Stderr)
		return 2
	}
}

// parseName parses flags followed by exactly one profile name.
func parseName(fs *flag.FlagSet, args []string) (string, int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return "", 0, false
		}
		return "", 2, false
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		fmt.Fprintf(os.Stderr, "%s requires exactly one profile name\n", fs.Name())
		fs.Usage()
		return "", 2, false
	}
	return strings.TrimSpace(fs.Arg(0)), 0, true
}

func runProfileSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	force := fs.Bool("force", false, "Replace an existing profile without asking")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch profile save [--force] [--direct] [--path PATH] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Capture the active display layout under <name>. An existing profile of that")
		fmt.Fprintln(os.Stderr, "name is replaced after confirmation on a terminal, or with --force.")
	}
	name, code, ok := parseName(fs, args)
	if !ok {
		return code
	}

	return withService(flags, true, func(ctx context.Context, svc profileService) int {
		if err := checkOverwrite(svc, name, *force, stdinIsTerminal(), os.Stdin, os.Stderr); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := svc.Save(ctx, name); err != nil {
			return reportError(err)
		}
		fmt.Printf("Saved profile %q\n", name)
		return 0
	})
}

func runProfileLoad(args []string) int {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch profile load [--direct] [--path PATH] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Apply the saved layout <name>. Monitors are re-identified by EDID when")
		fmt.Fprintln(os.Stderr, "adapter ids changed since the profile was saved.")
	}
	name, code, ok := parseName(fs, args)
	if !ok {
		return code
	}

	return withService(flags, true, func(ctx context.Context, svc profileService) int {
		res, err := svc.Load(ctx, name)
		if err != nil {
			return reportError(err)
		}
		if res.Matched {
			fmt.Printf("Loaded profile %q (monitors matched by %s)\n", name, res.Tier)
		} else {
			fmt.Printf("Loaded profile %q (monitors could not be re-identified; stored adapter ids used)\n", name)
		}
		return 0
	})
}

func runProfileDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch profile delete [--yes] [--direct] [--path PATH] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Delete a saved profile. Asks for confirmation on a terminal unless --yes is given.")
	}
	name, code, ok := parseName(fs, args)
	if !ok {
		return code
	}

	if !*yes && stdinIsTerminal() {
		if !confirm(os.Stdin, os.Stderr, fmt.Sprintf("Delete profile %q?", name)) {
			fmt.Fprintln(os.Stderr, "aborted")
			return 1
		}
	}

	return withService(flags, false, func(_ context.Context, svc profileService) int {
		if err := svc.Delete(name); err != nil {
			return reportError(err)
		}
		fmt.Printf("Deleted profile %q\n", name)
		return 0
	})
}

func runProfileList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	asJSON := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch profile list [--json] [--direct] [--path PATH]")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	return withService(flags, false, func(_ context.Context, svc profileService) int {
		names, err := svc.List()
		if err != nil {
			return reportError(err)
		}
		if *asJSON {
			if names == nil {
				names = []string{}
			}
			if err := writeJSON(os.Stdout, map[string][]string{"profiles": names}); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			return 0
		}
		if len(names) == 0 && stdoutIsTerminal() {
			fmt.Fprintln(os.Stderr, "No saved profiles. Create one with 'monswitch profile save <name>'.")
			return 0
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return 0
	})
}

func runProfileShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	asJSON := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch profile show [--json] [--direct] [--path PATH] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Describe the monitors stored in a profile without applying it.")
	}
	name, code, ok := parseName(fs, args)
	if !ok {
		return code
	}

	return withService(flags, false, func(_ context.Context, svc profileService) int {
		monitors, err := svc.Details(name)
		if err != nil {
			return reportError(err)
		}
		return printMonitors(monitors, *asJSON)
	})
}

func runProfileCurrent(args []string) int {
	fs := flag.NewFlagSet("current", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	asJSON := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch profile current [--json] [--direct] [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Describe the monitors that are active right now.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	return withService(flags, true, func(ctx context.Context, svc profileService) int {
		monitors, err := svc.Current(ctx)
		if err != nil {
			return reportError(err)
		}
		return printMonitors(monitors, *asJSON)
	})
}

func printMonitors(monitors []topology.MonitorDetails, asJSON bool) int {
	var err error
	if asJSON {
		if monitors == nil {
			monitors = []topology.MonitorDetails{}
		}
		err = writeJSON(os.Stdout, map[string][]topology.MonitorDetails{"monitors": monitors})
	} else {
		err = writeMonitors(os.Stdout, monitors, stdoutIsTerminal())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

var errOverwriteDeclined = errors.New("aborted")

// checkOverwrite guards replacing an existing profile: force skips the
// check, a terminal gets a prompt, anything else is refused.
func checkOverwrite(svc profileService, name string, force, interactive bool, in io.Reader, out io.Writer) error {
	if force {
		return nil
	}
	exists, err := svc.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if !interactive {
		return fmt.Errorf("profile %q already exists; use --force to replace it", name)
	}
	if !confirm(in, out, fmt.Sprintf("Profile %q exists. Replace it?", name)) {
		return errOverwriteDeclined
	}
	return nil
}
