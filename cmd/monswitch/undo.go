package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/1broseidon/monswitch/internal/history"
	"github.com/1broseidon/monswitch/internal/profile"
	"github.com/1broseidon/monswitch/internal/topology"
)

func runUndo(args []string) int {
	fs := flag.NewFlagSet("undo", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	list := fs.Bool("list", false, "List undo snapshots instead of restoring one")
	limit := fs.Int("limit", 10, "With --list: number of snapshots to show (0 = all)")
	asJSON := fs.Bool("json", false, "With --list: print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch undo [--direct] [--path PATH]")
		fmt.Fprintln(os.Stderr, "       monswitch undo --list [--limit N] [--json] [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Restore the display layout that was active before the last profile load.")
		fmt.Fprintln(os.Stderr, "--list shows the recorded layouts, newest first; the top one is restored next.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	if *list {
		return runUndoList(*flags.path, *limit, *asJSON)
	}

	return withService(flags, true, func(ctx context.Context, svc profileService) int {
		res, err := svc.Undo(ctx)
		if err != nil {
			return reportError(err)
		}
		if res.Profile != "" {
			fmt.Printf("Restored layout from before loading %q\n", res.Profile)
		} else {
			fmt.Println("Restored previous layout")
		}
		return 0
	})
}

// historyEntry is one undo snapshot as listed by "undo --list".
type historyEntry struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
	// Monitors is the number of displays in the recorded layout, -1 when the
	// snapshot cannot be decoded.
	Monitors int `json:"monitors"`
}

// runUndoList reads the history database directly. sqlite serves readers
// alongside a running daemon.
func runUndoList(path string, limit int, asJSON bool) int {
	res, err := loadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	if !cfg.History.Enabled {
		fmt.Fprintln(os.Stderr, "Undo history is disabled (history.enabled: false).")
		return 1
	}

	ctx := context.Background()
	entries, err := listHistory(ctx, cfg.HistoryPath(), limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		if err := writeJSON(os.Stdout, entries); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to undo.")
		return 0
	}
	if err := writeHistory(os.Stdout, entries, stdoutIsTerminal()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func listHistory(ctx context.Context, path string, limit int) ([]historyEntry, error) {
	db, err := history.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	snaps, err := db.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]historyEntry, 0, len(snaps))
	for _, s := range snaps {
		e := historyEntry{ID: s.ID, Profile: s.Profile, CreatedAt: s.CreatedAt, Monitors: -1}
		if t, err := profile.Decode(s.Blob); err == nil {
			e.Monitors = len(topology.Describe(t))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func writeHistory(w io.Writer, entries []historyEntry, pretty bool) error {
	if !pretty {
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.ID, e.CreatedAt.Format(time.RFC3339), e.Profile, e.Monitors); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SNAPSHOT\tRECORDED\tBEFORE LOADING\tMONITORS")
	for _, e := range entries {
		monitors := "?"
		if e.Monitors >= 0 {
			monitors = fmt.Sprint(e.Monitors)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID[:min(8, len(e.ID))], e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Profile, monitors)
	}
	return tw.Flush()
}
