package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/1broseidon/monswitch/internal/topology"
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rotationDegrees(r uint32) int {
	switch r {
	case topology.Rotation90:
		return 90
	case topology.Rotation180:
		return 180
	case topology.Rotation270:
		return 270
	}
	return 0
}

func formatScale(d topology.MonitorDetails) string {
	if d.DpiScale == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *d.DpiScale)
}

// writeMonitors prints monitors as an aligned table when pretty is set, or
// as tab-separated rows for scripts.
func writeMonitors(w io.Writer, monitors []topology.MonitorDetails, pretty bool) error {
	if !pretty {
		for _, m := range monitors {
			primary := ""
			if m.IsPrimary {
				primary = "primary"
			}
			if _, err := fmt.Fprintf(w, "%s\t%dx%d\t%.2f\t%d,%d\t%d\t%s\t%s\n",
				m.Name, m.Width, m.Height, m.RefreshRate, m.PositionX, m.PositionY,
				rotationDegrees(m.Rotation), formatScale(m), primary); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONITOR\tRESOLUTION\tREFRESH\tPOSITION\tROTATION\tSCALE\tPRIMARY")
	for _, m := range monitors {
		primary := ""
		if m.IsPrimary {
			primary = "*"
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%.2f Hz\t(%d, %d)\t%d°\t%s\t%s\n",
			m.Name, m.Width, m.Height, m.RefreshRate, m.PositionX, m.PositionY,
			rotationDegrees(m.Rotation), formatScale(m), primary)
	}
	return tw.Flush()
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
