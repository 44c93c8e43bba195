package palette

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type flavor int

const (
	flavorRofi flavor = iota
	flavorFuzzel
	flavorWofi
	flavorDmenu
)

// rofi exits with 10+N when kb-custom-(N+1) picked the row. Only
// kb-custom-2 is bound.
const exitAlternate = 11

// launcher runs one dmenu-compatible program per menu level.
type launcher struct {
	bin    string
	flavor flavor
	caps   Capabilities
	fuzzy  bool
}

func newLauncher(name string) *launcher {
	switch name {
	case "rofi":
		return &launcher{bin: "rofi", flavor: flavorRofi, caps: Capabilities{
			Icons: true, Markup: true, NonSelectable: true, AlternateKey: true,
			IndexOutput: true, MessageBar: true, RowStates: true,
		}}
	case "fuzzel":
		return &launcher{bin: "fuzzel", flavor: flavorFuzzel, caps: Capabilities{Icons: true, IndexOutput: true}}
	case "wofi":
		return &launcher{bin: "wofi", flavor: flavorWofi, caps: Capabilities{Icons: true, Markup: true}}
	case "dmenu":
		return &launcher{bin: "dmenu", flavor: flavorDmenu}
	}
	return nil
}

func (l *launcher) Capabilities() Capabilities { return l.caps }

// SetFuzzyMatching switches rofi to fuzzy matching. Other launchers keep
// their own matching.
func (l *launcher) SetFuzzyMatching(enabled bool) { l.fuzzy = enabled }

func (l *launcher) Show(prompt string, items []Item, message string) (Selection, error) {
	if len(items) == 0 {
		return Selection{}, errors.New("palette: no items to show")
	}
	rows := make([]Item, len(items))
	copy(rows, items)
	if !l.caps.IndexOutput {
		// Text-matching launchers would return the first of two equal labels.
		numberDuplicates(rows)
	}

	out, code, err := l.run(l.menuArgs(prompt, message, rows), l.encodeRows(rows))
	if err != nil {
		return Selection{}, err
	}
	item, err := l.pick(out, rows)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Item: item, Alternate: code == exitAlternate}, nil
}

func (l *launcher) Input(prompt string, message string) (string, error) {
	out, _, err := l.run(l.inputArgs(prompt, message), "")
	if err != nil {
		return "", err
	}
	return cleanLabel(out), nil
}

// run executes the launcher and returns its trimmed output and exit code.
// An empty answer is ErrCancelled.
func (l *launcher) run(args []string, stdin string) (string, int, error) {
	cmd := exec.Command(l.bin, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	raw, err := cmd.Output()
	out := strings.TrimSpace(string(raw))

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", 0, fmt.Errorf("%s failed: %w", l.bin, err)
		}
		code = exitErr.ExitCode()
		switch {
		case out == "" && (code == 1 || code == 130):
			return "", code, ErrCancelled
		case code == exitAlternate && l.caps.AlternateKey:
		default:
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return "", code, fmt.Errorf("%s failed: %s", l.bin, msg)
			}
			return "", code, fmt.Errorf("%s failed: %w", l.bin, err)
		}
	}
	if out == "" {
		return "", code, ErrCancelled
	}
	return out, code, nil
}

func (l *launcher) menuArgs(prompt string, message string, rows []Item) []string {
	var args []string
	switch l.flavor {
	case flavorRofi:
		// Rows are picked by index: labels may contain markup or colons, and
		// typed text is never a valid choice.
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		if l.fuzzy {
			args = append(args, "-matching", "fuzzy")
		}
		states := collectStates(rows)
		if len(states.active) > 0 {
			args = append(args, "-a", joinInts(states.active))
		}
		if len(states.urgent) > 0 {
			args = append(args, "-u", joinInts(states.urgent))
		}
		if states.selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(states.selected))
		}
		args = append(args, "-kb-custom-2", "Alt+d")
		if message != "" {
			args = append(args, "-mesg", message)
		}
	case flavorFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case flavorWofi:
		args = []string{"--dmenu", "--allow-markup", "--allow-images"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	default:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// inputArgs runs the launcher as a bare text prompt with no rows; whatever
// is typed is printed back.
func (l *launcher) inputArgs(prompt string, message string) []string {
	switch l.flavor {
	case flavorRofi:
		args := []string{"-dmenu", "-p", prompt, "-lines", "0"}
		if message != "" {
			args = append(args, "-mesg", message)
		}
		return args
	case flavorFuzzel:
		return []string{"--dmenu", "--prompt", prompt + " ", "--lines", "0"}
	case flavorWofi:
		return []string{"--dmenu", "--prompt", prompt, "--lines", "1"}
	default:
		return []string{"-p", prompt}
	}
}

// pick maps launcher output back to a row.
func (l *launcher) pick(out string, rows []Item) (Item, error) {
	if l.caps.IndexOutput {
		if idx, err := strconv.Atoi(out); err == nil {
			if idx < 0 || idx >= len(rows) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return rows[idx], nil
		}
	}
	for _, row := range rows {
		if cleanLabel(row.Label) == out {
			return row, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", out)
}
