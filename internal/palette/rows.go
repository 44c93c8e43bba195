package palette

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// encodeRows renders rows as launcher stdin, one per line. Rofi rows carry
// properties after a single NUL as \x1f-separated key/value pairs.
func (l *launcher) encodeRows(rows []Item) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		text := cleanLabel(row.Label)
		if l.caps.Markup {
			text = html.EscapeString(text)
			switch {
			case row.Header:
				text = "<b>" + text + "</b>"
			case row.Divider:
				text = "<span foreground='#666666'>" + text + "</span>"
			}
		}
		if l.flavor == flavorRofi {
			text += rofiProps(row)
		}
		lines[i] = text
	}
	return strings.Join(lines, "\n")
}

func rofiProps(row Item) string {
	var kv []string
	if !row.selectable() {
		kv = append(kv, "nonselectable", "true")
	}
	if row.Icon != "" {
		kv = append(kv, "icon", cleanField(row.Icon))
	}
	if row.Meta != "" {
		kv = append(kv, "meta", cleanField(row.Meta))
	}
	if len(kv) == 0 {
		return ""
	}
	return "\x00" + strings.Join(kv, "\x1f")
}

type rowStates struct {
	active   []int
	urgent   []int
	selected int
}

// collectStates finds highlighted rows and the row the cursor starts on: the
// first active selectable row, else the first selectable one, else none (-1).
func collectStates(rows []Item) rowStates {
	st := rowStates{selected: -1}
	firstActive := -1
	for i, row := range rows {
		if !row.selectable() {
			continue
		}
		if st.selected < 0 {
			st.selected = i
		}
		if row.Active {
			st.active = append(st.active, i)
			if firstActive < 0 {
				firstActive = i
			}
		}
		if row.Urgent {
			st.urgent = append(st.urgent, i)
		}
	}
	if firstActive >= 0 {
		st.selected = firstActive
	}
	return st
}

// numberDuplicates suffixes repeated selectable labels with " (n)".
func numberDuplicates(rows []Item) {
	seen := make(map[string]int)
	for i := range rows {
		if !rows[i].selectable() {
			continue
		}
		label := cleanLabel(rows[i].Label)
		if label == "" {
			continue
		}
		seen[label]++
		if n := seen[label]; n > 1 {
			rows[i].Label = fmt.Sprintf("%s (%d)", label, n)
		}
	}
}

func cleanLabel(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

// cleanField keeps a value from breaking the rofi row protocol.
func cleanField(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(s))
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
