package palette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MenuItem is a menu entry; entries with a Submenu open another level.
type MenuItem struct {
	Label   string
	Action  string
	Icon    string
	Meta    string
	Header  bool
	Divider bool
	Active  bool
	Urgent  bool
	Submenu []MenuItem
}

// IsParent reports whether the entry opens a submenu.
func (m MenuItem) IsParent() bool { return len(m.Submenu) > 0 }

// MenuResult is the chosen leaf.
type MenuResult struct {
	Action    string
	Alternate bool
}

const (
	backAction = "__back__"
	openPrefix = "__open__:"
)

// Menu walks nested MenuItems with a Backend. Cancelling a submenu returns to
// its parent; cancelling the top level ends the menu with ErrCancelled.
type Menu struct {
	backend Backend
	root    []MenuItem
	message string
}

func NewMenu(backend Backend, items []MenuItem) *Menu {
	return &Menu{backend: backend, root: items}
}

// SetMessage sets the message bar text shown on every level.
func (m *Menu) SetMessage(msg string) { m.message = msg }

func (m *Menu) Show() (MenuResult, error) {
	type level struct {
		title string
		items []MenuItem
	}
	stack := []level{{title: "monswitch", items: m.root}}

	for {
		cur := stack[len(stack)-1]
		nested := len(stack) > 1
		if len(cur.items) == 0 {
			return MenuResult{}, fmt.Errorf("menu: no items to show")
		}

		sel, err := m.backend.Show(cur.title, levelRows(cur.items, nested), m.message)
		if errors.Is(err, ErrCancelled) && nested {
			stack = stack[:len(stack)-1]
			continue
		}
		if err != nil {
			return MenuResult{}, err
		}

		action := sel.Item.Action
		switch {
		case !sel.Item.selectable():
			// Launchers without non-selectable rows let headers through.
		case action == backAction:
			stack = stack[:len(stack)-1]
		case strings.HasPrefix(action, openPrefix):
			idx, err := strconv.Atoi(strings.TrimPrefix(action, openPrefix))
			if err != nil || idx < 0 || idx >= len(cur.items) || !cur.items[idx].IsParent() {
				continue
			}
			stack = append(stack, level{title: cur.items[idx].Label, items: cur.items[idx].Submenu})
		default:
			return MenuResult{Action: action, Alternate: sel.Alternate}, nil
		}
	}
}

func levelRows(items []MenuItem, nested bool) []Item {
	rows := make([]Item, 0, len(items)+1)
	if nested {
		rows = append(rows, Item{Label: "← Back", Action: backAction, Icon: "go-previous"})
	}
	for i, mi := range items {
		row := Item{
			Label:   mi.Label,
			Action:  mi.Action,
			Icon:    mi.Icon,
			Meta:    mi.Meta,
			Header:  mi.Header,
			Divider: mi.Divider,
			Active:  mi.Active,
			Urgent:  mi.Urgent,
		}
		switch {
		case mi.IsParent():
			row.Label += " →"
			if row.Icon == "" {
				row.Icon = "folder"
			}
			row.Action = openPrefix + strconv.Itoa(i)
		case strings.TrimSpace(row.Action) == "" && row.selectable():
			row.Action = ActionNoop
		}
		rows = append(rows, row)
	}
	return rows
}
