// Package palette drives dmenu-style launchers (rofi, fuzzel, wofi, dmenu)
// as a profile menu.
package palette

import "errors"

// ErrCancelled reports that the launcher was closed without a choice.
var ErrCancelled = errors.New("palette cancelled")

// Item is one launcher row.
type Item struct {
	Label  string
	Action string
	Icon   string
	// Meta holds extra search keywords (rofi only).
	Meta    string
	Header  bool
	Divider bool
	Active  bool
	// Urgent rows are highlighted as destructive choices.
	Urgent bool
}

func (i Item) selectable() bool { return !i.Header && !i.Divider }

// Selection is the row a launcher returned. Alternate is set when the row
// was chosen with the alternate key (Alt+d on rofi).
type Selection struct {
	Item      Item
	Alternate bool
}

// Capabilities describes what a launcher can render.
type Capabilities struct {
	Icons         bool
	Markup        bool
	NonSelectable bool
	// AlternateKey means Selection.Alternate can be set.
	AlternateKey bool
	// IndexOutput launchers report the chosen row index rather than its text.
	IndexOutput bool
	MessageBar  bool
	RowStates   bool
}

// Backend shows rows to the user.
type Backend interface {
	// Show displays items under prompt; message goes to the message bar when
	// the launcher has one.
	Show(prompt string, items []Item, message string) (Selection, error)

	// Input asks for free text, such as a new profile name.
	Input(prompt string, message string) (string, error)

	Capabilities() Capabilities
}
