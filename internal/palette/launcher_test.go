package palette

import (
	"errors"
	"strings"
	"testing"
)

func TestRofiRowsUseSingleNullSeparator(t *testing.T) {
	l := newLauncher("rofi")
	out := l.encodeRows([]Item{{Label: "Profiles", Header: true, Icon: "folder", Meta: "meta"}})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.Contains(out, "<b>Profiles</b>\x00nonselectable\x1ftrue") {
		t.Fatalf("expected bold nonselectable header, got %q", out)
	}
	if !strings.Contains(out, "\x1ficon\x1ffolder") || !strings.Contains(out, "\x1fmeta\x1fmeta") {
		t.Fatalf("expected icon and meta properties, got %q", out)
	}
}

func TestRofiRowsEscapeMarkup(t *testing.T) {
	l := newLauncher("rofi")
	out := l.encodeRows([]Item{
		{Label: "a<b>&c"},
		{Label: "────", Divider: true},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %q", out)
	}
	if lines[0] != "a&lt;b&gt;&amp;c" {
		t.Fatalf("label not escaped: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "<span foreground='#666666'>") {
		t.Fatalf("expected dim divider, got %q", lines[1])
	}
}

func TestPlainRowsCarryNoProperties(t *testing.T) {
	l := newLauncher("dmenu")
	out := l.encodeRows([]Item{{Label: "desk", Icon: "video-display", Header: true}})
	if out != "desk" {
		t.Fatalf("dmenu row = %q, want bare label", out)
	}
}

func TestRofiMenuArgs(t *testing.T) {
	l := newLauncher("rofi")
	args := l.menuArgs("monswitch", "hint", []Item{
		{Label: "Profiles", Header: true},
		{Label: "desk"},
		{Label: "tv", Active: true},
		{Label: "Overwrite tv", Urgent: true},
	})

	for _, pair := range [][2]string{
		{"-format", "i"},
		{"-a", "2"},
		{"-u", "3"},
		{"-selected-row", "2"},
		{"-kb-custom-2", "Alt+d"},
		{"-mesg", "hint"},
	} {
		if !containsArgs(args, pair[0], pair[1]) {
			t.Errorf("expected %s %s in %v", pair[0], pair[1], args)
		}
	}
	if !containsArg(args, "-no-custom") {
		t.Errorf("expected -no-custom in %v", args)
	}
	if containsArg(args, "-matching") {
		t.Errorf("fuzzy matching must be opt-in: %v", args)
	}
}

func TestRofiFuzzyMatching(t *testing.T) {
	l := newLauncher("rofi")
	l.SetFuzzyMatching(true)
	if args := l.menuArgs("p", "", []Item{{Label: "a"}}); !containsArgs(args, "-matching", "fuzzy") {
		t.Fatalf("expected -matching fuzzy, got %v", args)
	}

	fuzzel := newLauncher("fuzzel")
	fuzzel.SetFuzzyMatching(true)
	if args := fuzzel.menuArgs("p", "", []Item{{Label: "a"}}); containsArg(args, "-matching") {
		t.Fatalf("fuzzel has no rofi matching flag: %v", args)
	}
}

func TestCollectStatesSkipsHeaders(t *testing.T) {
	st := collectStates([]Item{
		{Label: "h", Header: true, Active: true},
		{Label: "a"},
		{Label: "d", Divider: true, Urgent: true},
	})
	if len(st.active) != 0 || len(st.urgent) != 0 || st.selected != 1 {
		t.Fatalf("unexpected states %+v", st)
	}
	if st := collectStates([]Item{{Label: "h", Header: true}}); st.selected != -1 {
		t.Fatalf("no selectable row must leave selection unset, got %d", st.selected)
	}
}

func TestPick(t *testing.T) {
	rows := []Item{{Label: "a", Action: "a"}, {Label: "b", Action: "b"}}

	got, err := newLauncher("rofi").pick("1", rows)
	if err != nil || got.Action != "b" {
		t.Fatalf("rofi pick = %+v, %v", got, err)
	}
	if _, err := newLauncher("fuzzel").pick("5", rows); err == nil {
		t.Fatalf("expected out of range error")
	}
	got, err = newLauncher("wofi").pick("a", rows)
	if err != nil || got.Action != "a" {
		t.Fatalf("wofi pick = %+v, %v", got, err)
	}
	if _, err := newLauncher("dmenu").pick("zzz", rows); err == nil {
		t.Fatalf("expected unknown selection error")
	}
}

func TestInputArgsAreBarePrompts(t *testing.T) {
	args := newLauncher("rofi").inputArgs("Profile name", "hint")
	if containsArg(args, "-no-custom") || containsArgs(args, "-format", "i") {
		t.Fatalf("text input must accept custom entries, got %v", args)
	}
	if !containsArgs(args, "-p", "Profile name") || !containsArgs(args, "-mesg", "hint") {
		t.Fatalf("expected prompt and message, got %v", args)
	}
	if args := newLauncher("fuzzel").inputArgs("Name", ""); containsArg(args, "--index") {
		t.Fatalf("fuzzel input must print text, not an index: %v", args)
	}
	if args := newLauncher("dmenu").inputArgs("Name", ""); !containsArgs(args, "-p", "Name") {
		t.Fatalf("expected dmenu prompt, got %v", args)
	}
}

func TestNumberDuplicates(t *testing.T) {
	rows := []Item{
		{Label: "Dup", Action: "a"},
		{Label: "Dup", Action: "b"},
		{Label: "Dup", Header: true},
	}
	numberDuplicates(rows)
	if rows[0].Label != "Dup" || rows[1].Label != "Dup (2)" || rows[2].Label != "Dup" {
		t.Fatalf("unexpected labels %q %q %q", rows[0].Label, rows[1].Label, rows[2].Label)
	}
}

func TestNewBackend(t *testing.T) {
	installed := map[string]bool{"fuzzel": true, "dmenu": true}
	orig := lookPath
	lookPath = func(name string) (string, error) {
		if installed[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	t.Cleanup(func() { lookPath = orig })

	b, err := NewBackend("auto")
	if err != nil {
		t.Fatalf("NewBackend(auto): %v", err)
	}
	if l := b.(*launcher); l.bin != "fuzzel" {
		t.Fatalf("auto picked %q, want fuzzel", l.bin)
	}
	if _, err := NewBackend(" DMENU "); err != nil {
		t.Fatalf("NewBackend(DMENU): %v", err)
	}
	if _, err := NewBackend("rofi"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing rofi error, got %v", err)
	}
	if _, err := NewBackend("kitty"); err == nil || !strings.Contains(err.Error(), "unknown palette backend") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}

	installed = nil
	if _, err := DetectBackend(); err == nil {
		t.Fatalf("expected detection failure")
	}
}

func TestMenuIgnoresHeaderSelection(t *testing.T) {
	m := NewMenu(&fakeBackend{
		results: []Selection{
			{Item: Item{Label: "Header", Header: true}},
			{Item: Item{Label: "Do", Action: "do"}},
		},
	}, []MenuItem{
		{Label: "Header", Header: true},
		{Label: "Do", Action: "do"},
	})

	res, err := m.Show()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != "do" {
		t.Fatalf("expected action do, got %q", res.Action)
	}
}

func TestMenuSubmenuNavigation(t *testing.T) {
	items := []MenuItem{
		{Label: "Delete profile", Submenu: []MenuItem{{Label: "desk", Action: "delete:desk"}}},
		{Label: "Undo", Action: "undo"},
	}
	backend := &fakeBackend{
		results: []Selection{
			{Item: Item{Action: openPrefix + "0"}},
			{Item: Item{Action: backAction}},
			{Item: Item{Action: openPrefix + "0"}},
			{Item: Item{Action: "delete:desk"}, Alternate: true},
		},
	}

	res, err := NewMenu(backend, items).Show()
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if res.Action != "delete:desk" || !res.Alternate {
		t.Fatalf("unexpected result %+v", res)
	}
	want := []string{"monswitch", "Delete profile", "monswitch", "Delete profile"}
	if strings.Join(backend.prompts, "|") != strings.Join(want, "|") {
		t.Fatalf("prompts = %v, want %v", backend.prompts, want)
	}
	sub := backend.shown[1]
	if sub[0].Action != backAction || !strings.HasSuffix(backend.shown[0][0].Label, "→") {
		t.Fatalf("unexpected rows: %+v / %+v", backend.shown[0], sub)
	}
}

func TestMenuCancelInSubmenuReturnsToParent(t *testing.T) {
	items := []MenuItem{
		{Label: "Delete profile", Submenu: []MenuItem{{Label: "desk", Action: "delete:desk"}}},
		{Label: "Undo", Action: "undo"},
	}
	backend := &fakeBackend{
		results: []Selection{
			{Item: Item{Action: openPrefix + "0"}},
		},
		cancelAt: map[int]bool{1: true},
	}
	backend.results = append(backend.results, Selection{}, Selection{Item: Item{Action: "undo"}})

	res, err := NewMenu(backend, items).Show()
	if err != nil || res.Action != "undo" {
		t.Fatalf("Show = %+v, %v", res, err)
	}

	if _, err := NewMenu(&fakeBackend{}, items).Show(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("top-level cancel = %v, want ErrCancelled", err)
	}
}

// fakeBackend replays results in order. Calls listed in cancelAt (by call
// index) report ErrCancelled instead; running out of results cancels too.
type fakeBackend struct {
	results  []Selection
	cancelAt map[int]bool
	i        int
	input    string
	prompts  []string
	shown    [][]Item
}

func (f *fakeBackend) Show(prompt string, items []Item, message string) (Selection, error) {
	f.prompts = append(f.prompts, prompt)
	f.shown = append(f.shown, items)
	call := f.i
	f.i++
	if f.cancelAt[call] || call >= len(f.results) {
		return Selection{}, ErrCancelled
	}
	return f.results[call], nil
}

func (f *fakeBackend) Input(prompt string, message string) (string, error) {
	if f.input == "" {
		return "", ErrCancelled
	}
	return f.input, nil
}

func (f *fakeBackend) Capabilities() Capabilities {
	return Capabilities{}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func containsArgs(args []string, a string, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
