package palette

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Operations are the profile actions the palette can run. The CLI backs them
// with the daemon or with an in-process service.
type Operations interface {
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, name string) error
	Load(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Undo(ctx context.Context) error
	PowerOff(ctx context.Context) error
}

// Action identifiers carried by profile menu items.
const (
	ActionSave     = "save"
	ActionUndo     = "undo"
	ActionPowerOff = "power-off"
	ActionNoop     = "noop"

	confirmAction = "confirm"

	loadPrefix   = "load:"
	deletePrefix = "delete:"
)

const menuHints = "Enter: load | Alt+d: delete profile"

// ProfileMenu builds the root menu: stored profiles first, then the actions.
// active marks the last loaded profile.
func ProfileMenu(profiles []string, active string) []MenuItem {
	items := []MenuItem{{Label: "Profiles", Header: true}}
	if len(profiles) == 0 {
		items = append(items, MenuItem{Label: "No saved profiles", Action: ActionNoop, Icon: "dialog-information"})
	}
	for _, name := range profiles {
		items = append(items, MenuItem{
			Label:  name,
			Action: loadPrefix + name,
			Icon:   "video-display",
			Meta:   "load profile monitor",
			Active: name == active,
		})
	}

	items = append(items,
		MenuItem{Label: "────────", Divider: true},
		MenuItem{Label: "Save current…", Action: ActionSave, Icon: "document-save", Meta: "save new profile"},
	)
	if len(profiles) > 0 {
		sub := make([]MenuItem, 0, len(profiles))
		for _, name := range profiles {
			sub = append(sub, MenuItem{Label: name, Action: deletePrefix + name, Icon: "edit-delete", Urgent: true})
		}
		items = append(items, MenuItem{Label: "Delete profile", Icon: "edit-delete", Meta: "remove", Submenu: sub})
	}
	items = append(items,
		MenuItem{Label: "Undo last load", Action: ActionUndo, Icon: "edit-undo", Meta: "revert restore"},
		MenuItem{Label: "Turn off displays", Action: ActionPowerOff, Icon: "system-shutdown", Meta: "sleep dpms power"},
	)
	return items
}

// Run shows the profile menu and executes the selection. It returns a short
// description of what was done, or ErrCancelled.
func Run(ctx context.Context, backend Backend, ops Operations, active string) (string, error) {
	profiles, err := ops.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list profiles: %w", err)
	}

	menu := NewMenu(backend, ProfileMenu(profiles, active))
	if caps := backend.Capabilities(); caps.MessageBar && caps.AlternateKey {
		menu.SetMessage(fmt.Sprintf("<span size='small'>%s</span>", menuHints))
	}

	result, err := menu.Show()
	if err != nil {
		return "", err
	}
	return Execute(ctx, backend, ops, result)
}

// Execute runs the action of a menu result.
func Execute(ctx context.Context, backend Backend, ops Operations, result MenuResult) (string, error) {
	action := result.Action
	if name, ok := strings.CutPrefix(action, loadPrefix); ok && result.Alternate {
		action = deletePrefix + name
	}

	switch {
	case action == ActionNoop:
		return "", nil

	case strings.HasPrefix(action, loadPrefix):
		name := strings.TrimPrefix(action, loadPrefix)
		if err := ops.Load(ctx, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaded profile %q", name), nil

	case strings.HasPrefix(action, deletePrefix):
		name := strings.TrimPrefix(action, deletePrefix)
		if err := ops.Delete(ctx, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted profile %q", name), nil

	case action == ActionSave:
		name, err := backend.Input("Profile name", "Save the current display layout as")
		if err != nil {
			return "", err
		}
		exists, err := ops.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if exists {
			if err := confirm(backend, fmt.Sprintf("Profile %q exists", name), "Overwrite "+name); err != nil {
				return "", err
			}
		}
		if err := ops.Save(ctx, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Saved profile %q", name), nil

	case action == ActionUndo:
		if err := ops.Undo(ctx); err != nil {
			return "", err
		}
		return "Restored previous layout", nil

	case action == ActionPowerOff:
		if err := ops.PowerOff(ctx); err != nil {
			return "", err
		}
		return "Displays off", nil

	default:
		return "", errors.New("palette: unknown action " + action)
	}
}

// confirm asks a yes/no question with the destructive answer highlighted.
// Anything but that answer is ErrCancelled.
func confirm(backend Backend, prompt, yes string) error {
	rows := []Item{
		{Label: yes, Action: confirmAction, Icon: "dialog-warning", Urgent: true},
		{Label: "Cancel", Action: ActionNoop, Icon: "dialog-cancel"},
	}
	sel, err := backend.Show(prompt, rows, "")
	if err != nil {
		return err
	}
	if sel.Item.Action != confirmAction {
		return ErrCancelled
	}
	return nil
}
