package palette

import (
	"fmt"
	"os/exec"
	"strings"
)

// detectOrder is the auto-detection preference.
var detectOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

var lookPath = exec.LookPath

// DetectBackend returns the first launcher of detectOrder found in PATH.
func DetectBackend() (string, error) {
	for _, name := range detectOrder {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(detectOrder, ", "))
}

// NewBackend returns the launcher called name; "" and "auto" detect one.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	l := newLauncher(name)
	if l == nil {
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(detectOrder, ", "))
	}
	if _, err := lookPath(l.bin); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return l, nil
}
