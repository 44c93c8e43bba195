//go:build windows

package platform

import "github.com/1broseidon/monswitch/internal/ccd"

// Open returns a session backed by the CCD API. display and xauthority are
// X11 settings and are ignored.
func Open(display, xauthority string) (*Session, error) {
	return &Session{Driver: ccd.NewDriver()}, nil
}
