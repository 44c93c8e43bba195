//go:build !windows

package platform

import (
	"fmt"

	"github.com/1broseidon/monswitch/internal/x11"
)

// Open connects to the X server named by display. When display is empty the
// environment and the user's login session are consulted.
func Open(display, xauthority string) (*Session, error) {
	display, xauthority, err := resolveX11Env(display, xauthority)
	if err != nil {
		return nil, err
	}
	conn, err := x11.NewConnection(display, xauthority)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11 display %s: %w", display, err)
	}
	return &Session{
		Driver: x11.NewDriver(conn),
		X11:    conn,
		close:  conn.Close,
	}, nil
}
