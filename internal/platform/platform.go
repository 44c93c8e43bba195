// Package platform opens the display subsystem of the running OS.
package platform

import (
	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/x11"
)

// Session is an open connection to the display subsystem.
type Session struct {
	Driver display.Driver
	// X11 is the underlying connection, nil on platforms that do not use X.
	// The daemon binds global hotkeys on it.
	X11 *x11.Connection

	close func()
}

// Close releases the session. It is safe to call on a nil session.
func (s *Session) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
