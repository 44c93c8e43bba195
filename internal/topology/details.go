package topology

import "fmt"

// MonitorDetails is a human-oriented summary of one path.
type MonitorDetails struct {
	Name        string  `json:"name"`
	Width       uint32  `json:"width"`
	Height      uint32  `json:"height"`
	RefreshRate float64 `json:"refreshRate"`
	PositionX   int32   `json:"positionX"`
	PositionY   int32   `json:"positionY"`
	Rotation    uint32  `json:"rotation"`
	// IsPrimary is a heuristic: the monitor positioned at the desktop origin.
	// The OS does not guarantee the primary display sits at (0,0).
	IsPrimary bool    `json:"isPrimary"`
	DpiScale  *uint32 `json:"dpiScale,omitempty"`
}

// Describe summarises every path of t that resolves to a mode.
func Describe(t Topology) []MonitorDetails {
	var out []MonitorDetails
	for i, p := range t.Paths {
		var (
			width, height uint32
			pos           Point
			found         bool
		)
		if m, ok := t.ModeAt(p.Source.ModeIndex); ok {
			if sm, ok := m.SourceMode(); ok {
				width, height, pos, found = sm.Width, sm.Height, sm.Position, true
			}
		}
		if !found {
			if m, ok := t.ModeAt(p.Target.ModeIndex); ok {
				if tm, ok := m.TargetMode(); ok {
					width, height, found = tm.Signal.ActiveSize.Cx, tm.Signal.ActiveSize.Cy, true
				}
			}
		}
		if !found {
			continue
		}

		name := fmt.Sprintf("Display %d", i+1)
		if p.Target.ModeIndex != InvalidModeIndex {
			if id := t.IdentityFor(int(p.Target.ModeIndex)); id.Usable() {
				name = id.FriendlyName
			}
		}

		d := MonitorDetails{
			Name:        name,
			Width:       width,
			Height:      height,
			RefreshRate: p.Target.RefreshRate.Float(),
			PositionX:   pos.X,
			PositionY:   pos.Y,
			Rotation:    p.Target.Rotation,
			IsPrimary:   pos.X == 0 && pos.Y == 0,
		}
		if dpi, ok := t.DPIFor(p.Source.ID); ok {
			percent := dpi.Percent
			d.DpiScale = &percent
		}
		out = append(out, d)
	}
	return out
}
