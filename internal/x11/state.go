package x11

import (
	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/monswitch/internal/topology"
)

// sourcePixelFormat is the 32bpp value used for every CRTC surface.
const sourcePixelFormat = 4

type outputState struct {
	id        randr.Output
	name      string
	connected bool
	crtc      randr.Crtc
	crtcs     []randr.Crtc
	modes     []randr.Mode
}

func (o outputState) canUse(c randr.Crtc) bool {
	for _, pc := range o.crtcs {
		if pc == c {
			return true
		}
	}
	return false
}

func (o outputState) offers(m randr.Mode) bool {
	for _, om := range o.modes {
		if om == m {
			return true
		}
	}
	return false
}

type crtcState struct {
	id       randr.Crtc
	x, y     int16
	width    uint16
	height   uint16
	mode     randr.Mode
	rotation uint16
	outputs  []randr.Output
}

func (c crtcState) enabled() bool {
	return c.mode != 0
}

// screenState is one consistent read of the RandR screen resources.
type screenState struct {
	ref     topology.AdapterRef
	crtcs   []crtcState
	outputs []outputState
	modes   map[randr.Mode]randr.ModeInfo

	minWidth, minHeight uint16
	maxWidth, maxHeight uint16
}

func (s *screenState) crtc(id randr.Crtc) (crtcState, bool) {
	for _, c := range s.crtcs {
		if c.id == id {
			return c, true
		}
	}
	return crtcState{}, false
}

func (s *screenState) output(id randr.Output) (outputState, bool) {
	for _, o := range s.outputs {
		if o.id == id {
			return o, true
		}
	}
	return outputState{}, false
}

func rotationToTopology(r uint16) uint32 {
	switch {
	case r&randr.RotationRotate90 != 0:
		return topology.Rotation90
	case r&randr.RotationRotate180 != 0:
		return topology.Rotation180
	case r&randr.RotationRotate270 != 0:
		return topology.Rotation270
	default:
		return topology.RotationIdentity
	}
}

func rotationFromTopology(r uint32) uint16 {
	switch r {
	case topology.Rotation90:
		return randr.RotationRotate90
	case topology.Rotation180:
		return randr.RotationRotate180
	case topology.Rotation270:
		return randr.RotationRotate270
	default:
		return randr.RotationRotate0
	}
}

func scanLineOrder(mi randr.ModeInfo) uint32 {
	if mi.ModeFlags&randr.ModeFlagInterlace != 0 {
		return 2
	}
	return 1
}

func refreshOf(mi randr.ModeInfo) topology.Rational {
	return topology.Rational{Numerator: mi.DotClock, Denominator: uint32(mi.Htotal) * uint32(mi.Vtotal)}
}

func targetModeOf(mi randr.ModeInfo) topology.TargetMode {
	return topology.TargetMode{Signal: topology.VideoSignal{
		PixelRate:     uint64(mi.DotClock),
		HSync:         topology.Rational{Numerator: mi.DotClock, Denominator: uint32(mi.Htotal)},
		VSync:         refreshOf(mi),
		ActiveSize:    topology.Region{Cx: uint32(mi.Width), Cy: uint32(mi.Height)},
		TotalSize:     topology.Region{Cx: uint32(mi.Htotal), Cy: uint32(mi.Vtotal)},
		VideoStandard: 255,
		ScanLineOrder: scanLineOrder(mi),
	}}
}

// topology converts the screen state into the shared model. Enabled CRTCs
// become active paths, one per driven output. With activeOnly unset,
// connected outputs without a CRTC are appended as inactive paths whose
// source is the first CRTC the output can use.
func (s *screenState) topology(activeOnly bool) topology.Topology {
	var t topology.Topology
	sourceIdx := make(map[randr.Crtc]uint32)

	for _, c := range s.crtcs {
		if !c.enabled() || len(c.outputs) == 0 {
			continue
		}
		mi, ok := s.modes[c.mode]
		if !ok {
			continue
		}
		src, seen := sourceIdx[c.id]
		if !seen {
			src = uint32(len(t.Modes))
			sourceIdx[c.id] = src
			t.Modes = append(t.Modes, topology.NewSourceMode(uint32(c.id), s.ref, topology.SourceMode{
				Width:       uint32(c.width),
				Height:      uint32(c.height),
				PixelFormat: sourcePixelFormat,
				Position:    topology.Point{X: int32(c.x), Y: int32(c.y)},
			}))
		}
		for _, oid := range c.outputs {
			o, _ := s.output(oid)
			tgt := uint32(len(t.Modes))
			t.Modes = append(t.Modes, topology.NewTargetMode(uint32(oid), s.ref, targetModeOf(mi)))
			t.Paths = append(t.Paths, topology.Path{
				Source: topology.PathSource{AdapterRef: s.ref, ID: uint32(c.id), ModeIndex: src},
				Target: topology.PathTarget{
					AdapterRef:    s.ref,
					ID:            uint32(oid),
					ModeIndex:     tgt,
					Rotation:      rotationToTopology(c.rotation),
					RefreshRate:   refreshOf(mi),
					ScanLineOrder: scanLineOrder(mi),
					Available:     o.connected,
				},
				Flags: topology.PathFlagActive,
			})
		}
	}

	if activeOnly {
		return t
	}
	for _, o := range s.outputs {
		if !o.connected || o.crtc != 0 {
			continue
		}
		var src uint32
		if len(o.crtcs) > 0 {
			src = uint32(o.crtcs[0])
		}
		t.Paths = append(t.Paths, topology.Path{
			Source: topology.PathSource{AdapterRef: s.ref, ID: src, ModeIndex: topology.InvalidModeIndex},
			Target: topology.PathTarget{
				AdapterRef: s.ref,
				ID:         uint32(o.id),
				ModeIndex:  topology.InvalidModeIndex,
				Rotation:   topology.RotationIdentity,
				Available:  true,
			},
		})
	}
	return t
}
