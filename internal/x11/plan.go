package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/topology"
)

// crtcConfig is one SetCrtcConfig call.
type crtcConfig struct {
	crtc     randr.Crtc
	mode     randr.Mode
	x, y     int32
	rotation uint16
	width    uint32
	height   uint32
	outputs  []randr.Output
}

// commitPlan is the ordered list of RandR requests for one commit.
type commitPlan struct {
	disable []randr.Crtc
	width   uint16
	height  uint16
	configs []crtcConfig
	primary randr.Output
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{&display.StatusError{Op: "SetCrtcConfig", Status: int64(randr.SetConfigFailed)}}, args...)...)
}

// planCommit maps the active paths of t onto the screen. Without
// allowChanges every path must name a CRTC its output can use and a mode the
// output offers; with it, busy or impossible CRTCs are reassigned and the
// closest offered mode is picked.
func planCommit(s *screenState, t topology.Topology, allowChanges bool) (commitPlan, error) {
	var plan commitPlan
	used := make(map[randr.Crtc]int)

	for i, p := range t.Paths {
		if !p.Active() {
			continue
		}
		if !allowChanges && (p.Source.AdapterRef != s.ref || p.Target.AdapterRef != s.ref) {
			return commitPlan{}, rejected("path %d: adapter %s is not %s", i, p.Target.AdapterRef, s.ref)
		}
		out, ok := s.output(randr.Output(p.Target.ID))
		if !ok {
			return commitPlan{}, rejected("path %d: unknown output %d", i, p.Target.ID)
		}
		if !out.connected {
			return commitPlan{}, rejected("path %d: output %s is not connected", i, out.name)
		}

		width, height, pos, ok := wantedGeometry(t, p)
		if !ok {
			return commitPlan{}, rejected("path %d: no mode describes the output size", i)
		}
		mode, ok := pickMode(s, out, width, height, p.Target.RefreshRate.Float(), allowChanges)
		if !ok {
			return commitPlan{}, rejected("path %d: output %s offers no %dx%d@%.2f mode", i, out.name, width, height, p.Target.RefreshRate.Float())
		}
		rotation := rotationFromTopology(p.Target.Rotation)
		extentW, extentH := width, height
		if rotation == randr.RotationRotate90 || rotation == randr.RotationRotate270 {
			extentW, extentH = height, width
		}

		crtc := randr.Crtc(p.Source.ID)
		if at, busy := used[crtc]; busy {
			c := plan.configs[at]
			if c.mode == mode && c.x == pos.X && c.y == pos.Y && c.rotation == rotation && out.canUse(crtc) {
				plan.configs[at].outputs = append(plan.configs[at].outputs, out.id)
				continue
			}
			if !allowChanges {
				return commitPlan{}, rejected("path %d: crtc %d already drives another output", i, crtc)
			}
			crtc = 0
		}
		if !out.canUse(crtc) {
			if !allowChanges {
				return commitPlan{}, rejected("path %d: output %s cannot use crtc %d", i, out.name, p.Source.ID)
			}
			crtc = freeCrtc(out, used)
			if crtc == 0 {
				return commitPlan{}, rejected("path %d: no free crtc for output %s", i, out.name)
			}
		}

		used[crtc] = len(plan.configs)
		plan.configs = append(plan.configs, crtcConfig{
			crtc:     crtc,
			mode:     mode,
			x:        pos.X,
			y:        pos.Y,
			rotation: rotation,
			width:    extentW,
			height:   extentH,
			outputs:  []randr.Output{out.id},
		})
	}
	if len(plan.configs) == 0 {
		return commitPlan{}, rejected("no active paths")
	}

	normalizePositions(plan.configs)

	var maxX, maxY uint32
	for _, c := range plan.configs {
		maxX = max(maxX, uint32(c.x)+c.width)
		maxY = max(maxY, uint32(c.y)+c.height)
	}
	if maxX > uint32(s.maxWidth) || maxY > uint32(s.maxHeight) {
		return commitPlan{}, rejected("screen %dx%d exceeds maximum %dx%d", maxX, maxY, s.maxWidth, s.maxHeight)
	}
	plan.width = max(uint16(maxX), s.minWidth)
	plan.height = max(uint16(maxY), s.minHeight)

	// CRTCs that are not reused, or whose current extent would fall outside
	// the new screen, must be off before the screen is resized.
	for _, c := range s.crtcs {
		if !c.enabled() {
			continue
		}
		_, reused := used[c.id]
		fits := int32(c.x)+int32(c.width) <= int32(plan.width) && int32(c.y)+int32(c.height) <= int32(plan.height)
		if !reused || !fits {
			plan.disable = append(plan.disable, c.id)
		}
	}

	for _, c := range plan.configs {
		if c.x == 0 && c.y == 0 {
			plan.primary = c.outputs[0]
			break
		}
	}
	return plan, nil
}

// wantedGeometry returns the unrotated mode size and position for p. The
// target mode's active size wins; otherwise the source size is unrotated.
func wantedGeometry(t topology.Topology, p topology.Path) (uint32, uint32, topology.Point, bool) {
	var (
		pos           topology.Point
		width, height uint32
		found         bool
	)
	if m, ok := t.ModeAt(p.Source.ModeIndex); ok {
		if sm, ok := m.SourceMode(); ok {
			pos = sm.Position
			width, height, found = sm.Width, sm.Height, true
			if p.Target.Rotation == topology.Rotation90 || p.Target.Rotation == topology.Rotation270 {
				width, height = height, width
			}
		}
	}
	if m, ok := t.ModeAt(p.Target.ModeIndex); ok {
		if tm, ok := m.TargetMode(); ok && tm.Signal.ActiveSize.Cx != 0 && tm.Signal.ActiveSize.Cy != 0 {
			width, height, found = tm.Signal.ActiveSize.Cx, tm.Signal.ActiveSize.Cy, true
		}
	}
	return width, height, pos, found
}

const refreshTolerance = 0.5

// pickMode finds an offered mode of exactly width x height whose refresh is
// within tolerance of refresh (any refresh when refresh is 0). With closest
// set, the nearest mode by size then refresh is accepted instead.
func pickMode(s *screenState, out outputState, width, height uint32, refresh float64, closest bool) (randr.Mode, bool) {
	var (
		best      randr.Mode
		bestSize  = uint64(math.MaxUint64)
		bestDelta = math.Inf(1)
	)
	for _, id := range out.modes {
		mi, ok := s.modes[id]
		if !ok {
			continue
		}
		sizeDiff := absDiff(uint32(mi.Width), width) + absDiff(uint32(mi.Height), height)
		delta := 0.0
		if refresh > 0 {
			delta = math.Abs(refreshOf(mi).Float() - refresh)
		}
		if sizeDiff == 0 && delta <= refreshTolerance {
			return id, true
		}
		if sizeDiff < bestSize || (sizeDiff == bestSize && delta < bestDelta) {
			best, bestSize, bestDelta = id, sizeDiff, delta
		}
	}
	if closest && best != 0 {
		return best, true
	}
	return 0, false
}

func absDiff(a, b uint32) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

func freeCrtc(out outputState, used map[randr.Crtc]int) randr.Crtc {
	for _, c := range out.crtcs {
		if _, busy := used[c]; !busy {
			return c
		}
	}
	return 0
}

// normalizePositions shifts the layout so no CRTC sits at a negative
// coordinate.
func normalizePositions(configs []crtcConfig) {
	var minX, minY int32
	for _, c := range configs {
		minX = min(minX, c.x)
		minY = min(minY, c.y)
	}
	for i := range configs {
		configs[i].x -= minX
		configs[i].y -= minY
	}
}
