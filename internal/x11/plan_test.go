package x11

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/topology"
)

const (
	mode1440p60  randr.Mode = 1
	mode1080p60  randr.Mode = 2
	mode1080p144 randr.Mode = 3
)

// fixtureState is a landscape 1440p monitor on DP-1 with a portrait 1080p
// monitor to its right on HDMI-1, plus an idle DP-2 and a disconnected DP-3.
func fixtureState() *screenState {
	return &screenState{
		ref: topology.AdapterRef{LowPart: 0x40},
		modes: map[randr.Mode]randr.ModeInfo{
			mode1440p60:  {Id: 1, Width: 2560, Height: 1440, DotClock: 241500000, Htotal: 2720, Vtotal: 1481},
			mode1080p60:  {Id: 2, Width: 1920, Height: 1080, DotClock: 148500000, Htotal: 2200, Vtotal: 1125},
			mode1080p144: {Id: 3, Width: 1920, Height: 1080, DotClock: 325080000, Htotal: 2080, Vtotal: 1085},
		},
		crtcs: []crtcState{
			{id: 0x30, width: 2560, height: 1440, mode: mode1440p60, rotation: randr.RotationRotate0, outputs: []randr.Output{0x50}},
			{id: 0x31, x: 2560, width: 1080, height: 1920, mode: mode1080p60, rotation: randr.RotationRotate90, outputs: []randr.Output{0x51}},
			{id: 0x32},
		},
		outputs: []outputState{
			{id: 0x50, name: "DP-1", connected: true, crtc: 0x30, crtcs: []randr.Crtc{0x30, 0x31}, modes: []randr.Mode{mode1440p60, mode1080p60}},
			{id: 0x51, name: "HDMI-1", connected: true, crtc: 0x31, crtcs: []randr.Crtc{0x30, 0x31}, modes: []randr.Mode{mode1080p60, mode1080p144}},
			{id: 0x52, name: "DP-2", connected: true, crtcs: []randr.Crtc{0x32}, modes: []randr.Mode{mode1080p60}},
			{id: 0x53, name: "DP-3", crtcs: []randr.Crtc{0x32}},
		},
		minWidth: 320, minHeight: 200,
		maxWidth: 8192, maxHeight: 8192,
	}
}

func TestStateTopologyActive(t *testing.T) {
	topo := fixtureState().topology(true)
	if err := topo.Validate(); err != nil {
		t.Fatalf("invalid topology: %v", err)
	}
	if len(topo.Paths) != 2 || len(topo.Modes) != 4 {
		t.Fatalf("expected 2 paths and 4 modes, got %d/%d", len(topo.Paths), len(topo.Modes))
	}

	portrait := topo.Paths[1]
	if portrait.Source.ID != 0x31 || portrait.Target.ID != 0x51 || !portrait.Active() {
		t.Fatalf("unexpected portrait path: %+v", portrait)
	}
	if portrait.Target.Rotation != topology.Rotation90 {
		t.Fatalf("expected 90 degree rotation, got %d", portrait.Target.Rotation)
	}
	sm, ok := topo.Modes[portrait.Source.ModeIndex].SourceMode()
	if !ok || sm.Width != 1080 || sm.Position.X != 2560 {
		t.Fatalf("unexpected source mode: %+v", sm)
	}
	tm, ok := topo.Modes[portrait.Target.ModeIndex].TargetMode()
	if !ok || tm.Signal.ActiveSize.Cx != 1920 || tm.Signal.ScanLineOrder != 1 {
		t.Fatalf("unexpected target mode: %+v", tm)
	}
	if hz := portrait.Target.RefreshRate.Float(); hz < 59.9 || hz > 60.1 {
		t.Fatalf("expected ~60Hz, got %v", hz)
	}
}

func TestStateTopologyIncludesIdleOutputs(t *testing.T) {
	topo := fixtureState().topology(false)
	if len(topo.Paths) != 3 {
		t.Fatalf("expected idle DP-2 to be reported, got %d paths", len(topo.Paths))
	}
	idle := topo.Paths[2]
	if idle.Active() || idle.Target.ID != 0x52 || idle.Source.ID != 0x32 {
		t.Fatalf("unexpected idle path: %+v", idle)
	}
	if idle.Source.ModeIndex != topology.InvalidModeIndex || idle.Target.ModeIndex != topology.InvalidModeIndex {
		t.Fatalf("idle path must not reference modes: %+v", idle)
	}
}

func TestPlanCommitRoundTrip(t *testing.T) {
	s := fixtureState()
	plan, err := planCommit(s, s.topology(true), false)
	if err != nil {
		t.Fatalf("planCommit: %v", err)
	}
	if len(plan.configs) != 2 || len(plan.disable) != 0 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if plan.width != 3640 || plan.height != 1920 {
		t.Fatalf("expected 3640x1920 screen, got %dx%d", plan.width, plan.height)
	}
	portrait := plan.configs[1]
	if portrait.crtc != 0x31 || portrait.mode != mode1080p60 || portrait.rotation != randr.RotationRotate90 || portrait.x != 2560 {
		t.Fatalf("unexpected portrait config: %+v", portrait)
	}
	if plan.primary != 0x50 {
		t.Fatalf("expected DP-1 primary, got %d", plan.primary)
	}
}

func withTargetMode(topo topology.Topology, path int, width, height uint32, refresh topology.Rational) topology.Topology {
	p := &topo.Paths[path]
	m := topo.Modes[p.Target.ModeIndex]
	topo.Modes[p.Target.ModeIndex] = topology.NewTargetMode(m.ID, m.AdapterRef, topology.TargetMode{
		Signal: topology.VideoSignal{ActiveSize: topology.Region{Cx: width, Cy: height}},
	})
	p.Target.RefreshRate = refresh
	return topo
}

func assertRejected(t *testing.T, err error) {
	t.Helper()
	var se *display.StatusError
	if !errors.As(err, &se) || se.Status != int64(randr.SetConfigFailed) {
		t.Fatalf("expected SetConfigFailed status error, got %v", err)
	}
}

func TestPlanCommitCrtcAssignment(t *testing.T) {
	s := fixtureState()
	topo := s.topology(true)
	topo.Paths[0].Source.ID = 0x32

	_, err := planCommit(s, topo, false)
	assertRejected(t, err)

	plan, err := planCommit(s, topo, true)
	if err != nil {
		t.Fatalf("planCommit with changes: %v", err)
	}
	if plan.configs[0].crtc != 0x30 {
		t.Fatalf("expected reassignment to crtc 0x30, got %#x", plan.configs[0].crtc)
	}
}

func TestPlanCommitModeSelection(t *testing.T) {
	s := fixtureState()
	hz144 := topology.Rational{Numerator: 144, Denominator: 1}

	fast := withTargetMode(s.topology(true), 1, 1920, 1080, hz144)
	plan, err := planCommit(s, fast, false)
	if err != nil {
		t.Fatalf("planCommit: %v", err)
	}
	if plan.configs[1].mode != mode1080p144 {
		t.Fatalf("expected 144Hz mode, got %d", plan.configs[1].mode)
	}

	unsupported := withTargetMode(s.topology(true), 0, 1920, 1080, hz144)
	_, err = planCommit(s, unsupported, false)
	assertRejected(t, err)

	plan, err = planCommit(s, unsupported, true)
	if err != nil {
		t.Fatalf("planCommit with changes: %v", err)
	}
	if plan.configs[0].mode != mode1080p60 {
		t.Fatalf("expected closest mode 1080p60, got %d", plan.configs[0].mode)
	}
}

func TestPlanCommitNormalizesNegativePositions(t *testing.T) {
	s := fixtureState()
	topo := s.topology(true)
	src := topo.Paths[1].Source.ModeIndex
	sm, _ := topo.Modes[src].SourceMode()
	sm.Position = topology.Point{X: -1080, Y: 0}
	topo.Modes[src] = topology.NewSourceMode(topo.Modes[src].ID, topo.Modes[src].AdapterRef, sm)

	plan, err := planCommit(s, topo, false)
	if err != nil {
		t.Fatalf("planCommit: %v", err)
	}
	if plan.configs[0].x != 1080 || plan.configs[1].x != 0 {
		t.Fatalf("expected shifted layout, got %+v", plan.configs)
	}
	if plan.primary != 0x51 {
		t.Fatalf("expected HDMI-1 at origin to be primary, got %d", plan.primary)
	}
}

func TestPlanCommitDisablesUnusedCrtcs(t *testing.T) {
	s := fixtureState()
	topo := s.topology(true)
	topo.Paths = topo.Paths[:1]

	plan, err := planCommit(s, topo, false)
	if err != nil {
		t.Fatalf("planCommit: %v", err)
	}
	if len(plan.disable) != 1 || plan.disable[0] != 0x31 {
		t.Fatalf("expected crtc 0x31 disabled, got %v", plan.disable)
	}
	if plan.width != 2560 || plan.height != 1440 {
		t.Fatalf("expected 2560x1440 screen, got %dx%d", plan.width, plan.height)
	}
}

func TestPlanCommitRejects(t *testing.T) {
	s := fixtureState()

	s.maxWidth = 3000
	_, err := planCommit(s, s.topology(true), true)
	assertRejected(t, err)

	s = fixtureState()
	inactive := s.topology(true)
	for i := range inactive.Paths {
		inactive.Paths[i].Flags = 0
	}
	_, err = planCommit(s, inactive, true)
	assertRejected(t, err)

	unknown := s.topology(true)
	unknown.Paths[0].Target.ID = 0x99
	_, err = planCommit(s, unknown, true)
	assertRejected(t, err)
}
