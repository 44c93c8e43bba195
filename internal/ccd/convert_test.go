package ccd

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/1broseidon/monswitch/internal/topology"
)

func TestWireStructSizes(t *testing.T) {
	if got := binary.Size(pathInfo{}); got != pathInfoSize {
		t.Fatalf("pathInfo is %d bytes, want %d", got, pathInfoSize)
	}
	if got := binary.Size(modeInfo{}); got != modeInfoSize {
		t.Fatalf("modeInfo is %d bytes, want %d", got, modeInfoSize)
	}
	if got := binary.Size(videoSignalInfo{}); got != modeUnionSize {
		t.Fatalf("videoSignalInfo is %d bytes, want %d", got, modeUnionSize)
	}
}

func TestModeUnionRoundTrip(t *testing.T) {
	ref := topology.AdapterRef{LowPart: 0xd00d, HighPart: 0}
	modes := []topology.Mode{
		topology.NewSourceMode(1, ref, topology.SourceMode{Width: 1920, Height: 1080, PixelFormat: 4, Position: topology.Point{X: -1920, Y: 12}}),
		topology.NewTargetMode(7, ref, topology.TargetMode{Signal: topology.VideoSignal{
			PixelRate:     533250000,
			HSync:         topology.Rational{Numerator: 533250000, Denominator: 3680},
			VSync:         topology.Rational{Numerator: 533250000, Denominator: 3680 * 1510},
			ActiveSize:    topology.Region{Cx: 3440, Cy: 1440},
			TotalSize:     topology.Region{Cx: 3680, Cy: 1510},
			VideoStandard: 255,
			ScanLineOrder: 1,
		}}),
	}
	for _, m := range modes {
		raw, err := encodeMode(m)
		if err != nil {
			t.Fatalf("encodeMode(%d): %v", m.ID, err)
		}
		back, err := decodeMode(raw)
		if err != nil {
			t.Fatalf("decodeMode(%d): %v", m.ID, err)
		}
		if !back.Equal(m) {
			t.Fatalf("mode %d changed across the union: %+v", m.ID, back)
		}
	}
}

func TestDecodeSourceModeLayout(t *testing.T) {
	raw := modeInfo{InfoType: modeInfoTypeSource, ID: 3}
	binary.LittleEndian.PutUint32(raw.ModeData[0:], 2560)
	binary.LittleEndian.PutUint32(raw.ModeData[4:], 1440)
	binary.LittleEndian.PutUint32(raw.ModeData[8:], 4)
	binary.LittleEndian.PutUint32(raw.ModeData[12:], uint32(0xfffffc40)) // -960

	m, err := decodeMode(raw)
	if err != nil {
		t.Fatalf("decodeMode: %v", err)
	}
	sm, ok := m.SourceMode()
	if !ok || sm.Width != 2560 || sm.Height != 1440 || sm.Position.X != -960 {
		t.Fatalf("unexpected source mode: %+v", sm)
	}
}

func TestDecodeUnsetMode(t *testing.T) {
	m, err := decodeMode(modeInfo{})
	if err != nil {
		t.Fatalf("decodeMode: %v", err)
	}
	if m.Kind != topology.ModeKindUnset {
		t.Fatalf("expected unset kind, got %s", m.Kind)
	}
	if _, err := encodeMode(m); err == nil {
		t.Fatalf("expected encode of unset mode to fail")
	}
}

func TestPathConversion(t *testing.T) {
	raw := []pathInfo{{
		SourceInfo: pathSourceInfo{AdapterID: luid{LowPart: 5}, ID: 0, ModeInfoIdx: 1},
		TargetInfo: pathTargetInfo{AdapterID: luid{LowPart: 5}, ID: 4352, ModeInfoIdx: 0, Rotation: 1,
			RefreshRate: rational{Numerator: 144000, Denominator: 1000}, TargetAvailable: 1},
		Flags: 1,
	}}
	topo, err := toTopology(raw, nil)
	if err != nil {
		t.Fatalf("toTopology: %v", err)
	}
	p := topo.Paths[0]
	if !p.Active() || !p.Target.Available || p.Target.ID != 4352 || p.Target.RefreshRate.Float() != 144 {
		t.Fatalf("unexpected path: %+v", p)
	}

	paths, _, err := fromTopology(topo)
	if err != nil {
		t.Fatalf("fromTopology: %v", err)
	}
	if paths[0] != raw[0] {
		t.Fatalf("path changed across conversion: %+v", paths[0])
	}
}

func TestIdentityOf(t *testing.T) {
	var n targetDeviceName
	copy(n.MonitorFriendlyDeviceName[:], utf16.Encode([]rune("DELL U2720Q")))
	copy(n.MonitorDevicePath[:], utf16.Encode([]rune(`\\?\DISPLAY#DELA0C4#5&1`)))
	n.EdidManufactureID = 0xac10
	n.EdidProductCodeID = 0xa0c4

	id := identityOf(n)
	if id.FriendlyName != "DELL U2720Q" || !id.Valid || id.ManufacturerID != 0 {
		t.Fatalf("unexpected identity without EDID flag: %+v", id)
	}

	n.Flags = targetNameFlagEdidIDsValid
	id = identityOf(n)
	if id.ManufacturerID != 0xac10 || id.ProductCode != 0xa0c4 || id.DevicePath != `\\?\DISPLAY#DELA0C4#5&1` {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
