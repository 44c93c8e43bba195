package ccd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/1broseidon/monswitch/internal/topology"
)

func refOf(l luid) topology.AdapterRef {
	return topology.AdapterRef{LowPart: l.LowPart, HighPart: l.HighPart}
}

func luidOf(r topology.AdapterRef) luid {
	return luid{LowPart: r.LowPart, HighPart: r.HighPart}
}

// decodeMode turns the raw union into a tagged mode. Unset entries decode to
// a payload-less mode that the display adapter filters out.
func decodeMode(m modeInfo) (topology.Mode, error) {
	ref := refOf(m.AdapterID)
	r := bytes.NewReader(m.ModeData[:])
	switch m.InfoType {
	case modeInfoTypeSource:
		var sm sourceModeInfo
		if err := binary.Read(r, binary.LittleEndian, &sm); err != nil {
			return topology.Mode{}, fmt.Errorf("decode source mode %d: %w", m.ID, err)
		}
		return topology.NewSourceMode(m.ID, ref, topology.SourceMode{
			Width:       sm.Width,
			Height:      sm.Height,
			PixelFormat: sm.PixelFormat,
			Position:    topology.Point{X: sm.Position.X, Y: sm.Position.Y},
		}), nil
	case modeInfoTypeTarget:
		var vs videoSignalInfo
		if err := binary.Read(r, binary.LittleEndian, &vs); err != nil {
			return topology.Mode{}, fmt.Errorf("decode target mode %d: %w", m.ID, err)
		}
		return topology.NewTargetMode(m.ID, ref, topology.TargetMode{Signal: topology.VideoSignal{
			PixelRate:     vs.PixelRate,
			HSync:         topology.Rational(vs.HSyncFreq),
			VSync:         topology.Rational(vs.VSyncFreq),
			ActiveSize:    topology.Region(vs.ActiveSize),
			TotalSize:     topology.Region(vs.TotalSize),
			VideoStandard: vs.VideoStandard,
			ScanLineOrder: vs.ScanLineOrdering,
		}}), nil
	default:
		return topology.Mode{Kind: topology.ModeKind(m.InfoType), ID: m.ID, AdapterRef: ref}, nil
	}
}

func encodeMode(m topology.Mode) (modeInfo, error) {
	out := modeInfo{InfoType: uint32(m.Kind), ID: m.ID, AdapterID: luidOf(m.AdapterRef)}
	var buf bytes.Buffer
	if sm, ok := m.SourceMode(); ok {
		raw := sourceModeInfo{
			Width:       sm.Width,
			Height:      sm.Height,
			PixelFormat: sm.PixelFormat,
			Position:    pointL{X: sm.Position.X, Y: sm.Position.Y},
		}
		if err := binary.Write(&buf, binary.LittleEndian, raw); err != nil {
			return modeInfo{}, err
		}
	} else if tm, ok := m.TargetMode(); ok {
		s := tm.Signal
		raw := videoSignalInfo{
			PixelRate:        s.PixelRate,
			HSyncFreq:        rational(s.HSync),
			VSyncFreq:        rational(s.VSync),
			ActiveSize:       region(s.ActiveSize),
			TotalSize:        region(s.TotalSize),
			VideoStandard:    s.VideoStandard,
			ScanLineOrdering: s.ScanLineOrder,
		}
		if err := binary.Write(&buf, binary.LittleEndian, raw); err != nil {
			return modeInfo{}, err
		}
	} else {
		return modeInfo{}, fmt.Errorf("mode %d has no payload for kind %s", m.ID, m.Kind)
	}
	copy(out.ModeData[:], buf.Bytes())
	return out, nil
}

func toTopology(paths []pathInfo, modes []modeInfo) (topology.Topology, error) {
	t := topology.Topology{
		Paths: make([]topology.Path, 0, len(paths)),
		Modes: make([]topology.Mode, 0, len(modes)),
	}
	for _, p := range paths {
		s, g := p.SourceInfo, p.TargetInfo
		t.Paths = append(t.Paths, topology.Path{
			Source: topology.PathSource{
				AdapterRef:  refOf(s.AdapterID),
				ID:          s.ID,
				ModeIndex:   s.ModeInfoIdx,
				StatusFlags: s.StatusFlags,
			},
			Target: topology.PathTarget{
				AdapterRef:    refOf(g.AdapterID),
				ID:            g.ID,
				ModeIndex:     g.ModeInfoIdx,
				OutputKind:    g.OutputTechnology,
				Rotation:      g.Rotation,
				ScalingMode:   g.Scaling,
				RefreshRate:   topology.Rational(g.RefreshRate),
				ScanLineOrder: g.ScanLineOrdering,
				Available:     g.TargetAvailable != 0,
				StatusFlags:   g.StatusFlags,
			},
			Flags: p.Flags,
		})
	}
	for _, m := range modes {
		mode, err := decodeMode(m)
		if err != nil {
			return topology.Topology{}, err
		}
		t.Modes = append(t.Modes, mode)
	}
	return t, nil
}

func fromTopology(t topology.Topology) ([]pathInfo, []modeInfo, error) {
	paths := make([]pathInfo, 0, len(t.Paths))
	for _, p := range t.Paths {
		var avail uint32
		if p.Target.Available {
			avail = 1
		}
		paths = append(paths, pathInfo{
			SourceInfo: pathSourceInfo{
				AdapterID:   luidOf(p.Source.AdapterRef),
				ID:          p.Source.ID,
				ModeInfoIdx: p.Source.ModeIndex,
				StatusFlags: p.Source.StatusFlags,
			},
			TargetInfo: pathTargetInfo{
				AdapterID:        luidOf(p.Target.AdapterRef),
				ID:               p.Target.ID,
				ModeInfoIdx:      p.Target.ModeIndex,
				OutputTechnology: p.Target.OutputKind,
				Rotation:         p.Target.Rotation,
				Scaling:          p.Target.ScalingMode,
				RefreshRate:      rational(p.Target.RefreshRate),
				ScanLineOrdering: p.Target.ScanLineOrder,
				TargetAvailable:  avail,
				StatusFlags:      p.Target.StatusFlags,
			},
			Flags: p.Flags,
		})
	}
	modes := make([]modeInfo, 0, len(t.Modes))
	for _, m := range t.Modes {
		raw, err := encodeMode(m)
		if err != nil {
			return nil, nil, err
		}
		modes = append(modes, raw)
	}
	return paths, modes, nil
}

// utf16String decodes a NUL-terminated UTF-16 buffer.
func utf16String(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			s = s[:i]
			break
		}
	}
	return string(utf16.Decode(s))
}

func identityOf(n targetDeviceName) topology.MonitorIdentity {
	id := topology.MonitorIdentity{
		FriendlyName: utf16String(n.MonitorFriendlyDeviceName[:]),
		DevicePath:   utf16String(n.MonitorDevicePath[:]),
		Valid:        true,
	}
	if n.Flags&targetNameFlagEdidIDsValid != 0 {
		id.ManufacturerID = n.EdidManufactureID
		id.ProductCode = n.EdidProductCodeID
	}
	return id
}
