// Package profile converts topologies to and from the persisted profile
// document.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/1broseidon/monswitch/internal/topology"
)

const (
	// CurrentVersion is written by Encode. Version 2 added DpiScaleInfo.
	CurrentVersion = 2
	minVersion     = 1
)

// ErrCodec reports a malformed or unsupported profile document.
var ErrCodec = errors.New("invalid profile")

// CodecError describes why a document could not be encoded or decoded.
type CodecError struct {
	Reason string
	Err    error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrCodec, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrCodec, e.Reason)
}

func (e *CodecError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCodec}
	}
	return []error{ErrCodec, e.Err}
}

func codecErrorf(format string, args ...any) error {
	return &CodecError{Reason: fmt.Sprintf(format, args...)}
}

// Encode serialises t as an indented document with a trailing newline.
func Encode(t topology.Topology) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, &CodecError{Reason: "topology", Err: err}
	}

	doc := document{
		Version:        CurrentVersion,
		PathInfoArray:  make([]pathInfo, 0, len(t.Paths)),
		ModeInfoArray:  make([]modeInfo, 0, len(t.Modes)),
		AdditionalInfo: make([]additionalInfo, 0, len(t.Identities)),
	}
	for _, p := range t.Paths {
		doc.PathInfoArray = append(doc.PathInfoArray, encodePath(p))
	}
	for _, m := range t.Modes {
		mi, err := encodeMode(m)
		if err != nil {
			return nil, err
		}
		doc.ModeInfoArray = append(doc.ModeInfoArray, mi)
	}
	for _, id := range t.Identities {
		devicePath, friendly := id.DevicePath, id.FriendlyName
		doc.AdditionalInfo = append(doc.AdditionalInfo, additionalInfo{
			ManufactureID:         id.ManufacturerID,
			ProductCodeID:         id.ProductCode,
			Valid:                 id.Valid,
			MonitorDevicePath:     &devicePath,
			MonitorFriendlyDevice: &friendly,
		})
	}
	for _, d := range t.DPI {
		doc.DpiScaleInfo = append(doc.DpiScaleInfo, dpiScaleInfo{SourceID: d.SourceID, DpiScale: d.Percent})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &CodecError{Reason: "marshal", Err: err}
	}
	return append(data, '\n'), nil
}

// Decode parses a document written by Encode or by any earlier supported
// version.
func Decode(data []byte) (topology.Topology, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return topology.Topology{}, &CodecError{Reason: "malformed json", Err: err}
	}
	// A half-overwritten file can hold a complete document followed by the
	// tail of an older one.
	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected %v", tok)
		}
		return topology.Topology{}, &CodecError{Reason: "trailing data after document", Err: err}
	}
	if doc.Version < minVersion || doc.Version > CurrentVersion {
		return topology.Topology{}, codecErrorf("unsupported version %d (supported %d..%d)", doc.Version, minVersion, CurrentVersion)
	}

	var t topology.Topology
	for _, p := range doc.PathInfoArray {
		t.Paths = append(t.Paths, decodePath(p))
	}
	for i, mi := range doc.ModeInfoArray {
		m, err := decodeMode(mi)
		if err != nil {
			return topology.Topology{}, fmt.Errorf("mode %d: %w", i, err)
		}
		t.Modes = append(t.Modes, m)
	}
	for _, ai := range doc.AdditionalInfo {
		t.Identities = append(t.Identities, topology.MonitorIdentity{
			ManufacturerID: ai.ManufactureID,
			ProductCode:    ai.ProductCodeID,
			FriendlyName:   deref(ai.MonitorFriendlyDevice),
			DevicePath:     deref(ai.MonitorDevicePath),
			Valid:          ai.Valid,
		})
	}
	for _, d := range doc.DpiScaleInfo {
		t.DPI = append(t.DPI, topology.DpiScaleEntry{SourceID: d.SourceID, Percent: d.DpiScale})
	}

	if err := t.Validate(); err != nil {
		return topology.Topology{}, &CodecError{Reason: "inconsistent topology", Err: err}
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func encodeRef(r topology.AdapterRef) adapterID {
	return adapterID{LowPart: r.LowPart, HighPart: r.HighPart}
}

func decodeRef(a adapterID) topology.AdapterRef {
	return topology.AdapterRef{LowPart: a.LowPart, HighPart: a.HighPart}
}

func encodePath(p topology.Path) pathInfo {
	return pathInfo{
		SourceInfo: pathSourceInfo{
			AdapterID:   encodeRef(p.Source.AdapterRef),
			ID:          p.Source.ID,
			ModeInfoIdx: p.Source.ModeIndex,
			StatusFlags: p.Source.StatusFlags,
		},
		TargetInfo: pathTargetInfo{
			AdapterID:        encodeRef(p.Target.AdapterRef),
			ID:               p.Target.ID,
			ModeInfoIdx:      p.Target.ModeIndex,
			OutputTechnology: p.Target.OutputKind,
			Rotation:         p.Target.Rotation,
			Scaling:          p.Target.ScalingMode,
			RefreshRate:      rational(p.Target.RefreshRate),
			ScanLineOrdering: p.Target.ScanLineOrder,
			TargetAvailable:  p.Target.Available,
			StatusFlags:      p.Target.StatusFlags,
		},
		Flags: p.Flags,
	}
}

func decodePath(p pathInfo) topology.Path {
	return topology.Path{
		Source: topology.PathSource{
			AdapterRef:  decodeRef(p.SourceInfo.AdapterID),
			ID:          p.SourceInfo.ID,
			ModeIndex:   p.SourceInfo.ModeInfoIdx,
			StatusFlags: p.SourceInfo.StatusFlags,
		},
		Target: topology.PathTarget{
			AdapterRef:    decodeRef(p.TargetInfo.AdapterID),
			ID:            p.TargetInfo.ID,
			ModeIndex:     p.TargetInfo.ModeInfoIdx,
			OutputKind:    p.TargetInfo.OutputTechnology,
			Rotation:      p.TargetInfo.Rotation,
			ScalingMode:   p.TargetInfo.Scaling,
			RefreshRate:   topology.Rational(p.TargetInfo.RefreshRate),
			ScanLineOrder: p.TargetInfo.ScanLineOrdering,
			Available:     p.TargetInfo.TargetAvailable,
			StatusFlags:   p.TargetInfo.StatusFlags,
		},
		Flags: p.Flags,
	}
}

func encodeMode(m topology.Mode) (modeInfo, error) {
	mi := modeInfo{InfoType: uint32(m.Kind), ID: m.ID, AdapterID: encodeRef(m.AdapterRef)}
	switch m.Kind {
	case topology.ModeKindTarget:
		tm, ok := m.TargetMode()
		if !ok {
			return modeInfo{}, codecErrorf("target mode %d without payload", m.ID)
		}
		s := tm.Signal
		if s.PixelRate > 1<<63-1 {
			return modeInfo{}, codecErrorf("target mode %d pixel rate %d overflows", m.ID, s.PixelRate)
		}
		mi.TargetMode = &targetModeInfo{TargetVideoSignalInfo: videoSignalInfo{
			PixelRate:        int64(s.PixelRate),
			HSyncFreq:        rational(s.HSync),
			VSyncFreq:        rational(s.VSync),
			ActiveSize:       region(s.ActiveSize),
			TotalSize:        region(s.TotalSize),
			VideoStandard:    s.VideoStandard,
			ScanLineOrdering: s.ScanLineOrder,
		}}
	case topology.ModeKindSource:
		sm, ok := m.SourceMode()
		if !ok {
			return modeInfo{}, codecErrorf("source mode %d without payload", m.ID)
		}
		mi.SourceMode = &sourceModeInfo{
			Width:       sm.Width,
			Height:      sm.Height,
			PixelFormat: sm.PixelFormat,
			Position:    point(sm.Position),
		}
	default:
		return modeInfo{}, codecErrorf("mode %d has unknown kind %d", m.ID, m.Kind)
	}
	return mi, nil
}

func decodeMode(mi modeInfo) (topology.Mode, error) {
	if mi.TargetMode != nil && mi.SourceMode != nil {
		return topology.Mode{}, codecErrorf("mode %d carries both source and target payloads", mi.ID)
	}
	ref := decodeRef(mi.AdapterID)
	switch topology.ModeKind(mi.InfoType) {
	case topology.ModeKindTarget:
		if mi.TargetMode == nil {
			return topology.Mode{}, codecErrorf("target mode %d has no TargetMode", mi.ID)
		}
		s := mi.TargetMode.TargetVideoSignalInfo
		if s.PixelRate < 0 {
			return topology.Mode{}, codecErrorf("target mode %d has negative pixel rate", mi.ID)
		}
		return topology.NewTargetMode(mi.ID, ref, topology.TargetMode{Signal: topology.VideoSignal{
			PixelRate:     uint64(s.PixelRate),
			HSync:         topology.Rational(s.HSyncFreq),
			VSync:         topology.Rational(s.VSyncFreq),
			ActiveSize:    topology.Region(s.ActiveSize),
			TotalSize:     topology.Region(s.TotalSize),
			VideoStandard: s.VideoStandard,
			ScanLineOrder: s.ScanLineOrdering,
		}}), nil
	case topology.ModeKindSource:
		if mi.SourceMode == nil {
			return topology.Mode{}, codecErrorf("source mode %d has no SourceMode", mi.ID)
		}
		sm := mi.SourceMode
		return topology.NewSourceMode(mi.ID, ref, topology.SourceMode{
			Width:       sm.Width,
			Height:      sm.Height,
			PixelFormat: sm.PixelFormat,
			Position:    topology.Point(sm.Position),
		}), nil
	default:
		return topology.Mode{}, codecErrorf("mode %d has unknown InfoType %d", mi.ID, mi.InfoType)
	}
}
