// Package topology models a captured display configuration: the paths binding
// sources to targets, the modes they reference, per-target monitor identity
// and per-source DPI scale.
package topology

import (
	"fmt"
)

// InvalidModeIndex marks a path side that does not reference a mode.
const InvalidModeIndex uint32 = 0xffffffff

// AdapterRef identifies a display adapter within one live query cycle.
// The value is not stable across reboots, driver reloads or re-enumeration,
// so refs from two different captures must not be compared outside the
// resolver.
type AdapterRef struct {
	LowPart  uint32
	HighPart uint32
}

func (a AdapterRef) String() string {
	return fmt.Sprintf("%08x:%08x", a.HighPart, a.LowPart)
}

// Rational is a numerator/denominator pair as reported by the OS.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// Float returns the rational as a float, or 0 when the denominator is 0.
func (r Rational) Float() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// Region is a 2D size.
type Region struct {
	Cx uint32
	Cy uint32
}

// Point is a position in the virtual desktop.
type Point struct {
	X int32
	Y int32
}

// PathSource is the rendering-surface side of a path.
type PathSource struct {
	AdapterRef  AdapterRef
	ID          uint32
	ModeIndex   uint32
	StatusFlags uint32
}

// PathTarget is the physical-output side of a path.
type PathTarget struct {
	AdapterRef    AdapterRef
	ID            uint32
	ModeIndex     uint32
	OutputKind    uint32
	Rotation      uint32
	ScalingMode   uint32
	RefreshRate   Rational
	ScanLineOrder uint32
	Available     bool
	StatusFlags   uint32
}

// PathFlagActive is set on paths that are currently driving an output.
const PathFlagActive uint32 = 0x00000001

// Path binds one source to one target.
type Path struct {
	Source PathSource
	Target PathTarget
	Flags  uint32
}

// Active reports whether the path is currently in use.
func (p Path) Active() bool {
	return p.Flags&PathFlagActive != 0
}

// Rotation values, matching the DISPLAYCONFIG_ROTATION numbering used by the
// persisted format.
const (
	RotationIdentity uint32 = 1
	Rotation90       uint32 = 2
	Rotation180      uint32 = 3
	Rotation270      uint32 = 4
)

// DpiScaleEntry is the DPI scale of one active source, in percent.
type DpiScaleEntry struct {
	SourceID uint32
	Percent  uint32
}

// MonitorIdentity is the stable identity of the monitor attached to a target,
// derived from EDID-equivalent data. When Valid is false the remaining fields
// carry no information.
type MonitorIdentity struct {
	ManufacturerID uint16
	ProductCode    uint16
	FriendlyName   string
	DevicePath     string
	Valid          bool
}

// Usable reports whether the identity can be used for cross-session matching.
func (m MonitorIdentity) Usable() bool {
	return m.Valid && m.FriendlyName != ""
}

// Topology is a captured display configuration.
//
// Identities is index-aligned with Modes: entry i describes the monitor behind
// Modes[i] when that mode is target-kind, and is the zero value otherwise.
type Topology struct {
	Paths      []Path
	Modes      []Mode
	Identities []MonitorIdentity
	DPI        []DpiScaleEntry
}

// Clone returns a deep copy of t.
func (t Topology) Clone() Topology {
	out := Topology{}
	if t.Paths != nil {
		out.Paths = append([]Path(nil), t.Paths...)
	}
	if t.Modes != nil {
		out.Modes = make([]Mode, len(t.Modes))
		for i, m := range t.Modes {
			out.Modes[i] = m.clone()
		}
	}
	if t.Identities != nil {
		out.Identities = append([]MonitorIdentity(nil), t.Identities...)
	}
	if t.DPI != nil {
		out.DPI = append([]DpiScaleEntry(nil), t.DPI...)
	}
	return out
}

// ModeAt returns the mode at idx, or false when idx is unset or out of range.
func (t Topology) ModeAt(idx uint32) (Mode, bool) {
	if idx == InvalidModeIndex || int64(idx) >= int64(len(t.Modes)) {
		return Mode{}, false
	}
	return t.Modes[idx], true
}

// IdentityFor returns the monitor identity aligned with Modes[modeIdx].
func (t Topology) IdentityFor(modeIdx int) MonitorIdentity {
	if modeIdx < 0 || modeIdx >= len(t.Identities) {
		return MonitorIdentity{}
	}
	return t.Identities[modeIdx]
}

// TargetModes returns the indexes of target-kind modes in enumeration order.
func (t Topology) TargetModes() []int {
	var out []int
	for i, m := range t.Modes {
		if m.Kind == ModeKindTarget {
			out = append(out, i)
		}
	}
	return out
}

// TargetIdentities returns the identities of target-kind modes, in the order
// the OS enumerated those modes.
func (t Topology) TargetIdentities() []MonitorIdentity {
	idx := t.TargetModes()
	out := make([]MonitorIdentity, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.IdentityFor(i))
	}
	return out
}

// DPIFor returns the DPI entry recorded for sourceID.
func (t Topology) DPIFor(sourceID uint32) (DpiScaleEntry, bool) {
	for _, d := range t.DPI {
		if d.SourceID == sourceID {
			return d, true
		}
	}
	return DpiScaleEntry{}, false
}

// Validate checks the structural invariants of the model.
func (t Topology) Validate() error {
	for i, m := range t.Modes {
		if err := m.validate(); err != nil {
			return fmt.Errorf("mode %d: %w", i, err)
		}
	}
	for i, p := range t.Paths {
		if p.Source.ModeIndex != InvalidModeIndex && int64(p.Source.ModeIndex) >= int64(len(t.Modes)) {
			return fmt.Errorf("path %d: source mode index %d out of range (%d modes)", i, p.Source.ModeIndex, len(t.Modes))
		}
		if p.Target.ModeIndex != InvalidModeIndex && int64(p.Target.ModeIndex) >= int64(len(t.Modes)) {
			return fmt.Errorf("path %d: target mode index %d out of range (%d modes)", i, p.Target.ModeIndex, len(t.Modes))
		}
	}
	if len(t.Identities) != 0 && len(t.Identities) != len(t.Modes) {
		return fmt.Errorf("identity count %d does not match mode count %d", len(t.Identities), len(t.Modes))
	}
	return nil
}
