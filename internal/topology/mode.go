package topology

import "fmt"

// ModeKind tags which payload a Mode carries. Zero is the unset placeholder
// some OS queries return for stale entries.
type ModeKind uint32

const (
	ModeKindUnset  ModeKind = 0
	ModeKindSource ModeKind = 1
	ModeKindTarget ModeKind = 2
)

func (k ModeKind) String() string {
	switch k {
	case ModeKindSource:
		return "source"
	case ModeKindTarget:
		return "target"
	case ModeKindUnset:
		return "unset"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// SourceMode describes a rendering surface: pixel size, format and position
// in the virtual desktop.
type SourceMode struct {
	Width       uint32
	Height      uint32
	PixelFormat uint32
	Position    Point
}

// VideoSignal is the signal timing driven to a target.
type VideoSignal struct {
	PixelRate     uint64
	HSync         Rational
	VSync         Rational
	ActiveSize    Region
	TotalSize     Region
	VideoStandard uint32
	ScanLineOrder uint32
}

// TargetMode describes the timing of a physical output.
type TargetMode struct {
	Signal VideoSignal
}

// Mode is a tagged union of SourceMode and TargetMode. Kind is the only
// discriminator; use the accessors, which check it, to read the payload.
type Mode struct {
	Kind       ModeKind
	ID         uint32
	AdapterRef AdapterRef

	source *SourceMode
	target *TargetMode
}

// NewSourceMode builds a source-kind mode.
func NewSourceMode(id uint32, ref AdapterRef, sm SourceMode) Mode {
	return Mode{Kind: ModeKindSource, ID: id, AdapterRef: ref, source: &sm}
}

// NewTargetMode builds a target-kind mode.
func NewTargetMode(id uint32, ref AdapterRef, tm TargetMode) Mode {
	return Mode{Kind: ModeKindTarget, ID: id, AdapterRef: ref, target: &tm}
}

// SourceMode returns the source payload when the mode is source-kind.
func (m Mode) SourceMode() (SourceMode, bool) {
	if m.Kind != ModeKindSource || m.source == nil {
		return SourceMode{}, false
	}
	return *m.source, true
}

// TargetMode returns the target payload when the mode is target-kind.
func (m Mode) TargetMode() (TargetMode, bool) {
	if m.Kind != ModeKindTarget || m.target == nil {
		return TargetMode{}, false
	}
	return *m.target, true
}

// Equal compares two modes field by field, including the payload.
func (m Mode) Equal(o Mode) bool {
	if m.Kind != o.Kind || m.ID != o.ID || m.AdapterRef != o.AdapterRef {
		return false
	}
	switch m.Kind {
	case ModeKindSource:
		a, aok := m.SourceMode()
		b, bok := o.SourceMode()
		return aok == bok && a == b
	case ModeKindTarget:
		a, aok := m.TargetMode()
		b, bok := o.TargetMode()
		return aok == bok && a == b
	}
	return m.source == nil && o.source == nil && m.target == nil && o.target == nil
}

func (m Mode) clone() Mode {
	out := m
	if m.source != nil {
		sm := *m.source
		out.source = &sm
	}
	if m.target != nil {
		tm := *m.target
		out.target = &tm
	}
	return out
}

func (m Mode) validate() error {
	switch m.Kind {
	case ModeKindSource:
		if m.source == nil || m.target != nil {
			return fmt.Errorf("source mode %d has no source payload", m.ID)
		}
	case ModeKindTarget:
		if m.target == nil || m.source != nil {
			return fmt.Errorf("target mode %d has no target payload", m.ID)
		}
	default:
		return fmt.Errorf("mode %d has invalid kind %s", m.ID, m.Kind)
	}
	return nil
}
