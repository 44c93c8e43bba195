package resolver

import "github.com/1broseidon/monswitch/internal/topology"

// PathIDs correlates paths by their (source id, target id) pair. It holds
// when output numbering survives the session boundary, as in a plain reboot
// or reconnect, and breaks when the OS renumbers outputs.
type PathIDs struct{}

func (PathIDs) Name() string { return "path-ids" }

func (PathIDs) Match(stored, live topology.Topology) (topology.Topology, bool) {
	matched := false
	for i := range stored.Paths {
		sp := &stored.Paths[i]
		for _, lp := range live.Paths {
			if sp.Source.ID == lp.Source.ID && sp.Target.ID == lp.Target.ID {
				sp.Source.AdapterRef = lp.Source.AdapterRef
				sp.Target.AdapterRef = lp.Target.AdapterRef
				matched = true
				break
			}
		}
	}
	if !matched {
		return stored, false
	}

	for i := range stored.Modes {
		m := &stored.Modes[i]
		for _, p := range stored.Paths {
			referenced := (m.Kind == topology.ModeKindTarget && m.ID == p.Target.ID) ||
				(m.Kind == topology.ModeKindSource && m.ID == p.Source.ID)
			if !referenced {
				continue
			}
			if lm, ok := findMode(live, m.Kind, m.ID); ok {
				m.AdapterRef = lm.AdapterRef
			}
			break
		}
	}
	return stored, true
}

func findMode(t topology.Topology, kind topology.ModeKind, id uint32) (topology.Mode, bool) {
	for _, m := range t.Modes {
		if m.Kind == kind && m.ID == id {
			return m, true
		}
	}
	return topology.Mode{}, false
}

// FriendlyName correlates target modes by the EDID monitor name of the
// attached display, taking over both the live adapter ref and the live
// target id. Path refs are then re-derived side by side from live paths
// with matching ids.
type FriendlyName struct{}

func (FriendlyName) Name() string { return "friendly-name" }

func (FriendlyName) Match(stored, live topology.Topology) (topology.Topology, bool) {
	matched := false
	for i := range stored.Modes {
		m := &stored.Modes[i]
		if m.Kind != topology.ModeKindTarget {
			continue
		}
		want := stored.IdentityFor(i)
		if !want.Usable() {
			continue
		}
		for j, lm := range live.Modes {
			if lm.Kind != topology.ModeKindTarget {
				continue
			}
			got := live.IdentityFor(j)
			if got.Usable() && got.FriendlyName == want.FriendlyName {
				m.AdapterRef = lm.AdapterRef
				m.ID = lm.ID
				matched = true
				break
			}
		}
	}
	if !matched {
		return stored, false
	}

	for i := range stored.Paths {
		sp := &stored.Paths[i]
		for _, lp := range live.Paths {
			if sp.Source.ID == lp.Source.ID {
				sp.Source.AdapterRef = lp.Source.AdapterRef
			}
			if sp.Target.ID == lp.Target.ID {
				sp.Target.AdapterRef = lp.Target.AdapterRef
			}
		}
	}
	return stored, true
}

// BulkAdapter assumes the whole system has exactly one stale adapter: the
// first stored/live path pair sharing a source id but not a source adapter
// ref defines the substitution, which is applied everywhere. On systems
// with several adapters that each moved, only one of them is fixed.
type BulkAdapter struct{}

func (BulkAdapter) Name() string { return "bulk-adapter" }

func (BulkAdapter) Match(stored, live topology.Topology) (topology.Topology, bool) {
	for _, sp := range stored.Paths {
		for _, lp := range live.Paths {
			if sp.Source.ID != lp.Source.ID || sp.Source.AdapterRef == lp.Source.AdapterRef {
				continue
			}
			replaceRef(&stored, sp.Source.AdapterRef, lp.Source.AdapterRef)
			return stored, true
		}
	}
	return stored, false
}

func replaceRef(t *topology.Topology, from, to topology.AdapterRef) {
	for i := range t.Paths {
		if t.Paths[i].Source.AdapterRef == from {
			t.Paths[i].Source.AdapterRef = to
		}
		if t.Paths[i].Target.AdapterRef == from {
			t.Paths[i].Target.AdapterRef = to
		}
	}
	for i := range t.Modes {
		if t.Modes[i].AdapterRef == from {
			t.Modes[i].AdapterRef = to
		}
	}
}
