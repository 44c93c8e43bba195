// Package topologytest holds comparison helpers for tests that round-trip
// topologies.
package topologytest

import "github.com/1broseidon/monswitch/internal/topology"

// Equal reports whether a and b describe the same configuration. Nil and
// empty slices compare equal.
func Equal(a, b topology.Topology) bool {
	if len(a.Paths) != len(b.Paths) || len(a.Modes) != len(b.Modes) ||
		len(a.Identities) != len(b.Identities) || len(a.DPI) != len(b.DPI) {
		return false
	}
	for i := range a.Paths {
		if a.Paths[i] != b.Paths[i] {
			return false
		}
	}
	for i := range a.Modes {
		if !a.Modes[i].Equal(b.Modes[i]) {
			return false
		}
	}
	for i := range a.Identities {
		if a.Identities[i] != b.Identities[i] {
			return false
		}
	}
	for i := range a.DPI {
		if a.DPI[i] != b.DPI[i] {
			return false
		}
	}
	return true
}
