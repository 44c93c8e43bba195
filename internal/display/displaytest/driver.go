// Package displaytest provides an in-memory display.Driver for tests.
package displaytest

import (
	"sync"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/topology"
)

// Driver records commits and serves a fixed topology.
type Driver struct {
	mu sync.Mutex

	// Live is returned by QueryTopology.
	Live topology.Topology
	// Inactive, when set, is returned instead of Live for full queries.
	Inactive *topology.Topology
	QueryErr error

	// CommitErrs is consumed one entry per commit attempt; a nil entry or
	// an exhausted slice means success.
	CommitErrs []error
	Commits    []Commit

	Identities map[uint32]topology.MonitorIdentity
	DPI        map[uint32]display.RelativeDPI

	PowerOffErr   error
	PowerOffCalls int
}

// Commit is one recorded CommitTopology call.
type Commit struct {
	Topology topology.Topology
	Flags    display.CommitFlags
}

func (d *Driver) QueryTopology(activeOnly bool) (topology.Topology, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.QueryErr != nil {
		return topology.Topology{}, d.QueryErr
	}
	if !activeOnly && d.Inactive != nil {
		return d.Inactive.Clone(), nil
	}
	return d.Live.Clone(), nil
}

func (d *Driver) CommitTopology(t topology.Topology, flags display.CommitFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Commits = append(d.Commits, Commit{Topology: t.Clone(), Flags: flags})
	if len(d.CommitErrs) == 0 {
		return nil
	}
	err := d.CommitErrs[0]
	d.CommitErrs = d.CommitErrs[1:]
	return err
}

func (d *Driver) QueryIdentity(_ topology.AdapterRef, targetID uint32) (topology.MonitorIdentity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.Identities[targetID]
	if !ok {
		return topology.MonitorIdentity{}, errNoIdentity
	}
	return id, nil
}

func (d *Driver) QueryDPI(_ topology.AdapterRef, sourceID uint32) (display.RelativeDPI, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rel, ok := d.DPI[sourceID]
	if !ok {
		return display.RelativeDPI{}, errNoDPI
	}
	return rel, nil
}

func (d *Driver) SignalPowerOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PowerOffCalls++
	return d.PowerOffErr
}

// CommitCount returns the number of commit attempts seen so far.
func (d *Driver) CommitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Commits)
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const (
	errNoIdentity = fakeError("no identity for target")
	errNoDPI      = fakeError("no dpi for source")
)

var _ display.Driver = (*Driver)(nil)
