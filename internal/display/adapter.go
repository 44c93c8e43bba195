// Package display wraps an OS display-configuration driver behind the
// capture/commit surface used by the rest of monswitch, normalising the
// quirks drivers are allowed to have.
package display

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/1broseidon/monswitch/internal/topology"
)

// CommitFlags mirror the SetDisplayConfig SDC_* values.
type CommitFlags uint32

const (
	FlagUseSupplied    CommitFlags = 0x00000020
	FlagApply          CommitFlags = 0x00000080
	FlagNoOptimization CommitFlags = 0x00000100
	FlagSaveToDatabase CommitFlags = 0x00000200
	FlagAllowChanges   CommitFlags = 0x00000400
)

// Has reports whether all bits of f2 are set.
func (f CommitFlags) Has(f2 CommitFlags) bool { return f&f2 == f2 }

// StrictCommitFlags is the first commit attempt.
const StrictCommitFlags = FlagApply | FlagUseSupplied | FlagSaveToDatabase | FlagNoOptimization

// DefaultPowerOffDelay lets an interactive caller release input devices
// before displays are told to sleep.
const DefaultPowerOffDelay = 500 * time.Millisecond

// Driver is the OS boundary.
type Driver interface {
	QueryTopology(activeOnly bool) (topology.Topology, error)
	CommitTopology(t topology.Topology, flags CommitFlags) error
	QueryIdentity(ref topology.AdapterRef, targetID uint32) (topology.MonitorIdentity, error)
	QueryDPI(ref topology.AdapterRef, sourceID uint32) (RelativeDPI, error)
	SignalPowerOff() error
}

// Options configure an Adapter.
type Options struct {
	Logger        *slog.Logger
	PowerOffDelay time.Duration
}

// Adapter exposes capture and commit over a Driver.
type Adapter struct {
	driver        Driver
	logger        *slog.Logger
	powerOffDelay atomic.Int64
	sleep         func(time.Duration)
}

// NewAdapter wraps d. A zero PowerOffDelay selects DefaultPowerOffDelay.
func NewAdapter(d Driver, opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		driver: d,
		logger: logger.With("component", "display"),
		sleep:  time.Sleep,
	}
	a.SetPowerOffDelay(opts.PowerOffDelay)
	return a
}

// SetPowerOffDelay replaces the grace delay used by later PowerOffAll calls.
// A zero or negative delay selects DefaultPowerOffDelay.
func (a *Adapter) SetPowerOffDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultPowerOffDelay
	}
	a.powerOffDelay.Store(int64(d))
}

func (a *Adapter) PowerOffDelay() time.Duration {
	return time.Duration(a.powerOffDelay.Load())
}

// Capture reads the live topology. Unavailable targets and unset-kind modes
// are dropped even when the driver was asked for active data only, every
// target-kind mode gets an identity and every active source a DPI
// entry when one can be decoded.
func (a *Adapter) Capture(activeOnly bool) (topology.Topology, error) {
	raw, err := a.driver.QueryTopology(activeOnly)
	if err != nil {
		return topology.Topology{}, &QueryError{ActiveOnly: activeOnly, Err: err}
	}

	t := filterTopology(raw)
	if dropped := len(raw.Paths) - len(t.Paths); dropped > 0 {
		a.logger.Debug("dropped unavailable paths", "count", dropped)
	}
	if dropped := len(raw.Modes) - len(t.Modes); dropped > 0 {
		a.logger.Debug("dropped unset modes", "count", dropped)
	}

	t.Identities = make([]topology.MonitorIdentity, len(t.Modes))
	for i, m := range t.Modes {
		if m.Kind == topology.ModeKindTarget {
			t.Identities[i] = a.Identify(m.AdapterRef, m.ID)
		}
	}

	seen := make(map[uint32]bool)
	for _, p := range t.Paths {
		if !p.Active() || seen[p.Source.ID] {
			continue
		}
		seen[p.Source.ID] = true
		if entry, ok := a.DpiOf(p.Source.AdapterRef, p.Source.ID); ok {
			t.DPI = append(t.DPI, entry)
		}
	}
	return t, nil
}

// filterTopology drops unavailable paths and unset modes, remapping the
// remaining paths' mode indices. References to dropped modes become unset.
func filterTopology(raw topology.Topology) topology.Topology {
	remap := make([]uint32, len(raw.Modes))
	var modes []topology.Mode
	for i, m := range raw.Modes {
		if m.Kind != topology.ModeKindSource && m.Kind != topology.ModeKindTarget {
			remap[i] = topology.InvalidModeIndex
			continue
		}
		remap[i] = uint32(len(modes))
		modes = append(modes, m)
	}
	var out topology.Topology
	out.Modes = modes
	lookup := func(idx uint32) uint32 {
		if idx == topology.InvalidModeIndex || int64(idx) >= int64(len(remap)) {
			return topology.InvalidModeIndex
		}
		return remap[idx]
	}
	for _, p := range raw.Paths {
		if !p.Target.Available {
			continue
		}
		p.Source.ModeIndex = lookup(p.Source.ModeIndex)
		p.Target.ModeIndex = lookup(p.Target.ModeIndex)
		out.Paths = append(out.Paths, p)
	}
	return out.Clone()
}

// Commit applies t. A rejected strict attempt is retried exactly once with
// FlagAllowChanges added.
func (a *Adapter) Commit(t topology.Topology) error {
	if err := t.Validate(); err != nil {
		return &CommitError{Err: err}
	}
	err := a.driver.CommitTopology(t, StrictCommitFlags)
	if err == nil {
		return nil
	}
	a.logger.Info("strict commit rejected, retrying with allow-changes", "error", err)

	retryErr := a.driver.CommitTopology(t, StrictCommitFlags|FlagAllowChanges)
	if retryErr == nil {
		return nil
	}
	return &CommitError{Status: statusOf(retryErr), Err: errors.Join(err, retryErr)}
}

// Identify returns the identity of the monitor behind targetID. Failures are
// logged and degrade to an invalid identity.
func (a *Adapter) Identify(ref topology.AdapterRef, targetID uint32) topology.MonitorIdentity {
	id, err := a.driver.QueryIdentity(ref, targetID)
	if err != nil {
		a.logger.Debug("identity lookup failed", "adapter", ref.String(), "target", targetID, "error", err)
		return topology.MonitorIdentity{}
	}
	return id
}

// PowerOffAll waits the grace delay, then asks the OS to turn displays off.
// There is no confirmation that they did.
func (a *Adapter) PowerOffAll() error {
	a.sleep(a.PowerOffDelay())
	if err := a.driver.SignalPowerOff(); err != nil {
		return &SignalError{Err: err}
	}
	return nil
}
