// Package resolver rewrites the adapter references of a stored topology so
// they are valid in the current session.
//
// Adapter references are only meaningful within one query cycle; a profile
// saved before a reboot or driver reload carries stale ones. The resolver
// tries an ordered list of strategies against a live capture, and the first
// one that matches anything wins. When none match, the stored topology is
// returned unchanged and the commit is left to succeed or fail on its own.
package resolver

import (
	"log/slog"

	"github.com/1broseidon/monswitch/internal/topology"
)

// Strategy rewrites stored against live. Implementations must treat both
// arguments as their own copies and report whether they matched anything.
type Strategy interface {
	Name() string
	Match(stored, live topology.Topology) (topology.Topology, bool)
}

// Result is the outcome of Resolve.
type Result struct {
	Topology topology.Topology
	// Tier is the name of the winning strategy, empty when none matched.
	Tier    string
	Matched bool
}

// Resolver applies strategies in order.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
}

// New returns a resolver with the standard tiers: path ids, monitor
// friendly name, then bulk adapter substitution.
func New(logger *slog.Logger) *Resolver {
	return NewWithStrategies(logger, PathIDs{}, FriendlyName{}, BulkAdapter{})
}

// NewWithStrategies returns a resolver that tries strategies in the given
// order.
func NewWithStrategies(logger *slog.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{strategies: strategies, logger: logger.With("component", "resolver")}
}

// Resolve never fails. Neither argument is modified.
func (r *Resolver) Resolve(stored, live topology.Topology) Result {
	for _, s := range r.strategies {
		out, ok := s.Match(stored.Clone(), live.Clone())
		if ok {
			r.logger.Debug("adapter refs resolved", "tier", s.Name())
			return Result{Topology: out, Tier: s.Name(), Matched: true}
		}
		r.logger.Debug("tier did not match", "tier", s.Name())
	}
	r.logger.Warn("no tier matched, applying stored adapter refs as-is",
		"paths", len(stored.Paths), "live_paths", len(live.Paths))
	return Result{Topology: stored.Clone()}
}
