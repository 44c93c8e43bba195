// Package switcher implements the profile operations on top of the display
// adapter, profile store and snapshot history. It is the one owner of the
// display subsystem: every capture and commit runs under a single-slot
// semaphore so the CLI, daemon, hotkeys and MCP handlers never overlap.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/history"
	"github.com/1broseidon/monswitch/internal/profile"
	"github.com/1broseidon/monswitch/internal/resolver"
	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/topology"
)

// ErrNothingToUndo is returned by Undo when no snapshot is recorded or
// history is disabled.
var ErrNothingToUndo = errors.New("nothing to undo")

// History is the subset of the snapshot database the service needs.
type History interface {
	Record(ctx context.Context, profile string, blob []byte) (string, error)
	Latest(ctx context.Context) (history.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Prune(ctx context.Context, keep int) (int64, error)
}

// Options wire a Service. History may be nil to disable undo.
type Options struct {
	Adapter     *display.Adapter
	Store       store.Store
	Resolver    *resolver.Resolver
	History     History
	HistoryKeep int
	Logger      *slog.Logger
}

// Service runs profile operations.
type Service struct {
	adapter  *display.Adapter
	store    store.Store
	resolver *resolver.Resolver
	history  History
	keep     int
	logger   *slog.Logger
	sem      *semaphore.Weighted
}

// LoadResult describes an applied profile.
type LoadResult struct {
	Profile string `json:"profile"`
	// Tier names the resolver strategy that matched, empty when the stored
	// adapter refs were applied unchanged.
	Tier       string `json:"tier,omitempty"`
	Matched    bool   `json:"matched"`
	SnapshotID string `json:"snapshotId,omitempty"`
}

// New builds a Service. A nil Resolver gets the standard tiers.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := opts.Resolver
	if res == nil {
		res = resolver.New(logger)
	}
	keep := opts.HistoryKeep
	if keep <= 0 {
		keep = history.DefaultKeep
	}
	return &Service{
		adapter:  opts.Adapter,
		store:    opts.Store,
		resolver: res,
		history:  opts.History,
		keep:     keep,
		logger:   logger.With("component", "switcher"),
		sem:      semaphore.NewWeighted(1),
	}
}

// lock waits for exclusive use of the display subsystem. ctx only bounds the
// wait; work started after lock returns is never interrupted.
func (s *Service) lock(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for display: %w", err)
	}
	return func() { s.sem.Release(1) }, nil
}

// Save captures the active configuration under name.
func (s *Service) Save(ctx context.Context, name string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	t, err := s.adapter.Capture(true)
	if err != nil {
		return fmt.Errorf("save profile %q: %w", name, err)
	}
	blob, err := profile.Encode(t)
	if err != nil {
		return fmt.Errorf("save profile %q: %w", name, err)
	}
	if err := s.store.Save(name, blob); err != nil {
		return fmt.Errorf("save profile %q: %w", name, err)
	}
	s.logger.Info("profile saved", "profile", name, "paths", len(t.Paths), "modes", len(t.Modes))
	return nil
}

// Load applies the stored profile name.
func (s *Service) Load(ctx context.Context, name string) (LoadResult, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	defer unlock()

	blob, err := s.store.Load(name)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load profile %q: %w", name, err)
	}
	stored, err := profile.Decode(blob)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load profile %q: %w", name, err)
	}

	result, err := s.apply(ctx, name, stored)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load profile %q: %w", name, err)
	}
	result.Profile = name
	return result, nil
}

// apply resolves stored against the live system, records the pre-change
// configuration when history is enabled and commits. Callers hold the lock.
func (s *Service) apply(ctx context.Context, label string, stored topology.Topology) (LoadResult, error) {
	live, err := s.adapter.Capture(false)
	if err != nil {
		return LoadResult{}, err
	}
	res := s.resolver.Resolve(stored, live)

	snapshotID := s.recordSnapshot(ctx, label)

	if err := s.adapter.Commit(res.Topology); err != nil {
		if snapshotID != "" {
			if derr := s.history.Delete(ctx, snapshotID); derr != nil {
				s.logger.Warn("failed to drop snapshot of failed load", "id", snapshotID, "error", derr)
			}
		}
		return LoadResult{}, err
	}
	s.logger.Info("topology applied", "target", label, "tier", res.Tier, "matched", res.Matched)
	return LoadResult{Tier: res.Tier, Matched: res.Matched, SnapshotID: snapshotID}, nil
}

// recordSnapshot stores the active configuration so the coming commit can
// be undone. History problems never block a load.
func (s *Service) recordSnapshot(ctx context.Context, label string) string {
	if s.history == nil {
		return ""
	}
	current, err := s.adapter.Capture(true)
	if err != nil {
		s.logger.Warn("skipping undo snapshot", "error", err)
		return ""
	}
	blob, err := profile.Encode(current)
	if err != nil {
		s.logger.Warn("skipping undo snapshot", "error", err)
		return ""
	}
	id, err := s.history.Record(ctx, label, blob)
	if err != nil {
		s.logger.Warn("skipping undo snapshot", "error", err)
		return ""
	}
	if n, err := s.history.Prune(ctx, s.keep); err != nil {
		s.logger.Warn("failed to prune history", "error", err)
	} else if n > 0 {
		s.logger.Debug("pruned history", "removed", n)
	}
	return id
}

// Undo restores the configuration recorded before the most recent load and
// forgets that snapshot.
func (s *Service) Undo(ctx context.Context) (LoadResult, error) {
	if s.history == nil {
		return LoadResult{}, ErrNothingToUndo
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	defer unlock()

	snap, err := s.history.Latest(ctx)
	if errors.Is(err, history.ErrNoSnapshots) {
		return LoadResult{}, ErrNothingToUndo
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("undo: %w", err)
	}
	stored, err := profile.Decode(snap.Blob)
	if err != nil {
		return LoadResult{}, fmt.Errorf("undo snapshot %s: %w", snap.ID, err)
	}

	live, err := s.adapter.Capture(false)
	if err != nil {
		return LoadResult{}, fmt.Errorf("undo: %w", err)
	}
	res := s.resolver.Resolve(stored, live)
	if err := s.adapter.Commit(res.Topology); err != nil {
		return LoadResult{}, fmt.Errorf("undo: %w", err)
	}
	if err := s.history.Delete(ctx, snap.ID); err != nil {
		s.logger.Warn("failed to drop applied snapshot", "id", snap.ID, "error", err)
	}
	s.logger.Info("undid profile load", "profile", snap.Profile, "tier", res.Tier)
	return LoadResult{Profile: snap.Profile, Tier: res.Tier, Matched: res.Matched, SnapshotID: snap.ID}, nil
}

// Delete removes a stored profile.
func (s *Service) Delete(name string) error {
	if err := s.store.Delete(name); err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	s.logger.Info("profile deleted", "profile", name)
	return nil
}

// List returns stored profile names.
func (s *Service) List() ([]string, error) {
	return s.store.List()
}

// Exists reports whether a profile is stored under name.
func (s *Service) Exists(name string) (bool, error) {
	return s.store.Exists(name)
}

// Details describes the monitors of a stored profile without touching the
// display.
func (s *Service) Details(name string) ([]topology.MonitorDetails, error) {
	blob, err := s.store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("profile details %q: %w", name, err)
	}
	t, err := profile.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("profile details %q: %w", name, err)
	}
	return topology.Describe(t), nil
}

// Current describes the live active configuration.
func (s *Service) Current(ctx context.Context) ([]topology.MonitorDetails, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := s.adapter.Capture(true)
	if err != nil {
		return nil, err
	}
	return topology.Describe(t), nil
}

// SetPowerOffDelay changes the grace delay of later PowerOff calls.
func (s *Service) SetPowerOffDelay(d time.Duration) {
	s.adapter.SetPowerOffDelay(d)
}

// PowerOff turns all displays off after the adapter's grace delay.
func (s *Service) PowerOff(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.adapter.PowerOffAll(); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	return nil
}
