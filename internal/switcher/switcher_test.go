package switcher

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/display/displaytest"
	"github.com/1broseidon/monswitch/internal/history"
	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/topology"
)

func liveTopology(ref topology.AdapterRef, width uint32) topology.Topology {
	return topology.Topology{
		Paths: []topology.Path{{
			Source: topology.PathSource{AdapterRef: ref, ID: 0, ModeIndex: 0},
			Target: topology.PathTarget{AdapterRef: ref, ID: 264, ModeIndex: 1, Rotation: topology.RotationIdentity,
				RefreshRate: topology.Rational{Numerator: 60, Denominator: 1}, Available: true},
			Flags: topology.PathFlagActive,
		}},
		Modes: []topology.Mode{
			topology.NewSourceMode(0, ref, topology.SourceMode{Width: width, Height: 1080}),
			topology.NewTargetMode(264, ref, topology.TargetMode{Signal: topology.VideoSignal{
				ActiveSize: topology.Region{Cx: width, Cy: 1080},
			}}),
		},
	}
}

type fixture struct {
	svc   *Service
	drv   *displaytest.Driver
	store *store.FileStore
	hist  *history.DB
}

func newFixture(t *testing.T, withHistory bool) fixture {
	t.Helper()
	dir := t.TempDir()
	drv := &displaytest.Driver{
		Live: liveTopology(topology.AdapterRef{LowPart: 1}, 1920),
		Identities: map[uint32]topology.MonitorIdentity{
			264: {Valid: true, FriendlyName: "BenQ GW2480", ManufacturerID: 0x09d1},
		},
	}
	fs, err := store.NewFileStore(filepath.Join(dir, "profiles"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{
		Adapter: display.NewAdapter(drv, display.Options{PowerOffDelay: time.Millisecond}),
		Store:   fs,
	}
	f := fixture{drv: drv, store: fs}
	if withHistory {
		h, err := history.Open(context.Background(), filepath.Join(dir, "history.db"))
		if err != nil {
			t.Fatalf("history.Open: %v", err)
		}
		t.Cleanup(func() { h.Close() })
		opts.History = h
		f.hist = h
	}
	f.svc = New(opts)
	return f
}

func TestSaveThenLoadResolvesAdapterRefs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	if err := f.svc.Save(ctx, "desk"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, _ := f.svc.Exists("desk"); !ok {
		t.Fatalf("profile not stored")
	}

	// Simulate a reboot: the adapter ref changed and a different layout is live.
	rebooted := topology.AdapterRef{LowPart: 2}
	f.drv.Live = liveTopology(rebooted, 1280)

	res, err := f.svc.Load(ctx, "desk")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !res.Matched || res.Tier != "path-ids" || res.SnapshotID == "" {
		t.Fatalf("unexpected load result %+v", res)
	}
	if len(f.drv.Commits) != 1 {
		t.Fatalf("expected one commit, got %d", len(f.drv.Commits))
	}
	committed := f.drv.Commits[0].Topology
	if committed.Paths[0].Source.AdapterRef != rebooted || committed.Modes[1].AdapterRef != rebooted {
		t.Fatalf("committed topology carries stale refs: %+v", committed.Paths[0])
	}
	if sm, _ := committed.Modes[0].SourceMode(); sm.Width != 1920 {
		t.Fatalf("expected stored width 1920 to be applied, got %d", sm.Width)
	}

	snap, err := f.hist.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap.ID != res.SnapshotID || snap.Profile != "desk" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	undo, err := f.svc.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undo.Profile != "desk" || len(f.drv.Commits) != 2 {
		t.Fatalf("unexpected undo %+v with %d commits", undo, len(f.drv.Commits))
	}
	if sm, _ := f.drv.Commits[1].Topology.Modes[0].SourceMode(); sm.Width != 1280 {
		t.Fatalf("undo should restore the pre-load width 1280, got %d", sm.Width)
	}
	if _, err := f.svc.Undo(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestLoadCommitFailureDropsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	if err := f.svc.Save(ctx, "desk"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f.drv.CommitErrs = []error{errors.New("rejected"), errors.New("still rejected")}

	_, err := f.svc.Load(ctx, "desk")
	if !errors.Is(err, display.ErrCommitFailed) {
		t.Fatalf("expected commit failure, got %v", err)
	}
	if len(f.drv.Commits) != 2 {
		t.Fatalf("expected strict attempt plus one retry, got %d", len(f.drv.Commits))
	}
	if _, err := f.hist.Latest(ctx); !errors.Is(err, history.ErrNoSnapshots) {
		t.Fatalf("failed load must not leave an undo snapshot, got %v", err)
	}
}

func TestLoadErrorsAreTyped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	if _, err := f.svc.Load(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := f.store.Save("broken", []byte("{")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Load(ctx, "broken"); err == nil {
		t.Fatalf("expected codec error")
	}
	if len(f.drv.Commits) != 0 {
		t.Fatalf("nothing should be committed for unreadable profiles")
	}

	if _, err := f.svc.Undo(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("undo without history should report nothing to undo, got %v", err)
	}
}

func TestDetailsAndCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	if err := f.svc.Save(ctx, "desk"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	details, err := f.svc.Details("desk")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if len(details) != 1 || details[0].Name != "BenQ GW2480" || !details[0].IsPrimary {
		t.Fatalf("unexpected details %+v", details)
	}

	current, err := f.svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if len(current) != 1 || current[0].Width != 1920 {
		t.Fatalf("unexpected current monitors %+v", current)
	}

	names, err := f.svc.List()
	if err != nil || len(names) != 1 || names[0] != "desk" {
		t.Fatalf("List = %v, %v", names, err)
	}
	if err := f.svc.Delete("desk"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Details("desk"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestOperationsWaitForDisplay(t *testing.T) {
	f := newFixture(t, false)
	unlock, err := f.svc.lock(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.svc.Save(ctx, "desk"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while display is busy, got %v", err)
	}
	if ok, _ := f.svc.Exists("desk"); ok {
		t.Fatalf("save must not run while another operation holds the display")
	}
}

func TestPowerOff(t *testing.T) {
	f := newFixture(t, false)
	if err := f.svc.PowerOff(context.Background()); err != nil {
		t.Fatalf("PowerOff: %v", err)
	}
	if f.drv.PowerOffCalls != 1 {
		t.Fatalf("expected one power-off signal, got %d", f.drv.PowerOffCalls)
	}
}
