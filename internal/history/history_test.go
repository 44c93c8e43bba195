package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	h, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })

	base := time.Unix(1700000000, 0)
	tick := 0
	h.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return h
}

func TestRecordAndLatest(t *testing.T) {
	ctx := context.Background()
	h := openTestDB(t)

	if _, err := h.Latest(ctx); !errors.Is(err, ErrNoSnapshots) {
		t.Fatalf("expected ErrNoSnapshots, got %v", err)
	}

	first, err := h.Record(ctx, "desk", []byte("one"))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, err := h.Record(ctx, "couch", []byte("two"))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first == second || len(first) != 36 {
		t.Fatalf("expected distinct uuids, got %q and %q", first, second)
	}

	latest, err := h.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != second || latest.Profile != "couch" || string(latest.Blob) != "two" {
		t.Fatalf("unexpected latest snapshot %+v", latest)
	}

	if err := h.Delete(ctx, second); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	latest, err = h.Latest(ctx)
	if err != nil || latest.ID != first {
		t.Fatalf("expected first snapshot after delete, got %+v %v", latest, err)
	}
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	h := openTestDB(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		if _, err := h.Record(ctx, name, []byte(name)); err != nil {
			t.Fatalf("Record(%s): %v", name, err)
		}
	}

	all, err := h.List(ctx, 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("List(0) = %d snapshots, %v", len(all), err)
	}
	if all[0].Profile != "e" || all[4].Profile != "a" {
		t.Fatalf("expected newest first, got %s..%s", all[0].Profile, all[4].Profile)
	}
	top, err := h.List(ctx, 2)
	if err != nil || len(top) != 2 {
		t.Fatalf("List(2) = %d snapshots, %v", len(top), err)
	}

	removed, err := h.Prune(ctx, 3)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned, got %d", removed)
	}
	left, _ := h.List(ctx, 0)
	if len(left) != 3 || left[2].Profile != "c" {
		t.Fatalf("unexpected snapshots after prune: %+v", left)
	}
}
