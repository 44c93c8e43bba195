package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestListHistory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc, db, err := buildSwitcher(ctx, testDriver(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("buildSwitcher: %v", err)
	}
	if err := svc.Save(ctx, "desk"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err := svc.Load(ctx, "desk")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	db.Close()

	entries, err := listHistory(ctx, cfg.HistoryPath(), 0)
	if err != nil {
		t.Fatalf("listHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want one", entries)
	}
	e := entries[0]
	if e.ID != res.SnapshotID || e.Profile != "desk" || e.Monitors != 1 {
		t.Fatalf("unexpected entry %+v (snapshot %s)", e, res.SnapshotID)
	}
}

func TestWriteHistory(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	entries := []historyEntry{
		{ID: "0f8fad5b-d9cb-469f-a165-70867728950e", Profile: "desk", CreatedAt: at, Monitors: 2},
		{ID: "7c9e6679", Profile: "tv", CreatedAt: at, Monitors: -1},
	}

	var plain bytes.Buffer
	if err := writeHistory(&plain, entries, false); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	want := "0f8fad5b-d9cb-469f-a165-70867728950e\t2026-03-01T09:30:00Z\tdesk\t2\n" +
		"7c9e6679\t2026-03-01T09:30:00Z\ttv\t-1\n"
	if plain.String() != want {
		t.Fatalf("plain output:\n%q\nwant:\n%q", plain.String(), want)
	}

	var pretty bytes.Buffer
	if err := writeHistory(&pretty, entries, true); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	lines := strings.Split(strings.TrimRight(pretty.String(), "\n"), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "SNAPSHOT") {
		t.Fatalf("unexpected table:\n%s", pretty.String())
	}
	if !strings.HasPrefix(lines[1], "0f8fad5b ") || strings.Contains(lines[1], "d9cb") {
		t.Fatalf("snapshot id not shortened: %q", lines[1])
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[2]), "?") {
		t.Fatalf("undecodable snapshot should show ?, got %q", lines[2])
	}
}
