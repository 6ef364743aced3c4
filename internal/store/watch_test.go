package store

import (
	"context"
	"testing"
	"time"

	"scenelinks/internal/model"
)

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestWatchDeliversDistinctSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := openRoom(t, t.TempDir())
	it := addImage(t, s, "Goblin")

	ch := make(chan Snapshot, 16)
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, 10*time.Millisecond, func(snap Snapshot) { ch <- snap }) }()

	first := nextSnapshot(t, ch)
	if len(first.Items) != 1 || first.Items[0].ID != it.ID {
		t.Fatalf("expected initial snapshot with one item, got %#v", first.Items)
	}

	// A rewrite that changes nothing bumps the revision but is not reported.
	if err := s.UpdateItems(ctx, []string{it.ID}, func([]*model.SceneItem) {}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if err := s.UpdateItems(ctx, []string{it.ID}, func(items []*model.SceneItem) {
		items[0].Visible = false
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	second := nextSnapshot(t, ch)
	if len(second.Items) != 1 || second.Items[0].Visible {
		t.Fatalf("expected snapshot with hidden item, got %#v", second.Items)
	}
	if second.ItemsSum == first.ItemsSum {
		t.Fatalf("expected item fingerprint to change")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestSnapshotFingerprintIgnoresUpdateTime(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())
	it := addImage(t, s, "Goblin")

	a, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	s.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	if err := s.UpdateItems(ctx, []string{it.ID}, func([]*model.SceneItem) {}); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if a.Revision == b.Revision {
		t.Fatalf("expected revision to change")
	}
	if a.ItemsSum != b.ItemsSum {
		t.Fatalf("expected fingerprint to ignore updatedAt")
	}
}

func TestWatchReportsPlayerChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := openRoom(t, t.TempDir())
	p, err := s.AddPlayer(ctx, "Alex", model.RolePlayer)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}

	ch := make(chan Snapshot, 16)
	go func() { _ = s.Watch(ctx, 10*time.Millisecond, func(snap Snapshot) { ch <- snap }) }()
	nextSnapshot(t, ch)

	if err := s.SetRole(ctx, p.ID, model.RoleGM); err != nil {
		t.Fatalf("set role: %v", err)
	}
	snap := nextSnapshot(t, ch)
	if len(snap.Players) != 1 || snap.Players[0].Role != model.RoleGM {
		t.Fatalf("expected GM role in snapshot, got %#v", snap.Players)
	}
}
