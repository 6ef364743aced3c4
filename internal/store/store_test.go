package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"scenelinks/internal/model"
)

func openRoom(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("open room: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addImage(t *testing.T, s *Store, name string) model.SceneItem {
	t.Helper()
	it, err := s.AddItem(context.Background(), model.SceneItem{
		Type:    model.ItemTypeImage,
		Layer:   model.LayerCharacter,
		Name:    name,
		Visible: true,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	return it
}

func TestOpenCreatesRoom(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatalf("expected no room before open")
	}
	s := openRoom(t, dir)
	if !Exists(dir) {
		t.Fatalf("expected room file at %s", s.Path())
	}
	rev, err := s.Revision(context.Background())
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if rev != 0 {
		t.Fatalf("expected revision 0, got %d", rev)
	}
}

func TestItemsKeepSceneOrder(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())

	a := addImage(t, s, "Goblin")
	b := addImage(t, s, "Orc")
	c := addImage(t, s, "Troll")

	items, err := s.Items(ctx)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{a.ID, b.ID, c.ID} {
		if items[i].ID != want {
			t.Fatalf("items[%d]: expected %s, got %s", i, want, items[i].ID)
		}
	}
	if items[0].Metadata == nil {
		t.Fatalf("expected metadata bag to be non-nil")
	}

	rev, _ := s.Revision(ctx)
	if rev != 3 {
		t.Fatalf("expected revision 3, got %d", rev)
	}
}

func TestItemAndDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())

	var nf NotFoundError
	if _, err := s.Item(ctx, "item-missing"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := s.DeleteItem(ctx, "item-missing"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on delete, got %v", err)
	}

	it := addImage(t, s, "Goblin")
	if err := s.DeleteItem(ctx, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ := s.Items(ctx)
	if len(items) != 0 {
		t.Fatalf("expected empty scene, got %d items", len(items))
	}
}

func TestUpdateItemsIsOneBatch(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())
	a := addImage(t, s, "Goblin")
	b := addImage(t, s, "Orc")

	before, _ := s.Revision(ctx)
	calls := 0
	err := s.UpdateItems(ctx, []string{a.ID, "item-missing", b.ID, a.ID}, func(items []*model.SceneItem) {
		calls++
		if len(items) != 2 {
			t.Errorf("expected 2 items in batch, got %d", len(items))
		}
		for _, it := range items {
			it.Metadata["com.example/tag"] = "x"
		}
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected mutator to run once, got %d", calls)
	}
	after, _ := s.Revision(ctx)
	if after != before+1 {
		t.Fatalf("expected one revision bump, got %d -> %d", before, after)
	}
	for _, id := range []string{a.ID, b.ID} {
		it, err := s.Item(ctx, id)
		if err != nil {
			t.Fatalf("item %s: %v", id, err)
		}
		if it.Metadata["com.example/tag"] != "x" {
			t.Fatalf("expected tag on %s, got %#v", id, it.Metadata)
		}
	}
}

func TestUpdateItemsSkipsMutatorForUnknownIDs(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())
	addImage(t, s, "Goblin")

	called := false
	if err := s.UpdateItems(ctx, []string{"item-missing"}, func([]*model.SceneItem) { called = true }); err != nil {
		t.Fatalf("update: %v", err)
	}
	if called {
		t.Fatalf("expected mutator not to run for an empty batch")
	}
	items, _ := s.Items(ctx)
	if len(items) != 1 {
		t.Fatalf("expected scene unchanged, got %d items", len(items))
	}
}

func TestConcurrentWritersMergeUnrelatedKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s1 := openRoom(t, dir)
	s2 := openRoom(t, dir)
	it := addImage(t, s1, "Goblin")

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	write := func(s *Store, key string) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			err := s.UpdateItems(ctx, []string{it.ID}, func(items []*model.SceneItem) {
				for _, x := range items {
					x.Metadata[key] = float64(i)
				}
			})
			if err != nil {
				errs <- err
			}
		}
	}
	wg.Add(2)
	go write(s1, "com.a/counter")
	go write(s2, "com.b/counter")
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent update: %v", err)
	}

	got, err := s1.Item(ctx, it.ID)
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	if got.Metadata["com.a/counter"] != float64(rounds-1) {
		t.Fatalf("expected com.a/counter=%d, got %#v", rounds-1, got.Metadata["com.a/counter"])
	}
	if got.Metadata["com.b/counter"] != float64(rounds-1) {
		t.Fatalf("expected com.b/counter=%d, got %#v", rounds-1, got.Metadata["com.b/counter"])
	}
}

func TestUnreadableItemRowIsSkipped(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())
	addImage(t, s, "Goblin")
	if _, err := s.db.ExecContext(ctx, `INSERT INTO items(id, seq, json, updated_at_unixms) VALUES('item-bad', 99, '{not json', 0)`); err != nil {
		t.Fatalf("insert bad row: %v", err)
	}
	items, err := s.Items(ctx)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected unreadable row to be skipped, got %d items", len(items))
	}
}

func TestPlayersAndPermissions(t *testing.T) {
	ctx := context.Background()
	s := openRoom(t, t.TempDir())

	gm, err := s.AddPlayer(ctx, "Dana", model.RoleGM)
	if err != nil {
		t.Fatalf("add gm: %v", err)
	}
	pl, err := s.AddPlayer(ctx, "Alex", model.RolePlayer)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if _, err := s.AddPlayer(ctx, "Sam", model.Role("OWNER")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	players, err := s.Players(ctx)
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if len(players) != 2 || players[0].ID != pl.ID || players[1].ID != gm.ID {
		t.Fatalf("expected players sorted by name, got %#v", players)
	}

	if err := s.SetRole(ctx, pl.ID, model.RoleGM); err != nil {
		t.Fatalf("set role: %v", err)
	}
	got, err := s.Player(ctx, pl.ID)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	if got.Role != model.RoleGM {
		t.Fatalf("expected GM, got %s", got.Role)
	}
	var nf NotFoundError
	if err := s.SetRole(ctx, "player-missing", model.RoleGM); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	perms, err := s.PlayerPermissions(ctx)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("expected no permissions by default, got %v", perms)
	}
	if err := s.SetPlayerPermissions(ctx, []string{"update_item", " UPDATE_ITEM ", "", "create_item"}); err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	perms, _ = s.PlayerPermissions(ctx)
	if len(perms) != 2 || perms[0] != "CREATE_ITEM" || perms[1] != "UPDATE_ITEM" {
		t.Fatalf("expected normalized permissions, got %v", perms)
	}
}
