package menu

import (
	"context"
	"errors"
	"testing"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"
)

type caps struct {
	role  model.Role
	perms map[string]bool
}

func (c caps) Role() model.Role { return c.role }
func (c caps) Has(p string) bool {
	return c.role == model.RoleGM || c.perms[p]
}

var gm = caps{role: model.RoleGM}

func token(id string, layer model.Layer, linked bool) model.SceneItem {
	it := model.SceneItem{ID: id, Type: model.ItemTypeImage, Layer: layer, Name: id, Visible: true}
	if linked {
		linkmeta.Set(&it, linkmeta.Metadata{URL: "http://" + id})
	}
	return it
}

func toggleCommand() Command {
	return Command{
		ID: "toggle",
		Icons: []Icon{
			{Icon: "+", Label: "Add Link", Filter: Filter{Every: `!hasLink`}},
			{Icon: "-", Label: "Remove Link"},
		},
		Filter: Filter{
			Roles: []model.Role{model.RoleGM},
			Every: `type == "IMAGE" && layer in ["CHARACTER", "MOUNT", "PROP"]`,
		},
	}
}

func TestRegistry_OfferedResolvesIconVariant(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(toggleCommand(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got := r.Offered(gm, []model.SceneItem{token("a", model.LayerCharacter, false)})
	if len(got) != 1 || got[0].Label != "Add Link" {
		t.Fatalf("expected Add Link; got %+v", got)
	}
	got = r.Offered(gm, []model.SceneItem{token("a", model.LayerCharacter, false), token("b", model.LayerProp, true)})
	if len(got) != 1 || got[0].Label != "Remove Link" {
		t.Fatalf("expected Remove Link for mixed selection; got %+v", got)
	}
}

func TestRegistry_FiltersByRoleLayerAndSize(t *testing.T) {
	r := NewRegistry()
	cmd := toggleCommand()
	cmd.Filter.Max = 2
	if _, err := r.Register(cmd, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sel := []model.SceneItem{token("a", model.LayerCharacter, false)}

	if got := r.Offered(caps{role: model.RolePlayer}, sel); len(got) != 0 {
		t.Fatalf("expected nothing offered to players; got %+v", got)
	}
	if got := r.Offered(gm, []model.SceneItem{token("m", model.LayerMap, false)}); len(got) != 0 {
		t.Fatalf("expected map layer to be excluded; got %+v", got)
	}
	three := []model.SceneItem{token("a", model.LayerProp, false), token("b", model.LayerProp, false), token("c", model.LayerProp, false)}
	if got := r.Offered(gm, three); len(got) != 0 {
		t.Fatalf("expected max selection to apply; got %+v", got)
	}
	if got := r.Offered(gm, nil); len(got) != 0 {
		t.Fatalf("expected nothing for empty selection")
	}
}

func TestRegistry_PermissionsAndSome(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(Command{
		ID:     "activate",
		Icons:  []Icon{{Label: "Activate"}},
		Filter: Filter{Permissions: []string{"UPDATE_ITEM"}, Some: `isLink`},
	}, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sel := []model.SceneItem{token("a", model.LayerProp, false), token("b", model.LayerProp, true)}
	if got := r.Offered(caps{role: model.RolePlayer}, sel); len(got) != 0 {
		t.Fatalf("expected permission to be required; got %+v", got)
	}
	p := caps{role: model.RolePlayer, perms: map[string]bool{"UPDATE_ITEM": true}}
	if got := r.Offered(p, sel); len(got) != 1 {
		t.Fatalf("expected offer with permission; got %+v", got)
	}
	if got := r.Offered(p, sel[:1]); len(got) != 0 {
		t.Fatalf("expected Some to need one link; got %+v", got)
	}
}

func TestRegistry_InvokeRechecksFilter(t *testing.T) {
	r := NewRegistry()
	calls := 0
	unregister, err := r.Register(toggleCommand(), func(_ context.Context, sel []model.SceneItem) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sel := []model.SceneItem{token("a", model.LayerCharacter, false)}
	if err := r.Invoke(context.Background(), "toggle", caps{role: model.RolePlayer}, sel); !errors.Is(err, ErrNotOffered) {
		t.Fatalf("expected ErrNotOffered; got %v", err)
	}
	if err := r.Invoke(context.Background(), "toggle", gm, sel); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one handler call; got %d", calls)
	}
	unregister()
	if err := r.Invoke(context.Background(), "toggle", gm, sel); err == nil {
		t.Fatalf("expected unknown command after unregister")
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(Command{ID: "x", Icons: []Icon{{Label: "X"}}, Filter: Filter{Every: `type ==`}}, nil); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := r.Register(Command{ID: "x"}, nil); err == nil {
		t.Fatalf("expected error for command without icons")
	}
	if _, err := r.Register(toggleCommand(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Register(toggleCommand(), nil); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
