package panel

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/linkview"
	"scenelinks/internal/model"
	"scenelinks/internal/mutate"
	"scenelinks/internal/perm"
	"scenelinks/internal/sizing"
)

// fakeHost keeps the scene in memory. Mutations are not echoed back until
// the test calls notify, mirroring a host whose completion arrives later.
type fakeHost struct {
	mu        sync.Mutex
	items     []model.SceneItem
	viewer    perm.Viewer
	itemSubs  map[int]func([]model.SceneItem)
	roleSubs  map[int]func(perm.Viewer)
	next      int
	heights   []int
	updateErr error
}

func newFakeHost(role model.Role, items ...model.SceneItem) *fakeHost {
	return &fakeHost{
		items:    items,
		viewer:   perm.Viewer{Role: role},
		itemSubs: map[int]func([]model.SceneItem){},
		roleSubs: map[int]func(perm.Viewer){},
	}
}

func (h *fakeHost) Items(context.Context) ([]model.SceneItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cloneItems(), nil
}

func (h *fakeHost) cloneItems() []model.SceneItem {
	out := make([]model.SceneItem, len(h.items))
	for i := range h.items {
		out[i] = h.items[i].Clone()
	}
	return out
}

func (h *fakeHost) OnItemsChange(fn func([]model.SceneItem)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.itemSubs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.itemSubs, id)
		h.mu.Unlock()
	}
}

func (h *fakeHost) Viewer(context.Context) (perm.Viewer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewer, nil
}

func (h *fakeHost) OnViewerChange(fn func(perm.Viewer)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.roleSubs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.roleSubs, id)
		h.mu.Unlock()
	}
}

func (h *fakeHost) UpdateItems(_ context.Context, ids []string, fn func([]*model.SceneItem)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.updateErr != nil {
		return h.updateErr
	}
	var batch []*model.SceneItem
	for _, id := range ids {
		for i := range h.items {
			if h.items[i].ID == id {
				batch = append(batch, &h.items[i])
			}
		}
	}
	fn(batch)
	return nil
}

func (h *fakeHost) SetPanelHeight(height int) {
	h.mu.Lock()
	h.heights = append(h.heights, height)
	h.mu.Unlock()
}

func (h *fakeHost) notify() {
	h.mu.Lock()
	items := h.cloneItems()
	subs := make([]func([]model.SceneItem), 0, len(h.itemSubs))
	for _, fn := range h.itemSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn(items)
	}
}

// setRole delivers role notifications in subscription order.
func (h *fakeHost) setRole(role model.Role) {
	h.mu.Lock()
	h.viewer = perm.Viewer{Role: role}
	v := h.viewer
	var subs []func(perm.Viewer)
	for i := 0; i < h.next; i++ {
		if fn, ok := h.roleSubs[i]; ok {
			subs = append(subs, fn)
		}
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

func (h *fakeHost) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.itemSubs) + len(h.roleSubs)
}

func goblin() model.SceneItem {
	return model.SceneItem{ID: "goblin", Type: model.ItemTypeImage, Layer: model.LayerCharacter, Name: "Goblin", Visible: true}
}

func TestController_EndToEndAddLink(t *testing.T) {
	host := newFakeHost(model.RoleGM, goblin())
	c := New(host, mutate.Fixed("http://x"), Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	if got := c.State().Links; len(got) != 0 {
		t.Fatalf("expected no links yet; got %+v", got)
	}
	if _, err := c.Toggle(context.Background(), []string{"goblin"}); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	// Not optimistically updated.
	if got := c.State().Links; len(got) != 0 {
		t.Fatalf("expected state unchanged before notification; got %+v", got)
	}

	host.notify()
	want := []linkview.LinkItem{{ID: "goblin", Name: "Goblin", URL: "http://x", Active: false, Visible: true}}
	if got := c.State().Links; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v; got %+v", want, got)
	}
}

func TestController_ListenersSeeWholesaleReplacement(t *testing.T) {
	linked := goblin()
	linkmeta.Set(&linked, linkmeta.Metadata{URL: "http://a"})
	host := newFakeHost(model.RoleGM, linked)
	c := New(host, mutate.Fixed(""), Options{})

	var states []State
	c.OnChange(func(s State) { states = append(states, s) })
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	host.mu.Lock()
	host.items = nil
	host.mu.Unlock()
	host.notify()

	last := states[len(states)-1]
	if len(last.Links) != 0 {
		t.Fatalf("expected links cleared after snapshot without items; got %+v", last.Links)
	}
}

func TestController_RoleChangeControlsHiddenLinks(t *testing.T) {
	hidden := goblin()
	hidden.Visible = false
	linkmeta.Set(&hidden, linkmeta.Metadata{URL: "http://secret"})
	host := newFakeHost(model.RolePlayer, hidden)
	c := New(host, mutate.Fixed(""), Options{})

	var seen []State
	c.OnChange(func(s State) { seen = append(seen, s) })
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	if got := c.State(); got.Role != model.RolePlayer || len(got.Links) != 0 {
		t.Fatalf("expected player to not see hidden link; got %+v", got)
	}
	host.setRole(model.RoleGM)
	if got := c.State(); got.Role != model.RoleGM || len(got.Links) != 1 {
		t.Fatalf("expected GM to see hidden link; got %+v", got)
	}
	if last := seen[len(seen)-1]; last.Role != model.RoleGM || len(last.Links) != 1 {
		t.Fatalf("expected listeners to be notified of the role change; got %+v", last)
	}
}

func TestController_PlayerCannotToggle(t *testing.T) {
	host := newFakeHost(model.RolePlayer, goblin())
	c := New(host, mutate.Fixed("http://x"), Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	var np mutate.NotPermittedError
	if _, err := c.Toggle(context.Background(), []string{"goblin"}); !errors.As(err, &np) {
		t.Fatalf("expected NotPermittedError; got %v", err)
	}
	if offers := c.Offered([]string{"goblin"}); len(offers) != 0 {
		t.Fatalf("expected no menu commands for player; got %+v", offers)
	}
}

func TestController_MenuOffersAndInvoke(t *testing.T) {
	host := newFakeHost(model.RoleGM, goblin())
	c := New(host, mutate.Fixed("http://x"), Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	offers := c.Offered([]string{"goblin"})
	if len(offers) != 1 || offers[0].ID != CommandToggleLink || offers[0].Label != "Add Link" {
		t.Fatalf("unexpected offers: %+v", offers)
	}
	if err := c.Invoke(context.Background(), CommandToggleLink, []string{"goblin"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	host.notify()

	var labels []string
	for _, o := range c.Offered([]string{"goblin"}) {
		labels = append(labels, o.Label)
	}
	want := []string{"Remove Link", "Edit Link", "Activate Link"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("expected %v; got %v", want, labels)
	}
}

func TestController_UnknownItem(t *testing.T) {
	host := newFakeHost(model.RoleGM, goblin())
	c := New(host, mutate.Fixed("http://x"), Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()
	var nf mutate.NotFoundError
	if _, err := c.Edit(context.Background(), []string{"nope"}); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError; got %v", err)
	}
}

func TestController_CloseReleasesAndResets(t *testing.T) {
	host := newFakeHost(model.RoleGM, goblin())
	c := New(host, mutate.Fixed(""), Options{Sizing: sizing.Options{MinListHeight: 2, ChromeHeight: 1, CollapsedHeight: 5}})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.ObserveList(sizing.Box{Bottom: 10})
	c.Close()
	c.Close()

	if n := host.subscriberCount(); n != 0 {
		t.Fatalf("expected all subscriptions released; %d left", n)
	}
	if want := []int{11, 5}; !reflect.DeepEqual(host.heights, want) {
		t.Fatalf("expected heights %v; got %v", want, host.heights)
	}
	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected Start after Close to fail")
	}
}

func TestController_ToggleOpenInModal(t *testing.T) {
	host := newFakeHost(model.RoleGM)
	c := New(host, mutate.Fixed(""), Options{OpenInModal: true})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()
	if !c.State().OpenInModal {
		t.Fatalf("expected initial preference from options")
	}
	if c.ToggleOpenInModal() {
		t.Fatalf("expected preference to flip")
	}
}

func TestController_HostFailurePropagates(t *testing.T) {
	host := newFakeHost(model.RoleGM, goblin())
	host.updateErr = errors.New("rejected")
	c := New(host, mutate.Fixed("http://x"), Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()
	if _, err := c.Toggle(context.Background(), []string{"goblin"}); !errors.Is(err, host.updateErr) {
		t.Fatalf("expected host error; got %v", err)
	}
	if len(c.State().Links) != 0 {
		t.Fatalf("expected state untouched after failed mutation")
	}
}
