// Package panel owns the live state of one link panel: the viewer role, the
// latest scene snapshot with its link projection, and the display
// preference. It is constructed when the panel opens and torn down with
// Close; all host access goes through the injected Host.
package panel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"scenelinks/internal/linkview"
	"scenelinks/internal/menu"
	"scenelinks/internal/model"
	"scenelinks/internal/mutate"
	"scenelinks/internal/perm"
	"scenelinks/internal/sizing"
)

// ItemSource is the host's scene query and change subscription. Every
// notification carries the full current item collection.
type ItemSource interface {
	Items(ctx context.Context) ([]model.SceneItem, error)
	OnItemsChange(fn func(items []model.SceneItem)) (unsubscribe func())
}

type Host interface {
	ItemSource
	perm.RoleSource
	mutate.Updater
	sizing.Resizer
}

type Options struct {
	OpenInModal bool
	AddMode     mutate.AddMode
	Sizing      sizing.Options
	Log         *slog.Logger
}

// State is what the presentation layer renders.
type State struct {
	Role        model.Role
	Links       []linkview.LinkItem
	OpenInModal bool
}

type Controller struct {
	host     Host
	gate     *perm.Gate
	handlers mutate.Handlers
	sizing   *sizing.Loop
	menu     *menu.Registry
	log      *slog.Logger

	mu          sync.Mutex
	items       []model.SceneItem
	links       []linkview.LinkItem
	openInModal bool
	listeners   map[int]func(State)
	nextID      int
	stops       []func()
	started     bool
	closed      bool
}

func New(host Host, prompter mutate.Prompter, opts Options) *Controller {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	mode := opts.AddMode
	if mode == "" {
		mode = mutate.AddPerItem
	}
	gate := perm.NewGate()
	return &Controller{
		host: host,
		gate: gate,
		handlers: mutate.Handlers{
			Items:  host,
			Prompt: prompter,
			Gate:   gate,
			Mode:   mode,
			Log:    log.With("component", "commands"),
		},
		sizing:      sizing.New(host, opts.Sizing),
		menu:        menu.NewRegistry(),
		log:         log,
		openInModal: opts.OpenInModal,
		listeners:   map[int]func(State){},
	}
}

// Start queries the viewer and the scene, then follows host notifications
// until Close.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return fmt.Errorf("panel: already started")
	}
	c.started = true
	c.mu.Unlock()

	stopGate, err := c.gate.Start(ctx, c.host)
	if err != nil {
		return err
	}
	c.addStop(stopGate)
	// Registered after the gate's own subscription so the gate is current
	// by the time listeners render.
	c.addStop(c.host.OnViewerChange(func(v perm.Viewer) {
		c.log.Debug("viewer changed", "role", v.Role)
		c.emit()
	}))

	c.addStop(c.host.OnItemsChange(c.replace))
	items, err := c.host.Items(ctx)
	if err != nil {
		return fmt.Errorf("query scene items: %w", err)
	}
	c.replace(items)

	if err := c.registerMenu(); err != nil {
		return err
	}
	c.log.Info("panel started", "role", c.gate.Role(), "links", len(c.State().Links))
	return nil
}

func (c *Controller) addStop(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.stops = append(c.stops, fn)
	c.mu.Unlock()
}

// Close releases every subscription and restores the collapsed panel height.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stops := c.stops
	c.stops = nil
	c.listeners = map[int]func(State){}
	c.mu.Unlock()

	for i := len(stops) - 1; i >= 0; i-- {
		stops[i]()
	}
	c.sizing.Close()
	c.log.Info("panel closed")
}

// replace supersedes the snapshot and projection wholesale.
func (c *Controller) replace(items []model.SceneItem) {
	snap := make([]model.SceneItem, len(items))
	for i := range items {
		snap[i] = items[i].Clone()
	}
	links := linkview.Project(snap)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.items = snap
	c.links = links
	c.mu.Unlock()

	c.log.Debug("scene replaced", "items", len(snap), "links", len(links))
	c.emit()
}

func (c *Controller) State() State {
	c.mu.Lock()
	links := c.links
	open := c.openInModal
	c.mu.Unlock()
	return State{
		Role:        c.gate.Role(),
		Links:       linkview.ForViewer(links, c.gate.CanSeeHidden()),
		OpenInModal: open,
	}
}

// Items returns a copy of the latest scene snapshot.
func (c *Controller) Items() []model.SceneItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.SceneItem, len(c.items))
	for i := range c.items {
		out[i] = c.items[i].Clone()
	}
	return out
}

func (c *Controller) Gate() *perm.Gate { return c.gate }

// OnChange registers fn for every state change. fn may be called from host
// goroutines; it must not block.
func (c *Controller) OnChange(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) emit() {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	if len(fns) == 0 {
		return
	}
	st := c.State()
	for _, fn := range fns {
		fn(st)
	}
}

func (c *Controller) ToggleOpenInModal() bool {
	c.mu.Lock()
	c.openInModal = !c.openInModal
	v := c.openInModal
	c.mu.Unlock()
	c.emit()
	return v
}

// ObserveList feeds a measurement of the rendered list into the sizing loop.
func (c *Controller) ObserveList(box sizing.Box) { c.sizing.Observe(box) }

func (c *Controller) resolve(ids []string) ([]model.SceneItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byID := make(map[string]int, len(c.items))
	for i := range c.items {
		byID[c.items[i].ID] = i
	}
	out := make([]model.SceneItem, 0, len(ids))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok {
			return nil, mutate.NotFoundError{Kind: "item", ID: id}
		}
		out = append(out, c.items[i].Clone())
	}
	return out, nil
}

func (c *Controller) Toggle(ctx context.Context, ids []string) (mutate.ToggleResult, error) {
	sel, err := c.resolve(ids)
	if err != nil {
		return mutate.ToggleResult{}, err
	}
	return c.handlers.Toggle(ctx, sel)
}

func (c *Controller) Edit(ctx context.Context, ids []string) (mutate.EditResult, error) {
	sel, err := c.resolve(ids)
	if err != nil {
		return mutate.EditResult{}, err
	}
	return c.handlers.Edit(ctx, sel)
}

func (c *Controller) SetActive(ctx context.Context, ids []string, active bool) ([]string, error) {
	sel, err := c.resolve(ids)
	if err != nil {
		return nil, err
	}
	return c.handlers.SetActive(ctx, sel, active)
}

// Offered lists the context-menu commands available for ids.
func (c *Controller) Offered(ids []string) []menu.Offer {
	sel, err := c.resolve(ids)
	if err != nil {
		return nil
	}
	return c.menu.Offered(c.gate, sel)
}

// Invoke runs a context-menu command over ids.
func (c *Controller) Invoke(ctx context.Context, commandID string, ids []string) error {
	sel, err := c.resolve(ids)
	if err != nil {
		return err
	}
	return c.menu.Invoke(ctx, commandID, c.gate, sel)
}
