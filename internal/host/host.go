// Package host binds the panel to a local room: scene and viewer queries
// read the room store, subscriptions are fed by one store watcher, and
// panel resize requests go to whatever chrome is displaying the panel.
package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scenelinks/internal/model"
	"scenelinks/internal/perm"
	"scenelinks/internal/sizing"
	"scenelinks/internal/store"
)

var ErrNoPlayer = errors.New("no player selected for this room")

type Options struct {
	PlayerID     string
	PollInterval time.Duration
	Log          *slog.Logger
}

// Local implements panel.Host over a room store.
type Local struct {
	st       *store.Store
	playerID string
	interval time.Duration
	log      *slog.Logger

	mu         sync.Mutex
	itemSubs   map[int]func([]model.SceneItem)
	viewerSubs map[int]func(perm.Viewer)
	nextID     int
	cancel     context.CancelFunc
	done       chan struct{}
	lastItems  [32]byte
	lastViewer perm.Viewer
	primed     bool
	resizer    sizing.Resizer
	height     int
}

func New(st *store.Store, opts Options) *Local {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = store.DefaultPollInterval
	}
	return &Local{
		st:         st,
		playerID:   strings.TrimSpace(opts.PlayerID),
		interval:   interval,
		log:        log,
		itemSubs:   map[int]func([]model.SceneItem){},
		viewerSubs: map[int]func(perm.Viewer){},
	}
}

func (h *Local) PlayerID() string { return h.playerID }

func (h *Local) Items(ctx context.Context) ([]model.SceneItem, error) {
	return h.st.Items(ctx)
}

func (h *Local) UpdateItems(ctx context.Context, ids []string, fn func(items []*model.SceneItem)) error {
	return h.st.UpdateItems(ctx, ids, fn)
}

// Viewer resolves the configured player. Players get the room-granted
// permission set; GMs need none.
func (h *Local) Viewer(ctx context.Context) (perm.Viewer, error) {
	if h.playerID == "" {
		return perm.Viewer{}, ErrNoPlayer
	}
	p, err := h.st.Player(ctx, h.playerID)
	if err != nil {
		return perm.Viewer{}, err
	}
	v := perm.Viewer{Role: p.Role}
	if p.Role != model.RoleGM {
		perms, err := h.st.PlayerPermissions(ctx)
		if err != nil {
			return perm.Viewer{}, err
		}
		v.Permissions = perms
	}
	return v, nil
}

func (h *Local) viewerFrom(snap store.Snapshot) (perm.Viewer, bool) {
	for _, p := range snap.Players {
		if p.ID != h.playerID {
			continue
		}
		v := perm.Viewer{Role: p.Role}
		if p.Role != model.RoleGM {
			v.Permissions = append([]string(nil), snap.Permissions...)
		}
		return v, true
	}
	return perm.Viewer{}, false
}

func (h *Local) OnItemsChange(fn func(items []model.SceneItem)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.itemSubs[id] = fn
	h.ensureWatchLocked()
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.itemSubs, id)
		h.maybeStopLocked()
		h.mu.Unlock()
	}
}

func (h *Local) OnViewerChange(fn func(perm.Viewer)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.viewerSubs[id] = fn
	h.ensureWatchLocked()
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.viewerSubs, id)
		h.maybeStopLocked()
		h.mu.Unlock()
	}
}

func (h *Local) ensureWatchLocked() {
	if h.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h.cancel = cancel
	h.done = done
	h.primed = false
	go func() {
		defer close(done)
		if err := h.st.Watch(ctx, h.interval, h.dispatch); err != nil && !errors.Is(err, context.Canceled) {
			h.log.Warn("room watch stopped", "err", err)
		}
	}()
	h.log.Debug("room watch started", "interval", h.interval)
}

func (h *Local) maybeStopLocked() {
	if h.cancel == nil || len(h.itemSubs) > 0 || len(h.viewerSubs) > 0 {
		return
	}
	h.cancel()
	h.cancel = nil
	h.log.Debug("room watch stopped")
}

// dispatch runs on the watch goroutine. Item subscribers hear about content
// changes; viewer subscribers only about changes to this player.
func (h *Local) dispatch(snap store.Snapshot) {
	viewer, found := h.viewerFrom(snap)

	h.mu.Lock()
	if h.cancel == nil {
		h.mu.Unlock()
		return
	}
	itemsChanged := !h.primed || snap.ItemsSum != h.lastItems
	viewerChanged := found && (!h.primed || !sameViewer(viewer, h.lastViewer))
	h.lastItems = snap.ItemsSum
	if found {
		h.lastViewer = viewer
	}
	h.primed = true

	var itemFns []func([]model.SceneItem)
	if itemsChanged {
		for _, fn := range h.itemSubs {
			itemFns = append(itemFns, fn)
		}
	}
	var viewerFns []func(perm.Viewer)
	if viewerChanged {
		for _, fn := range h.viewerSubs {
			viewerFns = append(viewerFns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range viewerFns {
		fn(viewer)
	}
	for _, fn := range itemFns {
		fn(snap.Items)
	}
}

func sameViewer(a, b perm.Viewer) bool {
	if a.Role != b.Role || len(a.Permissions) != len(b.Permissions) {
		return false
	}
	for i := range a.Permissions {
		if a.Permissions[i] != b.Permissions[i] {
			return false
		}
	}
	return true
}

// SetResizer attaches the chrome that displays the panel. The last
// requested height is replayed to it.
func (h *Local) SetResizer(r sizing.Resizer) {
	h.mu.Lock()
	h.resizer = r
	height := h.height
	h.mu.Unlock()
	if r != nil && height > 0 {
		r.SetPanelHeight(height)
	}
}

func (h *Local) SetPanelHeight(height int) {
	h.mu.Lock()
	h.height = height
	r := h.resizer
	h.mu.Unlock()
	h.log.Debug("panel height requested", "rows", height)
	if r != nil {
		r.SetPanelHeight(height)
	}
}

// PanelHeight is the last requested panel height, 0 before any request.
func (h *Local) PanelHeight() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

// Close stops the watcher and waits for it to exit. It must not be called
// from a subscriber callback.
func (h *Local) Close() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel = nil
	h.itemSubs = map[int]func([]model.SceneItem){}
	h.viewerSubs = map[int]func(perm.Viewer){}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
