package perm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"scenelinks/internal/model"
)

// Permission names granted by the room to players. GMs hold all of them.
const (
	PermUpdateItem = "UPDATE_ITEM"
	PermCreateItem = "CREATE_ITEM"
	PermDeleteItem = "DELETE_ITEM"
)

// Viewer is what the host reports about the current viewer.
type Viewer struct {
	Role        model.Role
	Permissions []string
}

// RoleSource is the host's role query and change subscription.
type RoleSource interface {
	Viewer(ctx context.Context) (Viewer, error)
	OnViewerChange(fn func(Viewer)) (unsubscribe func())
}

// Gate holds the latest known viewer role for the lifetime of a panel.
// It has no mutation path of its own: values only arrive from the host.
type Gate struct {
	mu    sync.RWMutex
	role  model.Role
	perms map[string]bool
}

func NewGate() *Gate {
	return &Gate{role: model.RolePlayer}
}

// Start queries the viewer once and then follows host notifications until
// the returned stop func is called.
func (g *Gate) Start(ctx context.Context, src RoleSource) (func(), error) {
	v, err := src.Viewer(ctx)
	if err != nil {
		return func() {}, fmt.Errorf("query viewer role: %w", err)
	}
	g.apply(v)
	return src.OnViewerChange(g.apply), nil
}

func (g *Gate) apply(v Viewer) {
	role := v.Role
	if role != model.RoleGM {
		role = model.RolePlayer
	}
	perms := make(map[string]bool, len(v.Permissions))
	for _, p := range v.Permissions {
		if p = strings.TrimSpace(p); p != "" {
			perms[p] = true
		}
	}
	g.mu.Lock()
	g.role = role
	g.perms = perms
	g.mu.Unlock()
}

func (g *Gate) Role() model.Role {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.role
}

func (g *Gate) IsGM() bool { return g.Role() == model.RoleGM }

// CanSeeHidden reports whether links on invisible items are shown.
func (g *Gate) CanSeeHidden() bool { return g.IsGM() }

// CanManageLinks reports whether add/remove/edit commands may run.
func (g *Gate) CanManageLinks() bool { return g.IsGM() }

// Has reports whether the viewer holds a room permission.
func (g *Gate) Has(permission string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.role == model.RoleGM {
		return true
	}
	return g.perms[strings.TrimSpace(permission)]
}

// Permissions returns the player permission set (nil for GMs, who hold all).
func (g *Gate) Permissions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.role == model.RoleGM {
		return nil
	}
	out := make([]string, 0, len(g.perms))
	for p := range g.perms {
		out = append(out, p)
	}
	return out
}
