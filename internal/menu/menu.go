// Package menu is the context-menu registry of the panel's host chrome.
//
// A command carries a selection filter: viewer roles, required permissions,
// a maximum selection size and expr-lang predicates evaluated per selected
// item. The predicates see these variables:
//
//	type      item type ("IMAGE", "TEXT", ...)
//	layer     item layer ("CHARACTER", "PROP", ...)
//	name      display name
//	visible   scene visibility
//	locked    lock state
//	hasLink   the link key is present (even if malformed)
//	isLink    the link key holds a well-formed link record
//	url       the link url ("" when not a link)
//	active    the link active flag (false when not a link)
//	metadata  the raw metadata bag
package menu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

var ErrNotOffered = errors.New("command not offered for this selection")

// Capabilities is the viewer state a filter is checked against.
type Capabilities interface {
	Role() model.Role
	Has(permission string) bool
}

type Filter struct {
	Roles       []model.Role
	Permissions []string
	// Every must hold for each selected item; Some for at least one.
	Every string
	Some  string
	// Max bounds the selection size; zero means unbounded.
	Max int
}

// Icon is a presentation variant; the first whose filter matches is shown.
type Icon struct {
	Icon   string
	Label  string
	Filter Filter
}

type Command struct {
	ID     string
	Icons  []Icon
	Filter Filter
}

type Handler func(ctx context.Context, selection []model.SceneItem) error

// Offer is a command as presented for a concrete selection.
type Offer struct {
	ID    string
	Icon  string
	Label string
}

type compiledFilter struct {
	roles map[model.Role]bool
	perms []string
	every *exprvm.Program
	some  *exprvm.Program
	max   int
}

type compiledIcon struct {
	icon   Icon
	filter compiledFilter
}

type entry struct {
	id      string
	filter  compiledFilter
	icons   []compiledIcon
	handler Handler
}

type Registry struct {
	mu      sync.RWMutex
	entries []*entry
}

func NewRegistry() *Registry { return &Registry{} }

// Register compiles cmd's filters and adds it. The returned func removes it.
func (r *Registry) Register(cmd Command, h Handler) (func(), error) {
	if cmd.ID == "" {
		return nil, errors.New("menu: command id is required")
	}
	if len(cmd.Icons) == 0 {
		return nil, fmt.Errorf("menu: command %s has no icons", cmd.ID)
	}
	f, err := compileFilter(cmd.Filter)
	if err != nil {
		return nil, fmt.Errorf("menu: command %s: %w", cmd.ID, err)
	}
	e := &entry{id: cmd.ID, filter: f, handler: h}
	for _, ic := range cmd.Icons {
		cf, err := compileFilter(ic.Filter)
		if err != nil {
			return nil, fmt.Errorf("menu: command %s icon %q: %w", cmd.ID, ic.Label, err)
		}
		e.icons = append(e.icons, compiledIcon{icon: ic, filter: cf})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.id == cmd.ID {
			return nil, fmt.Errorf("menu: command %s already registered", cmd.ID)
		}
	}
	r.entries = append(r.entries, e)
	return func() { r.remove(e) }, nil
}

func (r *Registry) remove(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.entries {
		if existing == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Offered lists the commands whose filters accept selection, in registration order.
func (r *Registry) Offered(caps Capabilities, selection []model.SceneItem) []Offer {
	if len(selection) == 0 {
		return nil
	}
	envs := itemEnvs(selection)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Offer
	for _, e := range r.entries {
		if o, ok := e.offer(caps, envs); ok {
			out = append(out, o)
		}
	}
	return out
}

// Invoke re-checks the filter and runs the command's handler.
func (r *Registry) Invoke(ctx context.Context, id string, caps Capabilities, selection []model.SceneItem) error {
	r.mu.RLock()
	var found *entry
	for _, e := range r.entries {
		if e.id == id {
			found = e
			break
		}
	}
	r.mu.RUnlock()
	if found == nil {
		return fmt.Errorf("menu: unknown command %s", id)
	}
	if len(selection) == 0 {
		return ErrNotOffered
	}
	if _, ok := found.offer(caps, itemEnvs(selection)); !ok {
		return ErrNotOffered
	}
	if found.handler == nil {
		return nil
	}
	return found.handler(ctx, selection)
}

func (e *entry) offer(caps Capabilities, envs []map[string]any) (Offer, bool) {
	if !e.filter.match(caps, envs) {
		return Offer{}, false
	}
	for _, ic := range e.icons {
		if ic.filter.match(caps, envs) {
			return Offer{ID: e.id, Icon: ic.icon.Icon, Label: ic.icon.Label}, true
		}
	}
	return Offer{}, false
}

func compileFilter(f Filter) (compiledFilter, error) {
	out := compiledFilter{max: f.Max, perms: f.Permissions}
	if len(f.Roles) > 0 {
		out.roles = map[model.Role]bool{}
		for _, r := range f.Roles {
			out.roles[r] = true
		}
	}
	var err error
	if out.every, err = compilePredicate(f.Every); err != nil {
		return compiledFilter{}, err
	}
	if out.some, err = compilePredicate(f.Some); err != nil {
		return compiledFilter{}, err
	}
	return out, nil
}

func compilePredicate(src string) (*exprvm.Program, error) {
	if src == "" {
		return nil, nil
	}
	p, err := exprlang.Compile(src, exprlang.Env(sampleEnv()), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return p, nil
}

func (f compiledFilter) match(caps Capabilities, envs []map[string]any) bool {
	if f.roles != nil && (caps == nil || !f.roles[caps.Role()]) {
		return false
	}
	for _, p := range f.perms {
		if caps == nil || !caps.Has(p) {
			return false
		}
	}
	if f.max > 0 && len(envs) > f.max {
		return false
	}
	if f.every != nil {
		for _, env := range envs {
			if !eval(f.every, env) {
				return false
			}
		}
	}
	if f.some != nil {
		matched := false
		for _, env := range envs {
			if eval(f.some, env) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func eval(p *exprvm.Program, env map[string]any) bool {
	v, err := exprlang.Run(p, env)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func sampleEnv() map[string]any {
	return itemEnv(&model.SceneItem{Metadata: map[string]any{}})
}

func itemEnvs(items []model.SceneItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, itemEnv(&items[i]))
	}
	return out
}

func itemEnv(it *model.SceneItem) map[string]any {
	link, isLink := linkmeta.FromItem(it)
	md := it.Metadata
	if md == nil {
		md = map[string]any{}
	}
	return map[string]any{
		"type":     string(it.Type),
		"layer":    string(it.Layer),
		"name":     it.DisplayName(),
		"visible":  it.Visible,
		"locked":   it.Locked,
		"hasLink":  linkmeta.HasKey(it),
		"isLink":   isLink,
		"url":      link.URL,
		"active":   link.Active,
		"metadata": md,
	}
}
