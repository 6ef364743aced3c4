package mutate

import (
	"context"
	"errors"
	"testing"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"
	"scenelinks/internal/perm"
)

// memItems is an in-memory Updater that records each submission.
type memItems struct {
	items       map[string]*model.SceneItem
	submissions [][]string
	err         error
}

func newMemItems(items ...model.SceneItem) *memItems {
	m := &memItems{items: map[string]*model.SceneItem{}}
	for _, it := range items {
		c := it.Clone()
		m.items[it.ID] = &c
	}
	return m
}

func (m *memItems) UpdateItems(_ context.Context, ids []string, fn func([]*model.SceneItem)) error {
	if m.err != nil {
		return m.err
	}
	m.submissions = append(m.submissions, append([]string(nil), ids...))
	batch := make([]*model.SceneItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			batch = append(batch, it)
		}
	}
	fn(batch)
	return nil
}

func (m *memItems) get(id string) model.SceneItem { return *m.items[id] }

func (m *memItems) snapshot(ids ...string) []model.SceneItem {
	out := make([]model.SceneItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.items[id].Clone())
	}
	return out
}

type staticRoles struct{ v perm.Viewer }

func (s staticRoles) Viewer(context.Context) (perm.Viewer, error) { return s.v, nil }
func (s staticRoles) OnViewerChange(func(perm.Viewer)) func()    { return func() {} }

func gateFor(t *testing.T, role model.Role, perms ...string) *perm.Gate {
	t.Helper()
	g := perm.NewGate()
	if _, err := g.Start(context.Background(), staticRoles{v: perm.Viewer{Role: role, Permissions: perms}}); err != nil {
		t.Fatalf("gate start: %v", err)
	}
	return g
}

// scripted answers prompts in order and records the requests it saw.
type scripted struct {
	answers []PromptResponse
	seen    []PromptRequest
}

func (s *scripted) PromptURL(_ context.Context, req PromptRequest) (PromptResponse, error) {
	s.seen = append(s.seen, req)
	if len(s.answers) == 0 {
		return PromptResponse{Canceled: true}, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func img(id, name string) model.SceneItem {
	return model.SceneItem{ID: id, Type: model.ItemTypeImage, Layer: model.LayerCharacter, Name: name, Visible: true}
}

func linked(id, url string, active bool) model.SceneItem {
	it := img(id, id)
	linkmeta.Set(&it, linkmeta.Metadata{URL: url, Active: active})
	return it
}

func mustLink(t *testing.T, it model.SceneItem) linkmeta.Metadata {
	t.Helper()
	md, ok := linkmeta.FromItem(&it)
	if !ok {
		t.Fatalf("expected %s to carry a link; metadata=%v", it.ID, it.Metadata)
	}
	return md
}

var errHost = errors.New("host rejected")
