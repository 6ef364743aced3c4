package mutate

import (
	"context"
	"strings"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"
)

type ToggleResult struct {
	// Added holds ids submitted with a new link; Removed ids submitted for removal.
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Changed reports whether a mutation was submitted.
func (r ToggleResult) Changed() bool { return len(r.Added) > 0 || len(r.Removed) > 0 }

// Toggle adds links when no selected item has one, otherwise removes the link
// key from every selected item. The branch is decided once for the whole
// selection; a mixed selection removes.
func (h Handlers) Toggle(ctx context.Context, selection []model.SceneItem) (ToggleResult, error) {
	if len(selection) == 0 {
		return ToggleResult{}, ErrNoSelection
	}
	if err := h.requireManage("toggle link"); err != nil {
		return ToggleResult{}, err
	}

	addToLinks := true
	for i := range selection {
		if linkmeta.HasKey(&selection[i]) {
			addToLinks = false
			break
		}
	}
	if addToLinks {
		return h.add(ctx, selection)
	}
	return h.remove(ctx, selection)
}

func (h Handlers) add(ctx context.Context, selection []model.SceneItem) (ToggleResult, error) {
	urls := map[string]string{}
	broadcast := ""
	for _, it := range selection {
		resp, err := h.Prompt.PromptURL(ctx, PromptRequest{
			Kind:     PromptAdd,
			ItemID:   it.ID,
			ItemName: it.DisplayName(),
		})
		if err != nil {
			return ToggleResult{}, err
		}
		url := strings.TrimSpace(resp.URL)
		if resp.Canceled || url == "" {
			continue
		}
		urls[it.ID] = url
		broadcast = url
	}
	if len(urls) == 0 {
		return ToggleResult{}, nil
	}

	var ids []string
	if h.Mode == AddBroadcast {
		ids = itemIDs(selection)
	} else {
		for _, it := range selection {
			if _, ok := urls[it.ID]; ok {
				ids = append(ids, it.ID)
			}
		}
	}

	err := h.submit(ctx, "add link", ids, func(items []*model.SceneItem) {
		for _, it := range items {
			url := broadcast
			if h.Mode != AddBroadcast {
				url = urls[it.ID]
			}
			if url == "" {
				continue
			}
			linkmeta.Set(it, linkmeta.Metadata{URL: url, Active: false})
		}
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Added: ids}, nil
}

func (h Handlers) remove(ctx context.Context, selection []model.SceneItem) (ToggleResult, error) {
	ids := itemIDs(selection)
	err := h.submit(ctx, "remove link", ids, func(items []*model.SceneItem) {
		for _, it := range items {
			linkmeta.Delete(it)
		}
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Removed: ids}, nil
}
