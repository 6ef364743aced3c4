package mutate

import (
	"context"
	"strings"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"
	"scenelinks/internal/perm"
)

type EditResult struct {
	Edited []string `json:"edited"`
}

// Edit prompts for a new URL for every linked item in the selection. Only
// non-empty answers that differ from the current URL are written, and only
// the url field changes.
func (h Handlers) Edit(ctx context.Context, selection []model.SceneItem) (EditResult, error) {
	if len(selection) == 0 {
		return EditResult{}, ErrNoSelection
	}
	if err := h.requireManage("edit link"); err != nil {
		return EditResult{}, err
	}

	urls := map[string]string{}
	var ids []string
	for i := range selection {
		it := &selection[i]
		md, ok := linkmeta.FromItem(it)
		if !ok {
			continue
		}
		resp, err := h.Prompt.PromptURL(ctx, PromptRequest{
			Kind:     PromptEdit,
			ItemID:   it.ID,
			ItemName: it.DisplayName(),
			Current:  md.URL,
		})
		if err != nil {
			return EditResult{}, err
		}
		url := strings.TrimSpace(resp.URL)
		if resp.Canceled || url == "" || url == md.URL {
			continue
		}
		urls[it.ID] = url
		ids = append(ids, it.ID)
	}
	if len(ids) == 0 {
		return EditResult{}, nil
	}

	err := h.submit(ctx, "edit link", ids, func(items []*model.SceneItem) {
		for _, it := range items {
			md, ok := linkmeta.FromItem(it)
			if !ok {
				continue
			}
			url := urls[it.ID]
			if url == "" || md.URL == url {
				continue
			}
			md.URL = url
			linkmeta.Set(it, md)
		}
	})
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Edited: ids}, nil
}

// SetActive flips the active flag on linked items, leaving the url alone.
// Players may do this when the room grants them item updates.
func (h Handlers) SetActive(ctx context.Context, selection []model.SceneItem, active bool) ([]string, error) {
	if len(selection) == 0 {
		return nil, ErrNoSelection
	}
	if h.Gate == nil || !h.Gate.Has(perm.PermUpdateItem) {
		role := model.RolePlayer
		if h.Gate != nil {
			role = h.Gate.Role()
		}
		return nil, NotPermittedError{Action: "set active", Role: role}
	}

	var ids []string
	for i := range selection {
		md, ok := linkmeta.FromItem(&selection[i])
		if !ok || md.Active == active {
			continue
		}
		ids = append(ids, selection[i].ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err := h.submit(ctx, "set active", ids, func(items []*model.SceneItem) {
		for _, it := range items {
			md, ok := linkmeta.FromItem(it)
			if !ok {
				continue
			}
			md.Active = active
			linkmeta.Set(it, md)
		}
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
