package linkview

import (
	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"
)

// LinkItem is the panel row for a scene item that carries a link.
type LinkItem struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Active  bool   `json:"active"`
}

// Project maps a full scene snapshot to its link rows, keeping input order.
// Only image items with a well-formed link record qualify; everything else is
// dropped. The result depends on items alone, so it is safe to rebuild on
// every change notification.
func Project(items []model.SceneItem) []LinkItem {
	out := make([]LinkItem, 0, len(items))
	for i := range items {
		it := &items[i]
		if it.Type != model.ItemTypeImage {
			continue
		}
		md, ok := linkmeta.FromItem(it)
		if !ok {
			continue
		}
		out = append(out, LinkItem{
			ID:      it.ID,
			URL:     md.URL,
			Name:    it.DisplayName(),
			Visible: it.Visible,
			Active:  md.Active,
		})
	}
	return out
}

// ForViewer hides links on invisible items from viewers without the
// capability to see hidden items.
func ForViewer(links []LinkItem, canSeeHidden bool) []LinkItem {
	out := make([]LinkItem, 0, len(links))
	for _, l := range links {
		if !l.Visible && !canSeeHidden {
			continue
		}
		out = append(out, l)
	}
	return out
}
