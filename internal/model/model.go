package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleGM     Role = "GM"
	RolePlayer Role = "PLAYER"
)

// ParseRole normalizes user input ("gm", "Player") to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleGM:
		return RoleGM, true
	case RolePlayer:
		return RolePlayer, true
	default:
		return "", false
	}
}

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type ItemType string

const (
	ItemTypeImage ItemType = "IMAGE"
	ItemTypeText  ItemType = "TEXT"
	ItemTypeShape ItemType = "SHAPE"
	ItemTypeLabel ItemType = "LABEL"
)

type Layer string

const (
	LayerMap       Layer = "MAP"
	LayerCharacter Layer = "CHARACTER"
	LayerMount     Layer = "MOUNT"
	LayerProp      Layer = "PROP"
	LayerNote      Layer = "NOTE"
	LayerDrawing   Layer = "DRAWING"
)

type ItemText struct {
	PlainText string `json:"plainText"`
}

// SceneItem is a replicated object on the shared scene.
// Metadata is a multi-writer bag: every writer owns only its own namespaced keys.
type SceneItem struct {
	ID       string         `json:"id"`
	Type     ItemType       `json:"type"`
	Layer    Layer          `json:"layer"`
	Name     string         `json:"name"`
	Text     *ItemText      `json:"text,omitempty"`
	Visible  bool           `json:"visible"`
	Locked   bool           `json:"locked"`
	Metadata map[string]any `json:"metadata"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName prefers the plain-text label over the structural name.
func (it SceneItem) DisplayName() string {
	if it.Text != nil {
		if t := strings.TrimSpace(it.Text.PlainText); t != "" {
			return t
		}
	}
	return it.Name
}

// Clone returns a copy whose metadata bag can be mutated without touching it.
func (it SceneItem) Clone() SceneItem {
	out := it
	if it.Text != nil {
		t := *it.Text
		out.Text = &t
	}
	if it.Metadata != nil {
		out.Metadata = cloneMap(it.Metadata)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
