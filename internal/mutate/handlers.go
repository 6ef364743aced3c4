package mutate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"scenelinks/internal/model"
	"scenelinks/internal/perm"
)

// Updater submits one atomic mutation over a batch of items. The host applies
// fn to fresh copies of the items inside a single transaction; ids that no
// longer exist are skipped.
type Updater interface {
	UpdateItems(ctx context.Context, ids []string, fn func(items []*model.SceneItem)) error
}

type AddMode string

const (
	// AddPerItem applies each prompt answer to its own item only.
	AddPerItem AddMode = "per-item"
	// AddBroadcast applies any answer to the whole original selection.
	AddBroadcast AddMode = "broadcast"
)

func ParseAddMode(s string) (AddMode, bool) {
	switch AddMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AddPerItem:
		return AddPerItem, true
	case AddBroadcast:
		return AddBroadcast, true
	default:
		return "", false
	}
}

// Handlers turns user-initiated commands over a selection into metadata
// mutations. They never update local state; the next change notification
// carries the result back.
type Handlers struct {
	Items  Updater
	Prompt Prompter
	Gate   *perm.Gate
	Mode   AddMode
	Log    *slog.Logger
}

func (h Handlers) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h Handlers) requireManage(action string) error {
	if h.Gate == nil || !h.Gate.CanManageLinks() {
		role := model.RolePlayer
		if h.Gate != nil {
			role = h.Gate.Role()
		}
		return NotPermittedError{Action: action, Role: role}
	}
	return nil
}

func (h Handlers) submit(ctx context.Context, action string, ids []string, fn func(items []*model.SceneItem)) error {
	h.logger().Debug("submit mutation", "action", action, "items", len(ids))
	if err := h.Items.UpdateItems(ctx, ids, fn); err != nil {
		return fmt.Errorf("%s: update items: %w", action, err)
	}
	return nil
}

func itemIDs(items []model.SceneItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
