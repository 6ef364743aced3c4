package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scenelinks/internal/model"
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Items returns every scene item in scene order.
func (s *Store) Items(ctx context.Context) ([]model.SceneItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, json FROM items ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SceneItem{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		it, err := decodeItem(id, raw)
		if err != nil {
			// One unreadable row must not hide the rest of the scene.
			s.log.Warn("skipping unreadable item", "id", id, "err", err)
			continue
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Item(ctx context.Context, id string) (model.SceneItem, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT json FROM items WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SceneItem{}, NotFoundError{Kind: "item", ID: id}
	}
	if err != nil {
		return model.SceneItem{}, err
	}
	return decodeItem(id, raw)
}

func decodeItem(id, raw string) (model.SceneItem, error) {
	var it model.SceneItem
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		return model.SceneItem{}, err
	}
	it.ID = id
	if it.Metadata == nil {
		it.Metadata = map[string]any{}
	}
	return it, nil
}

// AddItem appends it to the scene, assigning an id when empty.
func (s *Store) AddItem(ctx context.Context, it model.SceneItem) (model.SceneItem, error) {
	it.ID = strings.TrimSpace(it.ID)
	if it.ID == "" {
		it.ID = newID("item")
	}
	if it.Metadata == nil {
		it.Metadata = map[string]any{}
	}
	now := s.now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	err := s.write(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM items`).Scan(&seq); err != nil {
			return err
		}
		raw, err := json.Marshal(it)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO items(id, seq, json, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			it.ID, seq, string(raw), now.UnixMilli())
		return err
	})
	if err != nil {
		return model.SceneItem{}, err
	}
	s.log.Debug("item added", "id", it.ID, "type", it.Type)
	return it, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFoundError{Kind: "item", ID: id}
		}
		return nil
	})
}

// UpdateItems loads the listed items inside one transaction, hands them to fn
// and writes back whatever fn left in them. Unknown ids are skipped. fn sees
// the committed state at the time the write lock is taken, so concurrent
// writers touching other metadata keys are merged rather than overwritten.
func (s *Store) UpdateItems(ctx context.Context, ids []string, fn func(items []*model.SceneItem)) error {
	seen := map[string]bool{}
	return s.write(ctx, func(tx *sql.Tx) error {
		batch := make([]*model.SceneItem, 0, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			var raw string
			err := tx.QueryRowContext(ctx, `SELECT json FROM items WHERE id = ?`, id).Scan(&raw)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return err
			}
			it, err := decodeItem(id, raw)
			if err != nil {
				return fmt.Errorf("item %s: %w", id, err)
			}
			batch = append(batch, &it)
		}
		if len(batch) == 0 {
			return nil
		}

		fn(batch)

		now := s.now()
		for _, it := range batch {
			it.UpdatedAt = now
			raw, err := json.Marshal(it)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE items SET json = ?, updated_at_unixms = ? WHERE id = ?`,
				string(raw), now.UnixMilli(), it.ID); err != nil {
				return err
			}
		}
		s.log.Debug("items updated", "count", len(batch))
		return nil
	})
}
