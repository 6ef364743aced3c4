package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"scenelinks/internal/model"
)

const metaPlayerPermissions = "player_permissions"

var ErrInvalidRole = errors.New("invalid role")

func (s *Store) AddPlayer(ctx context.Context, name string, role model.Role) (model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Player{}, errors.New("player name is empty")
	}
	if role != model.RoleGM && role != model.RolePlayer {
		return model.Player{}, ErrInvalidRole
	}
	p := model.Player{ID: newID("player"), Name: name, Role: role}
	err := s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO players(id, name, role, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			p.ID, p.Name, string(p.Role), s.now().UnixMilli())
		return err
	})
	if err != nil {
		return model.Player{}, err
	}
	return p, nil
}

func (s *Store) Players(ctx context.Context) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role FROM players ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Player{}
	for rows.Next() {
		var p model.Player
		var role string
		if err := rows.Scan(&p.ID, &p.Name, &role); err != nil {
			return nil, err
		}
		p.Role = model.Role(role)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Player(ctx context.Context, id string) (model.Player, error) {
	var p model.Player
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, role FROM players WHERE id = ?`, strings.TrimSpace(id)).Scan(&p.ID, &p.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, NotFoundError{Kind: "player", ID: id}
	}
	if err != nil {
		return model.Player{}, err
	}
	p.Role = model.Role(role)
	return p, nil
}

func (s *Store) SetRole(ctx context.Context, id string, role model.Role) error {
	if role != model.RoleGM && role != model.RolePlayer {
		return ErrInvalidRole
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE players SET role = ?, updated_at_unixms = ? WHERE id = ?`,
			string(role), s.now().UnixMilli(), strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFoundError{Kind: "player", ID: id}
		}
		return nil
	})
}

// PlayerPermissions is the room-wide permission set granted to players.
func (s *Store) PlayerPermissions(ctx context.Context) ([]string, error) {
	v, ok, err := getMeta(ctx, s.db, metaPlayerPermissions)
	if err != nil || !ok {
		return []string{}, err
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		s.log.Warn("ignoring malformed player permissions", "err", err)
		return []string{}, nil
	}
	return out, nil
}

func (s *Store) SetPlayerPermissions(ctx context.Context, perms []string) error {
	set := map[string]bool{}
	for _, p := range perms {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			set[p] = true
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, metaPlayerPermissions, string(raw))
		return err
	})
}
