package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"
)

var ErrDoctorIssuesFound = errors.New("doctor found errors")

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	ItemID  string           `json:"itemId,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor checks the room for rows the panel cannot read and link metadata
// the projector silently ignores.
func (s *Store) Doctor(ctx context.Context) (DoctorReport, error) {
	report := DoctorReport{Issues: []DoctorIssue{}}

	rows, err := s.db.QueryContext(ctx, `SELECT id, json FROM items ORDER BY seq ASC`)
	if err != nil {
		return report, err
	}
	var items []model.SceneItem
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return report, err
		}
		it, err := decodeItem(id, raw)
		if err != nil {
			report.Issues = append(report.Issues, DoctorIssue{
				Level:   DoctorIssueLevelError,
				Code:    "item_invalid_json",
				Message: err.Error(),
				ItemID:  id,
			})
			continue
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, err
	}
	_ = rows.Close()

	for i := range items {
		it := &items[i]
		if !linkmeta.HasKey(it) {
			continue
		}
		if _, ok := linkmeta.FromItem(it); !ok {
			raw, _ := json.Marshal(it.Metadata[linkmeta.Key])
			report.Issues = append(report.Issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "link_malformed",
				Message: fmt.Sprintf("link metadata is not {url, active}: %s", raw),
				ItemID:  it.ID,
			})
			continue
		}
		if it.Type != model.ItemTypeImage {
			report.Issues = append(report.Issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "link_on_non_image",
				Message: fmt.Sprintf("%s item carries a link and will not be listed", it.Type),
				ItemID:  it.ID,
			})
		}
	}

	players, err := s.Players(ctx)
	if err != nil {
		return report, err
	}
	hasGM := false
	for _, p := range players {
		switch p.Role {
		case model.RoleGM:
			hasGM = true
		case model.RolePlayer:
		default:
			report.Issues = append(report.Issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "player_unknown_role",
				Message: fmt.Sprintf("player %s has role %q and is treated as PLAYER", p.ID, p.Role),
			})
		}
	}
	if !hasGM {
		report.Issues = append(report.Issues, DoctorIssue{
			Level:   DoctorIssueLevelWarn,
			Code:    "room_no_gm",
			Message: "no GM player; links cannot be added or edited",
		})
	}
	return report, nil
}
