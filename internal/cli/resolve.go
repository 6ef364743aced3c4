package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"scenelinks/internal/host"
	"scenelinks/internal/mutate"
	"scenelinks/internal/panel"
	"scenelinks/internal/sizing"
	"scenelinks/internal/store"
)

var errNoRoomSelected = errors.New("no room selected; run `scenelinks init <name>` or pass --room")

// roomRef identifies the room a command acts on. Key indexes per-room
// settings in the global config.
type roomRef struct {
	Dir  string `json:"dir"`
	Name string `json:"name,omitempty"`
	Key  string `json:"-"`
}

func (r roomRef) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Dir
}

// resolveRoom picks the room:
// 1) --dir
// 2) --room
// 3) currentRoom from ~/.scenelinks/config.json
func resolveRoom(app *App) (roomRef, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		abs, err := filepath.Abs(d)
		if err != nil {
			return roomRef{}, err
		}
		return roomRef{Dir: abs, Key: abs}, nil
	}
	name := strings.TrimSpace(app.Room)
	if name == "" {
		cfg, err := store.LoadConfig()
		if err != nil {
			return roomRef{}, err
		}
		name = cfg.CurrentRoom
	}
	if name == "" {
		return roomRef{}, errNoRoomSelected
	}
	name, err := store.NormalizeRoomName(name)
	if err != nil {
		return roomRef{}, err
	}
	dir, err := store.RoomDir(name)
	if err != nil {
		return roomRef{}, err
	}
	return roomRef{Dir: dir, Name: name, Key: name}, nil
}

func openRoom(ctx context.Context, app *App) (*store.Store, roomRef, error) {
	ref, err := resolveRoom(app)
	if err != nil {
		return nil, roomRef{}, err
	}
	if !store.Exists(ref.Dir) {
		return nil, ref, fmt.Errorf("%w: %s (run `scenelinks init`)", store.ErrNoRoom, ref.Dir)
	}
	st, err := store.Open(ctx, ref.Dir, app.logger())
	if err != nil {
		return nil, ref, err
	}
	return st, ref, nil
}

func resolvePlayer(app *App, ref roomRef) (string, error) {
	if id := strings.TrimSpace(app.PlayerID); id != "" {
		return id, nil
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return "", err
	}
	if id := strings.TrimSpace(cfg.Players[ref.Key]); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no player selected for room %s; run `scenelinks players use <player-id>` (or pass --player)", ref.Label())
}

func savePlayer(ref roomRef, playerID string) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Players == nil {
		cfg.Players = map[string]string{}
	}
	cfg.Players[ref.Key] = playerID
	return store.SaveConfig(cfg)
}

func panelOptions(app *App) (panel.Options, time.Duration, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return panel.Options{}, 0, err
	}
	pc := cfg.PanelOrDefault()
	mode, ok := mutate.ParseAddMode(pc.AddMode)
	if !ok {
		return panel.Options{}, 0, fmt.Errorf("config: unknown panel.addMode %q (want per-item or broadcast)", pc.AddMode)
	}
	opts := panel.Options{
		OpenInModal: pc.OpenInModal,
		AddMode:     mode,
		Sizing: sizing.Options{
			MinListHeight:   pc.MinListHeight,
			ChromeHeight:    pc.ChromeHeight,
			CollapsedHeight: pc.CollapsedHeight,
		},
		Log: app.logger().With("component", "panel"),
	}
	return opts, time.Duration(pc.PollMs) * time.Millisecond, nil
}

// session is one viewer attached to a room through a running controller.
type session struct {
	st   *store.Store
	host *host.Local
	ctrl *panel.Controller
	ref  roomRef
}

func openSession(ctx context.Context, app *App, prompter mutate.Prompter) (*session, error) {
	st, ref, err := openRoom(ctx, app)
	if err != nil {
		return nil, err
	}
	playerID, err := resolvePlayer(app, ref)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	opts, interval, err := panelOptions(app)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	h := host.New(st, host.Options{
		PlayerID:     playerID,
		PollInterval: interval,
		Log:          app.logger().With("component", "host"),
	})
	ctrl := panel.New(h, prompter, opts)
	s := &session{st: st, host: h, ctrl: ctrl, ref: ref}
	if err := ctrl.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	s.ctrl.Close()
	s.host.Close()
	_ = s.st.Close()
}
