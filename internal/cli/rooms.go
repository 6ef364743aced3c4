package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scenelinks/internal/store"

	"github.com/spf13/cobra"
)

func newRoomsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List, register and select rooms",
	}
	cmd.AddCommand(newRoomsListCmd(app))
	cmd.AddCommand(newRoomsUseCmd(app))
	cmd.AddCommand(newRoomsAddCmd(app))
	cmd.AddCommand(newRoomsBackupCmd(app))
	cmd.AddCommand(newRoomsRestoreCmd(app))
	return cmd
}

func newRoomsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := store.ListRooms()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			rows := make([]map[string]any, 0, len(names))
			for _, name := range names {
				dir, err := store.RoomDir(name)
				if err != nil {
					return writeErr(cmd, err)
				}
				rows = append(rows, map[string]any{
					"name":    name,
					"dir":     dir,
					"current": name == cfg.CurrentRoom,
					"exists":  store.Exists(dir),
				})
			}
			return writeOut(cmd, app, map[string]any{
				"data": rows,
				"meta": map[string]any{"count": len(rows), "currentRoom": cfg.CurrentRoom},
			})
		},
	}
}

func newRoomsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a room the current room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeRoomName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir, err := store.RoomDir(name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !store.Exists(dir) {
				return writeErr(cmd, fmt.Errorf("%w: %s", store.ErrNoRoom, name))
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.CurrentRoom = name
			if cfg.Rooms != nil {
				if ref, ok := cfg.Rooms[name]; ok {
					ref.LastOpened = time.Now().UTC().Format(time.RFC3339Nano)
					cfg.Rooms[name] = ref
				}
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"currentRoom": name, "dir": dir}})
		},
	}
}

func newRoomsAddCmd(app *App) *cobra.Command {
	var path string
	var use bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an existing room directory (e.g. on a shared mount)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeRoomName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			path = strings.TrimSpace(path)
			if path == "" {
				return writeErr(cmd, errors.New("missing --path"))
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			if st, err := os.Stat(abs); err != nil {
				return writeErr(cmd, err)
			} else if !st.IsDir() {
				return writeErr(cmd, fmt.Errorf("--path is not a directory: %s", abs))
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cfg.Rooms == nil {
				cfg.Rooms = map[string]store.RoomRef{}
			}
			cfg.Rooms[name] = store.RoomRef{Path: abs, LastOpened: time.Now().UTC().Format(time.RFC3339Nano)}
			if use {
				cfg.CurrentRoom = name
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"name": name, "dir": abs, "exists": store.Exists(abs), "current": cfg.CurrentRoom == name},
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Room directory")
	cmd.Flags().BoolVar(&use, "use", false, "Also make it the current room")
	return cmd
}
