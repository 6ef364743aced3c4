package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"scenelinks/internal/store"

	"github.com/spf13/cobra"
)

func newRoomsBackupCmd(app *App) *cobra.Command {
	var to, compression string

	cmd := &cobra.Command{
		Use:   "backup --to <file>",
		Short: "Write a compressed copy of the room (safe while panels are open)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := store.ParseCompression(compression)
			if err != nil {
				return writeErr(cmd, err)
			}
			to = strings.TrimSpace(to)
			if to == "" {
				return writeErr(cmd, errors.New("missing --to"))
			}
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			f, err := os.OpenFile(to, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
			if err != nil {
				return writeErr(cmd, err)
			}
			info, err := st.Backup(cmd.Context(), f, c)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(to)
				return writeErr(cmd, err)
			}
			abs, _ := filepath.Abs(to)
			return writeOut(cmd, app, map[string]any{
				"data": info,
				"meta": map[string]any{"room": ref.Label(), "file": abs},
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Backup file to create")
	cmd.Flags().StringVar(&compression, "compression", "zstd", "zstd or lz4")
	return cmd
}

func newRoomsRestoreCmd(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "restore <file> <name>",
		Short: "Restore a backup as a new room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeRoomName(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir := strings.TrimSpace(path)
			if dir == "" {
				if dir, err = store.RoomDir(name); err != nil {
					return writeErr(cmd, err)
				}
			} else if dir, err = filepath.Abs(dir); err != nil {
				return writeErr(cmd, err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			c, err := store.Restore(cmd.Context(), f, dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(path) != "" {
				cfg, err := store.LoadConfig()
				if err != nil {
					return writeErr(cmd, err)
				}
				if cfg.Rooms == nil {
					cfg.Rooms = map[string]store.RoomRef{}
				}
				cfg.Rooms[name] = store.RoomRef{Path: dir}
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"name": name, "dir": dir, "compression": c},
				"_hints": []string{"scenelinks rooms use " + name, "scenelinks --room " + name + " players list"},
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Restore into this directory and register it (default: ~/.scenelinks/rooms/<name>)")
	return cmd
}
