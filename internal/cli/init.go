package cli

import (
	"strings"

	"scenelinks/internal/model"
	"scenelinks/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var gmName string

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a room and its GM, and make it the current room",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.Room = args[0]
			}
			if strings.TrimSpace(app.Dir) == "" && strings.TrimSpace(app.Room) == "" {
				app.Room = "default"
			}
			ref, err := resolveRoom(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			created := !store.Exists(ref.Dir)

			st, err := store.Open(cmd.Context(), ref.Dir, app.logger())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			players, err := st.Players(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			var gm *model.Player
			for i := range players {
				if players[i].Role == model.RoleGM {
					gm = &players[i]
					break
				}
			}
			if gm == nil {
				p, err := st.AddPlayer(cmd.Context(), gmName, model.RoleGM)
				if err != nil {
					return writeErr(cmd, err)
				}
				gm = &p
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if ref.Name != "" {
				cfg.CurrentRoom = ref.Name
			}
			if cfg.Players == nil {
				cfg.Players = map[string]string{}
			}
			if cfg.Players[ref.Key] == "" {
				cfg.Players[ref.Key] = gm.ID
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"room":    ref,
					"created": created,
					"gm":      gm,
					"player":  cfg.Players[ref.Key],
				},
				"_hints": []string{
					"scenelinks items add --type IMAGE --layer CHARACTER --name <name>",
					"scenelinks players add <name>",
					"scenelinks",
				},
			})
		},
	}

	cmd.Flags().StringVar(&gmName, "gm-name", "GM", "Name of the GM player created with the room")
	return cmd
}
