package cli

import (
	"fmt"
	"strings"

	"scenelinks/internal/model"
	"scenelinks/internal/perm"
	"scenelinks/internal/store"

	"github.com/spf13/cobra"
)

var grantable = map[string]bool{
	perm.PermUpdateItem: true,
	perm.PermCreateItem: true,
	perm.PermDeleteItem: true,
}

func newPlayersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Manage the players of a room and who this device acts as",
	}
	cmd.AddCommand(newPlayersAddCmd(app))
	cmd.AddCommand(newPlayersListCmd(app))
	cmd.AddCommand(newPlayersUseCmd(app))
	cmd.AddCommand(newPlayersCurrentCmd(app))
	cmd.AddCommand(newPlayersSetRoleCmd(app))
	cmd.AddCommand(newPlayersGrantCmd(app))
	return cmd
}

func newPlayersAddCmd(app *App) *cobra.Command {
	var role string
	var use bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a player to the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := model.ParseRole(role)
			if !ok {
				return writeErr(cmd, fmt.Errorf("%w: %s", store.ErrInvalidRole, role))
			}
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			p, err := st.AddPlayer(cmd.Context(), args[0], r)
			if err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if err := savePlayer(ref, p.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data":   p,
				"_hints": []string{"scenelinks players use " + p.ID},
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(model.RolePlayer), "Role (GM|PLAYER)")
	cmd.Flags().BoolVar(&use, "use", false, "Act as this player on this device")
	return cmd
}

func newPlayersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List players and the room's player permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			players, err := st.Players(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			perms, err := st.PlayerPermissions(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			current, _ := resolvePlayer(app, ref)
			return writeOut(cmd, app, map[string]any{
				"data": players,
				"meta": map[string]any{
					"count":             len(players),
					"current":           current,
					"playerPermissions": perms,
				},
			})
		},
	}
}

func newPlayersUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <player-id>",
		Short: "Act as this player on this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			p, err := st.Player(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := savePlayer(ref, p.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}
}

func newPlayersCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the player this device acts as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			id, err := resolvePlayer(app, ref)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := st.Player(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p, "meta": map[string]any{"room": ref.Label()}})
		},
	}
}

func newPlayersSetRoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <player-id> <GM|PLAYER>",
		Short: "Change a player's role (open panels follow within one poll)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := model.ParseRole(args[1])
			if !ok {
				return writeErr(cmd, fmt.Errorf("%w: %s", store.ErrInvalidRole, args[1]))
			}
			st, _, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.SetRole(cmd.Context(), args[0], r); err != nil {
				return writeErr(cmd, err)
			}
			p, err := st.Player(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}
}

func newPlayersGrantCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "grant [permission...]",
		Short: "Set the permissions granted to every PLAYER (no args revokes all)",
		Long:  "Permissions: UPDATE_ITEM (engage links), CREATE_ITEM, DELETE_ITEM. GMs hold all of them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				if !grantable[strings.ToUpper(strings.TrimSpace(p))] {
					return writeErr(cmd, fmt.Errorf("unknown permission: %s", p))
				}
			}
			st, _, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.SetPlayerPermissions(cmd.Context(), args); err != nil {
				return writeErr(cmd, err)
			}
			perms, err := st.PlayerPermissions(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"playerPermissions": perms}})
		},
	}
}
