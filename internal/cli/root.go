package cli

import (
	"fmt"
	"os"
	"strings"

	"scenelinks/internal/format"

	"github.com/spf13/cobra"
)

type App struct {
	Dir      string
	Room     string
	PlayerID string
	Pretty   bool
	Format   string
	LogFile  string
	LogLevel string

	logs logSink
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "scenelinks",
		Short:        "Link panel for a shared tabletop scene",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a room and open the panel
  scenelinks init crypt --gm-name Dana
  scenelinks

  # Scriptable commands
  scenelinks items add --type IMAGE --layer CHARACTER --name Goblin
  scenelinks links toggle item-1a2b3c4d5e6f --url https://example.com/goblin
  scenelinks links list
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive panel.
			if len(args) == 0 {
				return runPanel(cmd, app, false)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.openLog()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.closeLog()
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("SCENELINKS_DIR", ""), "Room directory (advanced: bypasses the room registry; for shared mounts, fixtures and tests)")
	cmd.PersistentFlags().StringVar(&app.Room, "room", envOr("SCENELINKS_ROOM", ""), "Room name (default: currentRoom from config)")
	cmd.PersistentFlags().StringVar(&app.PlayerID, "player", envOr("SCENELINKS_PLAYER", ""), "Player id to act as (default: the player saved for the room)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SCENELINKS_FORMAT", "json"), "Output format (json|edn|yaml|cbor)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("SCENELINKS_LOG", ""), "Append logs to this file (default: no logging)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("SCENELINKS_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newRoomsCmd(app))
	cmd.AddCommand(newPlayersCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newLinksCmd(app))
	cmd.AddCommand(newPanelCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
