package cli

import (
	"scenelinks/internal/tui"

	"github.com/spf13/cobra"
)

func newPanelCmd(app *App) *cobra.Command {
	var inline bool

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive scene and link panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd, app, inline)
		},
	}

	cmd.Flags().BoolVar(&inline, "inline", false, "Render in the normal screen buffer instead of the alternate screen")
	return cmd
}

func runPanel(cmd *cobra.Command, app *App, inline bool) error {
	prompter := tui.NewPrompter()
	sess, err := openSession(cmd.Context(), app, prompter)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer sess.Close()

	playerName := sess.host.PlayerID()
	if p, err := sess.st.Player(cmd.Context(), playerName); err == nil {
		playerName = p.Name
	}

	err = tui.Run(cmd.Context(), sess.ctrl, prompter, sess.host, tui.Options{
		Room:   sess.ref.Label(),
		Player: playerName,
		Inline: inline,
		Log:    app.logger().With("component", "tui"),
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
