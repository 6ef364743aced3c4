package cli

import (
	"scenelinks/internal/store"

	"github.com/spf13/cobra"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the room for unreadable items, malformed links and role problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			report, err := st.Doctor(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := writeOut(cmd, app, map[string]any{
				"data": report,
				"meta": map[string]any{
					"room":      ref.Label(),
					"issues":    len(report.Issues),
					"hasErrors": report.HasErrors(),
				},
			}); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return writeErr(cmd, store.ErrDoctorIssuesFound)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit non-zero when errors are found")
	return cmd
}
