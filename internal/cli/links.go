package cli

import (
	"strings"
	"time"

	"scenelinks/internal/mutate"
	"scenelinks/internal/publish"

	"github.com/spf13/cobra"
)

func newLinksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List and manage scene links as the current player",
		Long: strings.TrimSpace(`
Every links command runs as the current player through the same panel
controller the TUI uses: players see only links on visible items, and only
GMs may add, remove or edit links.

Without --url, toggle and edit ask for one URL per item on stdin. An empty
line skips the item; end of input skips the rest.
`),
	}
	cmd.AddCommand(newLinksListCmd(app))
	cmd.AddCommand(newLinksToggleCmd(app))
	cmd.AddCommand(newLinksEditCmd(app))
	cmd.AddCommand(newLinksActiveCmd(app, "activate", true))
	cmd.AddCommand(newLinksActiveCmd(app, "deactivate", false))
	cmd.AddCommand(newLinksExportCmd(app))
	return cmd
}

func (app *App) promptFor(cmd *cobra.Command, url string, fixed bool) mutate.Prompter {
	if fixed {
		return mutate.Fixed(url)
	}
	return newLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
}

func newLinksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the link panel as the current player sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), app, mutate.Fixed(""))
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			st := sess.ctrl.State()
			return writeOut(cmd, app, map[string]any{
				"data": st.Links,
				"meta": map[string]any{
					"count":       len(st.Links),
					"role":        st.Role,
					"openInModal": st.OpenInModal,
				},
			})
		},
	}
}

func newLinksToggleCmd(app *App) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "toggle <item-id>...",
		Short: "Add links to unlinked items, or remove links when any item has one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := app.promptFor(cmd, url, cmd.Flags().Changed("url"))
			sess, err := openSession(cmd.Context(), app, prompter)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			res, err := sess.ctrl.Toggle(cmd.Context(), args)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"changed": res.Changed()},
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "URL for every added link (skips prompting)")
	return cmd
}

func newLinksEditCmd(app *App) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "edit <item-id>...",
		Short: "Change the URL of linked items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := app.promptFor(cmd, url, cmd.Flags().Changed("url"))
			sess, err := openSession(cmd.Context(), app, prompter)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			res, err := sess.ctrl.Edit(cmd.Context(), args)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"changed": len(res.Edited) > 0},
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "New URL for every item (skips prompting)")
	return cmd
}

func newLinksActiveCmd(app *App, use string, active bool) *cobra.Command {
	short := "Mark links as engaged"
	if !active {
		short = "Clear the engaged mark on links"
	}
	return &cobra.Command{
		Use:   use + " <item-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), app, mutate.Fixed(""))
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			changed, err := sess.ctrl.SetActive(cmd.Context(), args, active)
			if err != nil {
				return writeErr(cmd, err)
			}
			if changed == nil {
				changed = []string{}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"updated": changed, "active": active},
			})
		},
	}
}

func newLinksExportCmd(app *App) *cobra.Command {
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export --to <dir>",
		Short: "Write the links the current player sees to <dir>/links.md",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), app, mutate.Fixed(""))
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			res, err := publish.WriteHandout(sess.ctrl.State().Links, to, publish.WriteOptions{
				RenderOptions: publish.RenderOptions{Room: sess.ref.Label(), Generated: time.Now()},
				Overwrite:     overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing links.md")
	return cmd
}
