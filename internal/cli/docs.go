package cli

import (
	"fmt"
	"strings"

	"scenelinks/internal/docs"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool
	var style string
	var width int

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{
					"data":   docs.Topics(),
					"_hints": []string{"scenelinks docs <topic> --raw"},
				})
			}
			body, ok := docs.Get(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown topic: %s (have: %s)", args[0], strings.Join(docs.Topics(), ", ")))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if cmd.Flags().Changed("style") || cmd.Flags().Changed("width") {
				out, err := docs.Render(body, style, width)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"topic": strings.ToLower(strings.TrimSpace(args[0])), "markdown": body},
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source")
	cmd.Flags().StringVar(&style, "style", "dark", "Render with a glamour style (dark|light|notty|ascii)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width when rendering")
	return cmd
}
