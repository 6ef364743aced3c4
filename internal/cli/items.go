package cli

import (
	"fmt"
	"strings"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Place, inspect and remove scene items",
	}
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsRmCmd(app))
	cmd.AddCommand(newItemsVisibilityCmd(app, "hide", false))
	cmd.AddCommand(newItemsVisibilityCmd(app, "reveal", true))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var typ, layer, name, text string
	var hidden, locked bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Place an item on the scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return writeErr(cmd, fmt.Errorf("missing --name"))
			}
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			it := model.SceneItem{
				Type:    model.ItemType(strings.ToUpper(strings.TrimSpace(typ))),
				Layer:   model.Layer(strings.ToUpper(strings.TrimSpace(layer))),
				Name:    name,
				Visible: !hidden,
				Locked:  locked,
			}
			if t := strings.TrimSpace(text); t != "" {
				it.Text = &model.ItemText{PlainText: t}
			}
			// Attribution is best-effort; scripts may add items before choosing a player.
			if id, err := resolvePlayer(app, ref); err == nil {
				it.CreatedBy = id
			}
			it, err = st.AddItem(cmd.Context(), it)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   it,
				"_hints": []string{"scenelinks links toggle " + it.ID + " --url <url>"},
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(model.ItemTypeImage), "Item type (IMAGE|TEXT|SHAPE|LABEL)")
	cmd.Flags().StringVar(&layer, "layer", string(model.LayerCharacter), "Layer (MAP|CHARACTER|MOUNT|PROP|NOTE|DRAWING)")
	cmd.Flags().StringVar(&name, "name", "", "Structural name")
	cmd.Flags().StringVar(&text, "text", "", "Label text shown instead of the name")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Place hidden from players")
	cmd.Flags().BoolVar(&locked, "locked", false, "Place locked")
	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every item on the scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			items, err := st.Items(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			linked := 0
			for i := range items {
				if linkmeta.HasKey(&items[i]) {
					linked++
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": items,
				"meta": map[string]any{"count": len(items), "linked": linked},
			})
		},
	}
}

func newItemsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item with its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			it, err := st.Item(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			md, ok := linkmeta.FromItem(&it)
			var link any
			if ok {
				link = md.Value()
			}
			return writeOut(cmd, app, map[string]any{
				"data": it,
				"meta": map[string]any{"link": link, "listed": ok && it.Type == model.ItemTypeImage},
			})
		},
	}
}

func newItemsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove an item from the scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.DeleteItem(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	}
}

func newItemsVisibilityCmd(app *App, use string, visible bool) *cobra.Command {
	short := "Hide items from players"
	if visible {
		short = "Make hidden items visible to players"
	}
	return &cobra.Command{
		Use:   use + " <item-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			var changed []string
			err = st.UpdateItems(cmd.Context(), args, func(items []*model.SceneItem) {
				for _, it := range items {
					it.Visible = visible
					changed = append(changed, it.ID)
				}
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"updated": changed, "visible": visible},
				"meta": map[string]any{"missing": len(uniq(args)) - len(changed)},
			})
		},
	}
}

func uniq(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
