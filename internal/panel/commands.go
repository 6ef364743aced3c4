package panel

import (
	"context"

	"scenelinks/internal/menu"
	"scenelinks/internal/model"
	"scenelinks/internal/perm"
)

const (
	CommandToggleLink     = "toggle-link"
	CommandEditLink       = "edit-link"
	CommandActivateLink   = "activate-link"
	CommandDeactivateLink = "deactivate-link"
)

const tokenLayers = `type == "IMAGE" && layer in ["CHARACTER", "MOUNT", "PROP"]`

func (c *Controller) registerMenu() error {
	gmOnly := []model.Role{model.RoleGM}
	cmds := []struct {
		cmd menu.Command
		run menu.Handler
	}{
		{
			cmd: menu.Command{
				ID: CommandToggleLink,
				Icons: []menu.Icon{
					{Icon: "+", Label: "Add Link", Filter: menu.Filter{Every: `!hasLink`}},
					{Icon: "-", Label: "Remove Link"},
				},
				Filter: menu.Filter{Roles: gmOnly, Every: tokenLayers},
			},
			run: func(ctx context.Context, sel []model.SceneItem) error {
				_, err := c.handlers.Toggle(ctx, sel)
				return err
			},
		},
		{
			cmd: menu.Command{
				ID:     CommandEditLink,
				Icons:  []menu.Icon{{Icon: "~", Label: "Edit Link"}},
				Filter: menu.Filter{Roles: gmOnly, Every: tokenLayers + ` && hasLink`},
			},
			run: func(ctx context.Context, sel []model.SceneItem) error {
				_, err := c.handlers.Edit(ctx, sel)
				return err
			},
		},
		{
			cmd: menu.Command{
				ID:     CommandActivateLink,
				Icons:  []menu.Icon{{Icon: "*", Label: "Activate Link"}},
				Filter: menu.Filter{Permissions: []string{perm.PermUpdateItem}, Every: `isLink`, Some: `!active`},
			},
			run: func(ctx context.Context, sel []model.SceneItem) error {
				_, err := c.handlers.SetActive(ctx, sel, true)
				return err
			},
		},
		{
			cmd: menu.Command{
				ID:     CommandDeactivateLink,
				Icons:  []menu.Icon{{Icon: "o", Label: "Deactivate Link"}},
				Filter: menu.Filter{Permissions: []string{perm.PermUpdateItem}, Every: `isLink`, Some: `active`},
			},
			run: func(ctx context.Context, sel []model.SceneItem) error {
				_, err := c.handlers.SetActive(ctx, sel, false)
				return err
			},
		},
	}
	for _, e := range cmds {
		unregister, err := c.menu.Register(e.cmd, e.run)
		if err != nil {
			return err
		}
		c.addStop(unregister)
	}
	return nil
}
