// Package tui is the terminal host chrome for the link panel: a scene pane
// with multi-select, a context menu, URL prompts and the link panel itself,
// whose height follows the panel's own resize requests.
package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"scenelinks/internal/sizing"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Room   string
	Player string
	// Inline renders in the normal screen buffer instead of the alt screen.
	Inline bool
	Log    *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ResizeTarget is the host side of panel sizing: it forwards the panel's
// height requests to the attached chrome.
type ResizeTarget interface {
	SetResizer(r sizing.Resizer)
}

// Run displays the panel until the user quits or ctx ends. prompter must be
// the Prompter the controller was built with.
func Run(ctx context.Context, ctrl Controller, prompter *Prompter, host ResizeTarget, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newAppModel(ctx, ctrl, opts)
	unsubscribe := ctrl.OnChange(m.states.put)
	defer unsubscribe()
	if host != nil {
		host.SetResizer(sizing.ResizerFunc(m.heights.put))
		defer host.SetResizer(nil)
	}

	popts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !opts.Inline {
		popts = append(popts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, popts...)
	if prompter != nil {
		prompter.attach(p.Send)
		defer prompter.attach(nil)
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
