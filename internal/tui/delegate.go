package tui

import (
	"fmt"
	"io"
	"strings"

	"scenelinks/internal/linkmeta"
	"scenelinks/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sceneRow is one scene item in the scene pane.
type sceneRow struct {
	item   model.SceneItem
	picked bool
}

func (r sceneRow) FilterValue() string { return r.item.DisplayName() }

func (r sceneRow) Title() string {
	mark := "[ ]"
	if r.picked {
		mark = "[x]"
	}
	parts := []string{mark, r.item.DisplayName()}
	kind := strings.ToLower(string(r.item.Type))
	if r.item.Layer != "" {
		kind += "/" + strings.ToLower(string(r.item.Layer))
	}
	parts = append(parts, styleMuted().Render(kind))
	if linkmeta.HasKey(&r.item) {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorAccent).Render("↗"))
	}
	if !r.item.Visible {
		parts = append(parts, styleMuted().Render("(hidden)"))
	}
	return strings.Join(parts, " ")
}

type compactItemDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newCompactItemDelegate() compactItemDelegate {
	return compactItemDelegate{
		normal:   lipgloss.NewStyle(),
		selected: styleSelected(),
	}
}

func (d compactItemDelegate) Height() int                             { return 1 }
func (d compactItemDelegate) Spacing() int                            { return 0 }
func (d compactItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d compactItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if m.Width() < 4 {
		return
	}
	style := d.normal
	if index == m.Index() {
		style = d.selected
	}
	txt := ""
	if t, ok := item.(interface{ Title() string }); ok {
		txt = t.Title()
	} else {
		txt = fmt.Sprint(item)
	}
	fmt.Fprint(w, style.Render(fitLine(txt, m.Width())))
}

func newList(items []list.Item) list.Model {
	l := list.New(items, newCompactItemDelegate(), 0, 0)
	// The panel draws its own chrome.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetKeys()
	l.KeyMap.ForceQuit.SetKeys()
	l.KeyMap.ShowFullHelp.SetKeys()
	l.KeyMap.CloseFullHelp.SetKeys()
	up := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	l.KeyMap.CursorUp.SetKeys(append(up, "ctrl+p")...)
	down := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	l.KeyMap.CursorDown.SetKeys(append(down, "ctrl+n")...)
	return l
}
