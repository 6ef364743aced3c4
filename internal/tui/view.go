package tui

import (
	"fmt"
	"strings"

	"scenelinks/internal/docs"
	"scenelinks/internal/linkview"
	"scenelinks/internal/model"
	"scenelinks/internal/mutate"

	"github.com/charmbracelet/lipgloss"
)

func helpMarkdown() string {
	if body, ok := docs.Get("panel"); ok {
		return body
	}
	return "# The panel\n\nPress `q` to quit."
}

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.modal != modalNone {
		return normalizePane(m.viewModal(), m.width, m.height)
	}

	header := m.viewHeader()
	scene := m.viewScene(m.width, m.sceneRows())
	links := m.viewLinks(m.width, m.panelRows())
	footer := m.viewFooter()
	return normalizePane(strings.Join([]string{header, scene, links, footer}, "\n"), m.width, m.height)
}

func (m appModel) viewHeader() string {
	role := string(m.state.Role)
	if role == "" {
		role = string(model.RolePlayer)
	}
	title := lipgloss.NewStyle().Bold(true).Render("scenelinks")
	meta := styleChrome().Render(fmt.Sprintf("room=%s  player=%s  role=%s", dash(m.room), dash(m.who), role))
	return fitLine(title+"  "+meta, m.width)
}

func (m appModel) viewScene(w, h int) string {
	if h <= 0 {
		return ""
	}
	n := len(m.scene.Items())
	picked := len(m.pickedIDs())
	title := fmt.Sprintf("Scene (%d)", n)
	if picked > 0 {
		title += fmt.Sprintf("  %d selected", picked)
	}
	titleStyle := styleChrome()
	if m.focus == focusScene {
		titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	}
	body := m.scene.View()
	if n == 0 {
		body = styleMuted().Render("  the scene is empty")
	}
	return normalizePane(titleStyle.Render(title)+"\n"+body, w, h)
}

func (m appModel) viewLinks(w, h int) string {
	innerW := max(w-2, 1)
	bodyH := max(h-panelChromeRows, 0)

	mode := "browser"
	if m.state.OpenInModal {
		mode = "preview"
	}
	titleStyle := styleChrome()
	if m.focus == focusLinks {
		titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	}
	title := titleStyle.Render(fmt.Sprintf("Links (%d)", len(m.state.Links))) + styleMuted().Render("  opens in "+mode)

	rows := m.linkRows(innerW, max(bodyH-2, 1))
	body := normalizePane(strings.Join(append(append([]string{""}, rows...), ""), "\n"), innerW, bodyH)

	hint := styleMuted().Render("enter: open  w: preview/browser  a: engage  m: menu")
	content := strings.Join([]string{fitLine(title, innerW), body, fitLine(hint, innerW)}, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(innerW).
		Render(content)
}

// linkRows renders the window of rows that keeps the cursor visible.
func (m appModel) linkRows(w, visible int) []string {
	links := m.state.Links
	if len(links) == 0 {
		return []string{styleMuted().Render("No links yet. Select a token and press m.")}
	}
	top := 0
	if m.linkIdx >= visible {
		top = m.linkIdx - visible + 1
	}
	end := min(top+visible, len(links))
	out := make([]string, 0, end-top)
	for i := top; i < end; i++ {
		line := renderLinkRow(links[i], w)
		if i == m.linkIdx && m.focus == focusLinks {
			line = styleSelected().Render(fitLine(line, w))
		}
		out = append(out, line)
	}
	return out
}

func renderLinkRow(l linkview.LinkItem, w int) string {
	dot := styleMuted().Render("○")
	if l.Active {
		dot = lipgloss.NewStyle().Foreground(colorActive).Render("●")
	}
	name := l.Name
	if strings.TrimSpace(name) == "" {
		name = l.ID
	}
	parts := []string{dot, name, styleMuted().Render(l.URL)}
	if !l.Visible {
		parts = append(parts, styleMuted().Render("(hidden)"))
	}
	return fitLine(strings.Join(parts, " "), w)
}

func (m appModel) viewFooter() string {
	if m.status != "" {
		st := styleChrome()
		if m.statusErr {
			st = lipgloss.NewStyle().Foreground(colorError)
		}
		return fitLine(st.Render(m.status), m.width)
	}
	return fitLine(styleMuted().Render("tab: switch pane  space: select  m: menu  ?: help  q: quit"), m.width)
}

func (m appModel) viewModal() string {
	w := modalWidth(m.width)
	var title, body string
	switch m.modal {
	case modalMenu:
		title = fmt.Sprintf("Commands (%d selected)", len(m.offerIDs))
		lines := make([]string, 0, len(m.offers))
		for i, o := range m.offers {
			line := fitLine(fmt.Sprintf(" %s  %s", o.Icon, o.Label), w-2)
			if i == m.offerIdx {
				line = styleSelected().Render(line)
			}
			lines = append(lines, line)
		}
		body = strings.Join(lines, "\n") + "\n\n" + styleMuted().Render("enter: run  esc: cancel")
	case modalPrompt:
		title = "Link"
		if m.prompt != nil {
			name := m.prompt.req.ItemName
			if name == "" {
				name = m.prompt.req.ItemID
			}
			if m.prompt.req.Kind == mutate.PromptEdit {
				title = "Edit link of " + name
			} else {
				title = "Add link to " + name
			}
		}
		body = renderInputLine(w-2, m.input.View()) + "\n\n" + styleMuted().Render("enter: save  esc: skip")
	case modalPreview:
		title = m.preview.Name
		body = renderMarkdown(previewMarkdown(m.preview), w-2) + "\n\n" + styleMuted().Render("o: open in browser  esc: close")
	case modalHelp:
		title = "Help"
		body = renderMarkdown(m.helpBody, w-2)
	}
	box := renderModalBox(w, title, body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func previewMarkdown(l linkview.LinkItem) string {
	state := "idle"
	if l.Active {
		state = "engaged"
	}
	vis := "visible to everyone"
	if !l.Visible {
		vis = "hidden from players"
	}
	return fmt.Sprintf("# %s\n\n<%s>\n\n- %s\n- %s\n", l.Name, l.URL, state, vis)
}

func modalWidth(screenW int) int {
	return clamp(screenW*2/3, 30, max(screenW-4, 30))
}

func renderModalBox(w int, title, body string) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Render(fitLine(title, w-2))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Width(w-2).
		Render(head + "\n\n" + body)
}

func renderInputLine(w int, inputView string) string {
	// Inputs stay on one visual line inside modals.
	inputView = strings.NewReplacer("\n", " ", "\r", " ").Replace(inputView)
	return lipgloss.PlaceHorizontal(
		w,
		lipgloss.Left,
		fitLine(" "+inputView+" ", w),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
