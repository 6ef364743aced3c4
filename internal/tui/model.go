package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"scenelinks/internal/linkview"
	"scenelinks/internal/menu"
	"scenelinks/internal/model"
	"scenelinks/internal/mutate"
	"scenelinks/internal/panel"
	"scenelinks/internal/sizing"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of the panel controller the chrome drives.
type Controller interface {
	State() panel.State
	Items() []model.SceneItem
	Offered(ids []string) []menu.Offer
	Invoke(ctx context.Context, commandID string, ids []string) error
	SetActive(ctx context.Context, ids []string, active bool) ([]string, error)
	ToggleOpenInModal() bool
	ObserveList(box sizing.Box)
	OnChange(fn func(panel.State)) func()
}

type stateMsg struct{ st panel.State }

type panelHeightMsg struct{ rows int }

type commandDoneMsg struct {
	label string
	err   error
}

type focus int

const (
	focusScene focus = iota
	focusLinks
)

type modalKind int

const (
	modalNone modalKind = iota
	modalMenu
	modalPrompt
	modalPreview
	modalHelp
)

const (
	headerRows = 1
	footerRows = 1
	// Border, title and hint rows around the link list.
	panelChromeRows = 4
	minSceneRows    = 3
)

type appModel struct {
	ctx  context.Context
	ctrl Controller
	log  *slog.Logger
	room string
	who  string

	states  mailbox[panel.State]
	heights mailbox[int]

	width       int
	height      int
	panelHeight int

	state    panel.State
	scene    list.Model
	picked   map[string]bool
	focus    focus
	linkIdx  int
	lastBox  sizing.Box
	observed bool

	modal     modalKind
	offers    []menu.Offer
	offerIdx  int
	offerIDs  []string
	prompt    *promptMsg
	pending   []promptMsg
	input     textinput.Model
	preview   linkview.LinkItem
	helpBody  string
	status    string
	statusErr bool
}

func newAppModel(ctx context.Context, ctrl Controller, opts Options) appModel {
	m := appModel{
		ctx:         ctx,
		ctrl:        ctrl,
		log:         opts.logger(),
		room:        opts.Room,
		who:         opts.Player,
		states:      newMailbox[panel.State](),
		heights:     newMailbox[int](),
		panelHeight: sizing.DefaultCollapsedHeight,
		scene:       newList(nil),
		picked:      map[string]bool{},
		input:       newURLInput(),
	}
	m.applyState(ctrl.State())
	return m
}

func newURLInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "URL: "
	ti.Placeholder = "https://"
	ti.CharLimit = 2048
	return ti
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.waitState(), m.waitHeight())
}

func (m appModel) waitState() tea.Cmd {
	return m.states.wait(m.ctx.Done(), func(st panel.State) tea.Msg { return stateMsg{st: st} })
}

func (m appModel) waitHeight() tea.Cmd {
	return m.heights.wait(m.ctx.Done(), func(rows int) tea.Msg { return panelHeightMsg{rows: rows} })
}

// applyState replaces what the panes show with st and the controller's
// latest scene snapshot.
func (m *appModel) applyState(st panel.State) {
	m.state = st

	gm := st.Role == model.RoleGM
	cur := ""
	if r, ok := m.scene.SelectedItem().(sceneRow); ok {
		cur = r.item.ID
	}
	present := map[string]bool{}
	rows := []list.Item{}
	sel := 0
	for _, it := range m.ctrl.Items() {
		if !it.Visible && !gm {
			continue
		}
		present[it.ID] = true
		if it.ID == cur {
			sel = len(rows)
		}
		rows = append(rows, sceneRow{item: it, picked: m.picked[it.ID]})
	}
	for id := range m.picked {
		if !present[id] {
			delete(m.picked, id)
		}
	}
	m.scene.SetItems(rows)
	if len(rows) > 0 {
		m.scene.Select(sel)
	}

	if m.linkIdx >= len(st.Links) {
		m.linkIdx = len(st.Links) - 1
	}
	if m.linkIdx < 0 {
		m.linkIdx = 0
	}
	m.observeList()
}

// observeList reports the link list's natural box: one padding row above
// and below the rows.
func (m *appModel) observeList() {
	rows := len(m.state.Links)
	if rows == 0 {
		rows = 1 // placeholder line
	}
	box := sizing.Box{Top: 1, Bottom: 1 + rows}
	if m.observed && box == m.lastBox {
		return
	}
	m.lastBox = box
	m.observed = true
	m.ctrl.ObserveList(box)
}

func (m *appModel) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	sceneRows := m.sceneRows()
	// One row for the scene pane title.
	m.scene.SetSize(m.width, max(sceneRows-1, 1))
}

func (m appModel) panelRows() int {
	if m.height <= 0 {
		return m.panelHeight
	}
	return clamp(m.panelHeight, panelChromeRows+1, m.height-headerRows-footerRows-minSceneRows)
}

func (m appModel) sceneRows() int {
	return max(m.height-headerRows-footerRows-m.panelRows(), 0)
}

func (m appModel) pickedIDs() []string {
	var ids []string
	for _, it := range m.scene.Items() {
		if r, ok := it.(sceneRow); ok && m.picked[r.item.ID] {
			ids = append(ids, r.item.ID)
		}
	}
	return ids
}

// menuSelection is the picked items, or the highlighted one when nothing
// is picked.
func (m appModel) menuSelection() []string {
	if ids := m.pickedIDs(); len(ids) > 0 {
		return ids
	}
	if m.focus == focusLinks {
		if l, ok := m.currentLink(); ok {
			return []string{l.ID}
		}
		return nil
	}
	if r, ok := m.scene.SelectedItem().(sceneRow); ok {
		return []string{r.item.ID}
	}
	return nil
}

func (m appModel) currentLink() (linkview.LinkItem, bool) {
	if m.linkIdx < 0 || m.linkIdx >= len(m.state.Links) {
		return linkview.LinkItem{}, false
	}
	return m.state.Links[m.linkIdx], true
}

func (m *appModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case stateMsg:
		m.applyState(msg.st)
		m.layout()
		return m, m.waitState()

	case panelHeightMsg:
		m.panelHeight = msg.rows
		m.layout()
		return m, m.waitHeight()

	case promptMsg:
		if m.prompt != nil {
			m.pending = append(m.pending, msg)
			return m, nil
		}
		cmd := m.openPrompt(msg)
		return m, cmd

	case commandDoneMsg:
		if msg.err != nil {
			m.log.Warn("command failed", "command", msg.label, "err", msg.err)
			m.setStatus(describeErr(msg.err), true)
		} else {
			m.setStatus(msg.label+": done", false)
		}
		return m, nil

	case urlOpenDoneMsg:
		if msg.err != nil {
			m.setStatus("open: "+msg.err.Error(), true)
		}
		return m, nil

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.focus == focusScene {
			m.focus = focusLinks
		} else {
			m.focus = focusScene
		}
		return m, nil
	case "?":
		m.helpBody = helpMarkdown()
		m.modal = modalHelp
		return m, nil
	case "w":
		if m.ctrl.ToggleOpenInModal() {
			m.setStatus("links open in preview", false)
		} else {
			m.setStatus("links open in browser", false)
		}
		return m, nil
	case "esc":
		m.picked = map[string]bool{}
		m.applyState(m.state)
		return m, nil
	case "m":
		ids := m.menuSelection()
		if len(ids) == 0 {
			m.setStatus(mutate.ErrNoSelection.Error(), true)
			return m, nil
		}
		offers := m.ctrl.Offered(ids)
		if len(offers) == 0 {
			m.setStatus("no commands for this selection", false)
			return m, nil
		}
		m.offers = offers
		m.offerIDs = ids
		m.offerIdx = 0
		m.modal = modalMenu
		return m, nil
	}

	if m.focus == focusLinks {
		return m.updateLinkKeys(msg)
	}

	if msg.String() == " " || msg.String() == "x" {
		if r, ok := m.scene.SelectedItem().(sceneRow); ok {
			if m.picked[r.item.ID] {
				delete(m.picked, r.item.ID)
			} else {
				m.picked[r.item.ID] = true
			}
			m.applyState(m.state)
			m.scene.CursorDown()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.scene, cmd = m.scene.Update(msg)
	return m, cmd
}

func (m appModel) updateLinkKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.state.Links)
	switch msg.String() {
	case "up", "k", "ctrl+p":
		if m.linkIdx > 0 {
			m.linkIdx--
		}
	case "down", "j", "ctrl+n":
		if m.linkIdx < n-1 {
			m.linkIdx++
		}
	case "home", "g":
		m.linkIdx = 0
	case "end", "G":
		m.linkIdx = max(n-1, 0)
	case "enter":
		l, ok := m.currentLink()
		if !ok {
			return m, nil
		}
		if m.state.OpenInModal {
			m.preview = l
			m.modal = modalPreview
			return m, nil
		}
		return m, openURL(l.URL)
	case "a":
		l, ok := m.currentLink()
		if !ok {
			return m, nil
		}
		return m, m.setActive(l.ID, !l.Active)
	}
	return m, nil
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalPrompt:
		switch msg.String() {
		case "enter":
			return m.answerPrompt(mutate.PromptResponse{URL: strings.TrimSpace(m.input.Value())})
		case "esc", "ctrl+g", "ctrl+c":
			return m.answerPrompt(mutate.PromptResponse{Canceled: true})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modalMenu:
		switch msg.String() {
		case "up", "k", "ctrl+p":
			if m.offerIdx > 0 {
				m.offerIdx--
			}
		case "down", "j", "ctrl+n":
			if m.offerIdx < len(m.offers)-1 {
				m.offerIdx++
			}
		case "enter":
			offer := m.offers[m.offerIdx]
			ids := m.offerIDs
			m.modal = modalNone
			m.offers = nil
			m.picked = map[string]bool{}
			m.applyState(m.state)
			return m, m.invoke(offer, ids)
		case "esc", "q", "ctrl+g":
			m.modal = modalNone
			m.offers = nil
		}
		return m, nil

	case modalPreview:
		switch msg.String() {
		case "o":
			m.modal = modalNone
			return m, openURL(m.preview.URL)
		case "esc", "q", "enter":
			m.modal = modalNone
		}
		return m, nil

	case modalHelp:
		switch msg.String() {
		case "esc", "q", "?", "enter":
			m.modal = modalNone
		}
		return m, nil
	}
	return m, nil
}

func (m *appModel) openPrompt(p promptMsg) tea.Cmd {
	m.prompt = &p
	m.modal = modalPrompt
	m.input = newURLInput()
	m.input.SetValue(p.req.Current)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m appModel) answerPrompt(resp mutate.PromptResponse) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		m.prompt.reply <- resp
	}
	m.prompt = nil
	m.modal = modalNone
	m.input.Blur()
	if len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		cmd := m.openPrompt(next)
		return m, cmd
	}
	return m, nil
}

// invoke runs a menu command off the event loop; handlers may prompt.
func (m appModel) invoke(offer menu.Offer, ids []string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return commandDoneMsg{label: offer.Label, err: ctrl.Invoke(ctx, offer.ID, ids)}
	}
}

func (m appModel) setActive(id string, active bool) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	label := "Deactivate Link"
	if active {
		label = "Activate Link"
	}
	return func() tea.Msg {
		_, err := ctrl.SetActive(ctx, []string{id}, active)
		return commandDoneMsg{label: label, err: err}
	}
}

func describeErr(err error) string {
	var np mutate.NotPermittedError
	if errors.As(err, &np) {
		return fmt.Sprintf("%s: not allowed as %s", np.Action, strings.ToLower(string(np.Role)))
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return err.Error()
}
