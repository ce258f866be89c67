package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/leader"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
)

// handleKey runs a key through the leader router. Ctrl+C always quits; a
// q quits when the screen has nothing to do for it.
func (m AppModel) handleKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	var out leader.Outcome
	m.router, out = m.router.Handle(keys.FromMsg(msg), m.spaceContext())
	var cmd tea.Cmd
	switch {
	case out.Navigate != nil:
		cmd = m.navigated(m.nav.Navigate(*out.Navigate, m.env()))
	case out.Back:
		cmd = m.navigated(m.nav.Back(m.env()))
	case out.Forward != nil:
		return m.forwardKey(*out.Forward)
	}
	return m, cmd
}

func (m AppModel) forwardKey(ev keys.Event) (AppModel, tea.Cmd) {
	var cmd tea.Cmd
	if c, ok := m.activeScreen().(screen.KeyConsumer); ok {
		var next screen.Screen
		next, cmd = c.ConsumeKey(ev, m.screenContext())
		m.nav.SetActive(next)
	}
	if cmd == nil && ev.Is("q") {
		m.quitting = true
		return m, tea.Quit
	}
	return m, cmd
}

// spaceContext is the space of the page on screen, or of the page being
// loaded when nothing has completed yet.
func (m AppModel) spaceContext() string {
	if s := m.nav.Current().Space; s != "" {
		return s
	}
	if rt, ok := m.nav.Pending(); ok {
		return rt.Space
	}
	return ""
}

// navigated wraps the effects of a navigation call with the loading
// spinner and the window title.
func (m *AppModel) navigated(cmd tea.Cmd) tea.Cmd {
	cmds := []tea.Cmd{cmd, m.retitle()}
	if m.nav.State() == nav.Loading && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// retitle returns a window title update when the title changed.
func (m *AppModel) retitle() tea.Cmd {
	title := "rally"
	if t := m.nav.Title(m.env()); t != "" {
		title = t + " · rally"
	}
	if title == m.title {
		return nil
	}
	m.title = title
	return tea.SetWindowTitle(title)
}
