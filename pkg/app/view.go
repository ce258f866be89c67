package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/rally/pkg/connection"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
)

// View renders the page body, the banner when one is showing, and the
// status bar. The help overlay replaces the body while it is open.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	bodyH := m.height - 1
	if bodyH <= 0 {
		return m.renderStatusBar()
	}
	var bannerLine string
	if m.banner.active() && bodyH > 1 {
		bannerLine = m.renderBanner()
		bodyH--
	}

	var body string
	switch {
	case m.router.HelpVisible():
		body = m.renderHelp(m.width, bodyH)
	case m.nav.State() == nav.Active && m.nav.Active() != nil:
		body = m.nav.Active().View(m.screenContext(), m.width, bodyH)
	default:
		body = m.placeholder(m.width, bodyH)
	}

	parts := []string{fit(body, m.width, bodyH)}
	if bannerLine != "" {
		parts = append(parts, bannerLine)
	}
	parts = append(parts, m.renderStatusBar())
	return strings.Join(parts, "\n")
}

func (m AppModel) renderBanner() string {
	style := m.styles.Accent
	if m.banner.level == bannerError {
		style = m.styles.Error
	}
	return style.Render(ansi.Truncate(m.banner.text, m.width, "…"))
}

// renderStatusBar shows the page title on the left and the connection
// state and pending leader on the right, truncated to the width.
func (m AppModel) renderStatusBar() string {
	left := m.title
	var right []string
	if m.router.LeaderActive() {
		right = append(right, m.styles.Accent.Render(m.router.KeyMap().Leader.Help().Key+"-"))
	}
	right = append(right, m.connectionStatus())
	r := strings.Join(right, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(r)
	if gap < 1 {
		left = ansi.Truncate(left, max(m.width-lipgloss.Width(r)-1, 0), "…")
		gap = max(m.width-lipgloss.Width(left)-lipgloss.Width(r), 1)
	}
	line := m.styles.StatusBar.Render(left) + strings.Repeat(" ", gap) + r
	return ansi.Truncate(line, m.width, "")
}

func (m AppModel) connectionStatus() string {
	switch {
	case m.monitor.State() == connection.Open:
		return m.styles.OK.Render("● live")
	case m.monitor.Reconnecting():
		return m.styles.Warn.Render("○ reconnecting…")
	default:
		return m.styles.Dim.Render("○ connecting…")
	}
}

func (m AppModel) renderHelp(width, height int) string {
	box := m.styles.Overlay.Render(m.help.View(m.router.KeyMap()))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// fit pads or cuts s to exactly height lines, each at most width cells.
func fit(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "")
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
