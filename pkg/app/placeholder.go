package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/rally/pkg/nav"
)

// placeholder renders the body for a controller state that has no screen:
// a spinner while loading, a notice for not found, and blank space before
// the first navigation.
func (m AppModel) placeholder(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	var lines []string
	switch m.nav.State() {
	case nav.Loading:
		lines = append(lines, m.spinner.View()+" "+m.styles.Dim.Render("Loading"))
		if rt, ok := m.nav.Pending(); ok {
			lines = append(lines, m.styles.Dim.Render(rt.Path()))
		}
	case nav.NotFound:
		lines = append(lines, m.styles.Heading.Render("Not found"))
		if p := m.nav.Current().Path(); p != "/" {
			lines = append(lines, m.styles.Dim.Render(p))
		}
		km := m.router.KeyMap()
		hint := "press " + km.Spaces.Help().Key + " for spaces"
		if m.nav.CanGoBack() {
			hint += ", " + km.Back.Help().Key + " to go back"
		}
		lines = append(lines, "", m.styles.Dim.Render(hint))
	default:
		return strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", width)+"\n", height), "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
