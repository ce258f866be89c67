package theme

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme. Color degradation
// for 256-color and monochrome terminals is left to lipgloss.
type Styles struct {
	Title     lipgloss.Style
	Heading   lipgloss.Style
	Text      lipgloss.Style
	Dim       lipgloss.Style
	Accent    lipgloss.Style
	Selected  lipgloss.Style
	Unread    lipgloss.Style
	Presence  lipgloss.Style
	OK        lipgloss.Style
	Warn      lipgloss.Style
	Error     lipgloss.Style
	StatusBar lipgloss.Style
	Overlay   lipgloss.Style
	HelpKey   lipgloss.Style
	HelpDesc  lipgloss.Style
}

// NewStyles builds the style set for t.
func NewStyles(t Theme) Styles {
	fg := lipgloss.Color(t.Foreground)
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Title)),
		Heading:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Accent)),
		Text:      lipgloss.NewStyle().Foreground(fg),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Dim)),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		Selected:  lipgloss.NewStyle().Bold(true).Reverse(true),
		Unread:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Unread)),
		Presence:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Presence)),
		OK:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.StatusOK)),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.StatusWarn)),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.StatusError)),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Dim)),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
		HelpKey:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.HelpKey)),
		HelpDesc: lipgloss.NewStyle().Foreground(lipgloss.Color(t.HelpDesc)),
	}
}

// Help adapts the styles for a bubbles help.Model.
func (s Styles) Help() help.Styles {
	sep := s.Dim
	return help.Styles{
		Ellipsis:       sep,
		ShortKey:       s.HelpKey,
		ShortDesc:      s.HelpDesc,
		ShortSeparator: sep,
		FullKey:        s.HelpKey,
		FullDesc:       s.HelpDesc,
		FullSeparator:  sep,
	}
}
