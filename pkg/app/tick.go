package app

import (
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/clock"
)

// handleTick advances the clock, records contact with an open channel,
// expires the banner and re-arms the tick.
func (m AppModel) handleTick(msg clock.TickMsg) (AppModel, tea.Cmd) {
	m.clock = m.clock.Tick(msg.Time)
	m.monitor.Touch(msg.Time)
	if m.banner.active() && !m.clock.Now().Before(m.banner.until) {
		m.banner = banner{}
	}
	return m, clock.TickCmd(m.cfg.TickInterval)
}

// ResolveZoneCmd reports the viewer's time zone: name when set, otherwise
// $TZ, otherwise the system zone.
func ResolveZoneCmd(name string) tea.Cmd {
	return func() tea.Msg {
		if name == "" {
			name = os.Getenv("TZ")
		}
		if name == "" {
			name = time.Local.String()
		}
		return clock.ZoneResolvedMsg{Name: name}
	}
}
