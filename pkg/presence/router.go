package presence

import (
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/screen"
)

// Receiver is implemented by the screens that participate in presence.
type Receiver interface {
	screen.Screen
	ReceivePresence(ev Event, ctx screen.Context) (screen.Screen, tea.Cmd)
}

// Route delivers ev to active if it is a Receiver. Every other screen, and
// the absence of one, ignores it.
func Route(ev Event, active screen.Screen, ctx screen.Context) (screen.Screen, tea.Cmd) {
	r, ok := active.(Receiver)
	if !ok {
		return active, nil
	}
	return r.ReceivePresence(ev, ctx)
}
