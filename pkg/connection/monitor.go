// Package connection tracks the state of the single push channel and the
// last time the client heard from it.
package connection

import "time"

// State of the push channel.
type State int

const (
	Unknown State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Monitor is owned by the update cycle and needs no locking.
type Monitor struct {
	state       State
	lastContact time.Time
}

// NewMonitor returns a monitor in the Unknown state with no prior contact.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// State returns the current channel state.
func (m *Monitor) State() State { return m.state }

// LastContact returns the last time the channel was known to be healthy.
// The second result is false before the first contact.
func (m *Monitor) LastContact() (time.Time, bool) {
	return m.lastContact, !m.lastContact.IsZero()
}

// Transition moves the monitor to next at time now. When the move is into
// Open from any other state and a previous contact exists, it returns that
// contact time and true: the caller must issue exactly one catch-up for
// events since then.
func (m *Monitor) Transition(next State, now time.Time) (since time.Time, catchUp bool) {
	prev := m.state
	m.state = next
	if next != Open {
		return time.Time{}, false
	}
	since, had := m.LastContact()
	m.lastContact = now
	if prev == Open || !had {
		return time.Time{}, false
	}
	return since, true
}

// Touch records contact at now. It has no effect unless the channel is Open.
func (m *Monitor) Touch(now time.Time) {
	if m.state == Open && now.After(m.lastContact) {
		m.lastContact = now
	}
}

// Reconnecting reports whether the UI should show a reconnecting indicator.
func (m *Monitor) Reconnecting() bool {
	return m.state == Closed
}
