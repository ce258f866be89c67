// Package keys normalizes terminal key messages into a key name plus a
// modifier set.
package keys

import (
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

// Event is a single key press.
type Event struct {
	Key   string
	Alt   bool
	Ctrl  bool
	Shift bool
}

// shifted holds printable runes that require shift on a US layout.
const shifted = `~!@#$%^&*()_+{}|:"<>?`

// FromMsg converts a bubbletea key message.
func FromMsg(msg tea.KeyMsg) Event {
	ev := Event{Alt: msg.Alt}
	if msg.Type == tea.KeyRunes {
		ev.Key = string(msg.Runes)
		if len(msg.Runes) == 1 {
			r := msg.Runes[0]
			ev.Shift = unicode.IsUpper(r) || strings.ContainsRune(shifted, r)
		}
		return ev
	}

	name := tea.Key{Type: msg.Type}.String()
	switch {
	case strings.HasPrefix(name, "ctrl+"):
		ev.Ctrl = true
		name = strings.TrimPrefix(name, "ctrl+")
	case strings.HasPrefix(name, "shift+"):
		ev.Shift = true
		name = strings.TrimPrefix(name, "shift+")
	}
	ev.Key = name
	return ev
}

// Is reports whether e is key with neither ctrl nor alt held.
func (e Event) Is(key string) bool {
	return e.Key == key && !e.Alt && !e.Ctrl
}

// String renders the event the way bubbletea names keys, e.g. "ctrl+c",
// "alt+x", "?".
func (e Event) String() string {
	var b strings.Builder
	if e.Ctrl {
		b.WriteString("ctrl+")
	}
	if e.Alt {
		b.WriteString("alt+")
	}
	if e.Shift && len([]rune(e.Key)) > 1 {
		b.WriteString("shift+")
	}
	b.WriteString(e.Key)
	return b.String()
}
