package screens

import (
	"github.com/charmbracelet/bubbles/key"

	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
)

type listKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Open   key.Binding
}

var listKeys = listKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:    key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "top")),
	Bottom: key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "bottom")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
}

// list is an ordered set of ids with a cursor. The cursor follows the
// selected id when rows are inserted above it.
type list struct {
	ids    []entity.ID
	cursor int
}

func newList(ids []entity.ID) list {
	return list{ids: dedupe(ids)}
}

func dedupe(ids []entity.ID) []entity.ID {
	seen := make(map[entity.ID]bool, len(ids))
	out := make([]entity.ID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (l list) Len() int { return len(l.ids) }

func (l list) contains(id entity.ID) bool {
	for _, have := range l.ids {
		if have == id {
			return true
		}
	}
	return false
}

func (l list) selected() (entity.ID, bool) {
	if len(l.ids) == 0 {
		return "", false
	}
	return l.ids[l.cursor], true
}

func (l list) prepend(id entity.ID) list {
	if l.contains(id) {
		return l
	}
	ids := make([]entity.ID, 0, len(l.ids)+1)
	l.ids = append(append(ids, id), l.ids...)
	if len(l.ids) > 1 {
		l.cursor++
	}
	return l
}

func (l list) append(id entity.ID) list {
	if l.contains(id) {
		return l
	}
	ids := make([]entity.ID, len(l.ids), len(l.ids)+1)
	copy(ids, l.ids)
	l.ids = append(ids, id)
	return l
}

// keep drops the ids for which ok returns false. The cursor stays on the
// selected row, or moves to the nearest kept row above it.
func (l list) keep(ok func(entity.ID) bool) list {
	out := make([]entity.ID, 0, len(l.ids))
	cursor := 0
	for i, id := range l.ids {
		if !ok(id) {
			continue
		}
		if i <= l.cursor {
			cursor = len(out)
		}
		out = append(out, id)
	}
	l.ids = out
	l.cursor = cursor
	return l
}

func (l list) remove(id entity.ID) list {
	return l.keep(func(have entity.ID) bool { return have != id })
}

// handle applies a movement key and reports whether it was one.
func (l list) handle(k keys.Event) (list, bool) {
	switch {
	case key.Matches(k, listKeys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(k, listKeys.Down):
		if l.cursor < len(l.ids)-1 {
			l.cursor++
		}
	case key.Matches(k, listKeys.Top):
		l.cursor = 0
	case key.Matches(k, listKeys.Bottom):
		l.cursor = max(len(l.ids)-1, 0)
	default:
		return l, false
	}
	return l, true
}

// window returns the slice bounds of the rows visible in height lines,
// keeping the cursor on screen.
func (l list) window(height int) (start, end int) {
	if height <= 0 || len(l.ids) == 0 {
		return 0, 0
	}
	if len(l.ids) <= height {
		return 0, len(l.ids)
	}
	start = l.cursor - height/2
	start = max(0, min(start, len(l.ids)-height))
	return start, start + height
}
