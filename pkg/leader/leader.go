// Package leader implements the two-key shortcut layer that sits in front
// of the active screen. A leader press arms the router; the next key either
// resolves to a navigation or is handed to the screen unchanged.
package leader

import (
	"github.com/charmbracelet/bubbles/key"

	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/route"
)

// KeyMap holds the bindings the router recognizes. It satisfies the bubbles
// help.KeyMap interface so the overlay can render it directly.
type KeyMap struct {
	Leader   key.Binding
	Inbox    key.Binding
	Feed     key.Binding
	Channels key.Binding
	Spaces   key.Binding
	Back     key.Binding
	Help     key.Binding
	Escape   key.Binding
}

// DefaultKeyMap returns the stock bindings with g as the leader.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Leader:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to…")),
		Inbox:    key.NewBinding(key.WithKeys("i"), key.WithHelp("g i", "inbox")),
		Feed:     key.NewBinding(key.WithKeys("f"), key.WithHelp("g f", "feed")),
		Channels: key.NewBinding(key.WithKeys("c"), key.WithHelp("g c", "channels")),
		Spaces:   key.NewBinding(key.WithKeys("s"), key.WithHelp("g s", "spaces")),
		Back:     key.NewBinding(key.WithKeys("b"), key.WithHelp("g b", "back")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// WithLeader returns a copy of km using k as the leader key.
func (km KeyMap) WithLeader(k string) KeyMap {
	km.Leader = key.NewBinding(key.WithKeys(k), key.WithHelp(k, "go to…"))
	for _, b := range []*key.Binding{&km.Inbox, &km.Feed, &km.Channels, &km.Spaces, &km.Back} {
		h := b.Help()
		b.SetHelp(k+" "+b.Keys()[0], h.Desc)
	}
	return km
}

// ShortHelp implements help.KeyMap.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Leader, km.Help}
}

// FullHelp implements help.KeyMap.
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Inbox, km.Feed, km.Channels},
		{km.Spaces, km.Back},
		{km.Help, km.Escape},
	}
}

// Outcome is what a key press resolved to. At most one of Navigate, Back
// and Forward is set; all unset means the router consumed the key.
type Outcome struct {
	Navigate *route.Route
	Back     bool
	Forward  *keys.Event
}

type target struct {
	binding    *key.Binding
	needsSpace bool
	back       bool
	route      func(space string) route.Route
}

// Router is a value; Handle returns the next state.
type Router struct {
	keys         KeyMap
	leaderActive bool
	helpVisible  bool
}

// New returns an idle router.
func New(km KeyMap) Router {
	return Router{keys: km}
}

// LeaderActive reports whether the leader key is armed.
func (r Router) LeaderActive() bool { return r.leaderActive }

// HelpVisible reports whether the help overlay is shown.
func (r Router) HelpVisible() bool { return r.helpVisible }

// KeyMap returns the router's bindings.
func (r Router) KeyMap() KeyMap { return r.keys }

func (r Router) targets() []target {
	return []target{
		{binding: &r.keys.Inbox, needsSpace: true, route: route.InboxRoute},
		{binding: &r.keys.Feed, needsSpace: true, route: route.FeedRoute},
		{binding: &r.keys.Channels, needsSpace: true, route: route.ChannelsRoute},
		{binding: &r.keys.Spaces, route: func(string) route.Route { return route.SpacesRoute() }},
		{binding: &r.keys.Back, back: true},
	}
}

// Handle resolves ev. space is the slug of the current space context, or
// empty when there is none.
func (r Router) Handle(ev keys.Event, space string) (Router, Outcome) {
	switch {
	case key.Matches(ev, r.keys.Help):
		r.helpVisible = !r.helpVisible
		r.leaderActive = false
		return r, Outcome{}
	case key.Matches(ev, r.keys.Escape):
		r.helpVisible = false
		r.leaderActive = false
		return r, forward(ev)
	}

	if !r.leaderActive {
		if key.Matches(ev, r.keys.Leader) {
			r.leaderActive = true
			return r, Outcome{}
		}
		return r, forward(ev)
	}

	r.leaderActive = false
	for _, t := range r.targets() {
		if !key.Matches(ev, *t.binding) {
			continue
		}
		switch {
		case t.back:
			return r, Outcome{Back: true}
		case t.needsSpace && space == "":
			return r, forward(ev)
		}
		rt := t.route(space)
		return r, Outcome{Navigate: &rt}
	}
	return r, forward(ev)
}

func forward(ev keys.Event) Outcome {
	return Outcome{Forward: &ev}
}
