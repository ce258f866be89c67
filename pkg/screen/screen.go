// Package screen defines the contract between the core runtime and the
// concrete screens. The core only ever sees a Screen plus whichever optional
// capability interfaces it implements; each screen's model stays private.
package screen

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/clock"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/session"
)

// Kind identifies a screen variant.
type Kind int

const (
	KindSpaces Kind = iota + 1
	KindInbox
	KindFeed
	KindChannels
	KindChannel
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindSpaces:
		return "spaces"
	case KindInbox:
		return "inbox"
	case KindFeed:
		return "feed"
	case KindChannels:
		return "channels"
	case KindChannel:
		return "channel"
	case KindPost:
		return "post"
	default:
		return "unknown"
	}
}

// Context is threaded into every handler. Repo is a read-only view; screens
// never mutate the repository directly.
type Context struct {
	Repo    entity.Reader
	Clock   clock.Clock
	Session *session.Session
	Route   route.Route
}

// InitContext is what an initializer may use off the update cycle. It
// deliberately excludes the repository.
type InitContext struct {
	Clock   clock.Clock
	Session *session.Session
}

// Screen is implemented by every screen variant.
type Screen interface {
	Kind() Kind
	Route() route.Route
	Title(ctx Context) string
	// Setup runs once the screen is active.
	Setup(ctx Context) tea.Cmd
	// Teardown runs when the screen is being replaced. Its Cmd is not awaited.
	Teardown(ctx Context) tea.Cmd
	View(ctx Context, width, height int) string
}

// EventConsumer is implemented by screens that react to realtime events.
// ConsumeEvent is only called for types Interested reports true for, and
// always after the repository reflects the event.
type EventConsumer interface {
	Screen
	Interested(t event.Type) bool
	ConsumeEvent(ev event.Event, ctx Context) (Screen, tea.Cmd)
}

// KeyConsumer is implemented by screens that handle keyboard input.
type KeyConsumer interface {
	Screen
	ConsumeKey(k keys.Event, ctx Context) (Screen, tea.Cmd)
}

// Updater is implemented by screens that own asynchronous work (mutations,
// spinners) and need their completion messages back.
type Updater interface {
	Screen
	Update(msg tea.Msg, ctx Context) (Screen, tea.Cmd)
}

// Loaded is the result of a successful initialization: the entities to
// union into the repository, and the screen to activate.
type Loaded struct {
	Delta  entity.Batch
	Screen Screen
}

// Initializer loads a screen for a route. It runs off the update cycle and
// may fail with errors classifiable by apperr.Classify.
type Initializer interface {
	Init(ctx context.Context, r route.Route, ic InitContext) (Loaded, error)
}

// InitFunc adapts a function to Initializer.
type InitFunc func(ctx context.Context, r route.Route, ic InitContext) (Loaded, error)

// Init calls f.
func (f InitFunc) Init(ctx context.Context, r route.Route, ic InitContext) (Loaded, error) {
	return f(ctx, r, ic)
}
