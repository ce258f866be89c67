// Package screens implements the concrete pages of the client: the space
// list, a space's inbox, feed and channel list, a single channel, and a
// post thread. Each page keeps only ids and view state in its own model and
// reads records from the repository when it renders, so realtime updates
// show up without the page doing anything.
package screens

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/api"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/theme"
)

// Backend is the subset of the API client the screens use.
type Backend interface {
	Spaces(ctx context.Context) ([]model.ResolvedSpace, error)
	Inbox(ctx context.Context, space string) (api.InboxResult, error)
	Feed(ctx context.Context, space string) (api.FeedResult, error)
	Channels(ctx context.Context, space string) (api.ChannelsResult, error)
	Channel(ctx context.Context, space, id string) (api.ChannelResult, error)
	Post(ctx context.Context, space, id string) (api.PostResult, error)
	Mutate(ctx context.Context, doc api.Document, vars map[string]any) (api.MutationResult, error)
}

// Presence announces which presence topics the client is watching.
type Presence interface {
	Join(topic string) tea.Cmd
	Leave(topic string) tea.Cmd
}

// Deps is shared by every screen.
type Deps struct {
	Backend         Backend
	Presence        Presence
	Styles          theme.Styles
	Logger          *slog.Logger
	MutationTimeout time.Duration
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func (d *Deps) join(topic string) tea.Cmd {
	if d.Presence == nil {
		return nil
	}
	return d.Presence.Join(topic)
}

func (d *Deps) leave(topic string) tea.Cmd {
	if d.Presence == nil {
		return nil
	}
	return d.Presence.Leave(topic)
}

// Register binds every screen's initializer in reg.
func Register(reg *screen.Registry, d *Deps) error {
	for _, e := range []struct {
		rk   route.Kind
		kind screen.Kind
		fn   screen.InitFunc
	}{
		{route.Spaces, screen.KindSpaces, initSpaces(d)},
		{route.Inbox, screen.KindInbox, initInbox(d)},
		{route.Feed, screen.KindFeed, initFeed(d)},
		{route.Channels, screen.KindChannels, initChannels(d)},
		{route.Channel, screen.KindChannel, initChannel(d)},
		{route.Post, screen.KindPost, initPost(d)},
	} {
		if err := reg.Register(e.rk, e.kind, e.fn); err != nil {
			return fmt.Errorf("screens: %w", err)
		}
	}
	return nil
}

// Presence topics.
func groupTopic(id string) string { return "group:" + id }
func postTopic(id string) string  { return "post:" + id }
