package screens

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/api"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
)

var (
	dismissKey    = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss"))
	dismissAllKey = key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "dismiss all"))
)

// Inbox shows the viewer's notifications in one space, newest first.
type Inbox struct {
	deps  *Deps
	rt    route.Route
	space model.Space
	list  list
}

func initInbox(d *Deps) screen.InitFunc {
	return func(ctx context.Context, r route.Route, _ screen.InitContext) (screen.Loaded, error) {
		res, err := d.Backend.Inbox(ctx, r.Space)
		if err != nil {
			return screen.Loaded{}, err
		}
		delta := entity.Batch{res.Space}
		ids := make([]entity.ID, 0, len(res.Notifications))
		for _, n := range res.Notifications {
			delta = append(delta, n.Records()...)
			ids = append(ids, n.Notification.ID)
		}
		return screen.Loaded{Delta: delta, Screen: Inbox{deps: d, rt: r, space: res.Space, list: newList(ids)}}, nil
	}
}

func (s Inbox) Kind() screen.Kind               { return screen.KindInbox }
func (s Inbox) Route() route.Route              { return s.rt }
func (s Inbox) Title(screen.Context) string     { return s.space.Name + " · Inbox" }
func (s Inbox) Setup(screen.Context) tea.Cmd    { return nil }
func (s Inbox) Teardown(screen.Context) tea.Cmd { return nil }

func (s Inbox) Interested(t event.Type) bool {
	return t == event.TypeNotificationCreated || t == event.TypeNotificationsDismissed
}

func (s Inbox) ConsumeEvent(ev event.Event, ctx screen.Context) (screen.Screen, tea.Cmd) {
	switch e := ev.(type) {
	case event.NotificationCreated:
		n := e.Notification.Notification
		if n.SpaceID == s.space.ID {
			s.list = s.list.prepend(n.ID)
		}
	case event.NotificationsDismissed:
		s.list = s.list.keep(func(id entity.ID) bool {
			_, ok := ctx.Repo.Get(entity.KindNotification, id)
			return ok
		})
	}
	return s, nil
}

func (s Inbox) ConsumeKey(k keys.Event, ctx screen.Context) (screen.Screen, tea.Cmd) {
	if l, ok := s.list.handle(k); ok {
		s.list = l
		return s, nil
	}
	if key.Matches(k, dismissAllKey) {
		return s, s.deps.mutate(api.DismissNotificationsMutation, map[string]any{"topic": nil})
	}
	n, ok := s.selected(ctx)
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(k, listKeys.Open):
		if n.PostID != "" {
			return s, nav.Go(route.PostRoute(s.space.Slug, string(n.PostID)))
		}
	case key.Matches(k, dismissKey):
		return s, s.deps.mutate(api.DismissNotificationsMutation, map[string]any{"topic": n.Topic})
	}
	return s, nil
}

func (s Inbox) selected(ctx screen.Context) (model.Notification, bool) {
	id, ok := s.list.selected()
	if !ok {
		return model.Notification{}, false
	}
	return entity.GetTyped[model.Notification](ctx.Repo, entity.KindNotification, id)
}

func (s Inbox) View(ctx screen.Context, width, height int) string {
	st := s.deps.Styles
	body := rows(st, s.list, height-2, width, func(id entity.ID) string {
		n, ok := entity.GetTyped[model.Notification](ctx.Repo, entity.KindNotification, id)
		if !ok {
			return ""
		}
		label := describeNotification(n.Event)
		if n.State == "UNDISMISSED" {
			label = st.Unread.Render(label)
		}
		snippet := ""
		if p, ok := entity.GetTyped[model.Post](ctx.Repo, entity.KindPost, n.PostID); ok {
			snippet = authorName(ctx.Repo, p.AuthorID) + ": " + firstLine(p.Body)
		}
		return columns([]string{st.Dim.Render(ctx.Clock.Since(n.OccurredAt)), label, snippet}, []int{6, 16, 0})
	})
	return page(st, s.space.Name, "inbox", body, width, height)
}

// describeNotification turns an event tag like "REPLY_CREATED" into
// "reply created".
func describeNotification(ev string) string {
	if ev == "" {
		return "activity"
	}
	return strings.ToLower(strings.ReplaceAll(ev, "_", " "))
}
