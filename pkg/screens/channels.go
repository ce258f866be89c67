package screens

import (
	"context"

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

var bookmarkKey = key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark"))

// Channels lists the groups of a space.
type Channels struct {
	deps  *Deps
	rt    route.Route
	space model.Space
	list  list
}

func initChannels(d *Deps) screen.InitFunc {
	return func(ctx context.Context, r route.Route, _ screen.InitContext) (screen.Loaded, error) {
		res, err := d.Backend.Channels(ctx, r.Space)
		if err != nil {
			return screen.Loaded{}, err
		}
		delta := entity.Batch{res.Space}
		ids := make([]entity.ID, 0, len(res.Groups))
		for _, g := range res.Groups {
			delta = delta.Add(g)
			ids = append(ids, g.ID)
		}
		return screen.Loaded{Delta: delta, Screen: Channels{deps: d, rt: r, space: res.Space, list: newList(ids)}}, nil
	}
}

func (s Channels) Kind() screen.Kind               { return screen.KindChannels }
func (s Channels) Route() route.Route              { return s.rt }
func (s Channels) Title(screen.Context) string     { return s.space.Name + " · Channels" }
func (s Channels) Setup(screen.Context) tea.Cmd    { return nil }
func (s Channels) Teardown(screen.Context) tea.Cmd { return nil }

func (s Channels) Interested(t event.Type) bool {
	switch t {
	case event.TypeGroupUpdated, event.TypeGroupBookmarked, event.TypeGroupUnbookmarked, event.TypeGroupMembershipUpdated:
		return true
	}
	return false
}

func (s Channels) ConsumeEvent(ev event.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	var g model.Group
	switch e := ev.(type) {
	case event.GroupUpdated:
		g = e.Group
	case event.GroupBookmarked:
		g = e.Group
	case event.GroupUnbookmarked:
		g = e.Group
	case event.GroupMembershipUpdated:
		g = e.Group
	default:
		return s, nil
	}
	if g.SpaceID == s.space.ID {
		s.list = s.list.append(g.ID)
	}
	return s, nil
}

func (s Channels) ConsumeKey(k keys.Event, ctx screen.Context) (screen.Screen, tea.Cmd) {
	if l, ok := s.list.handle(k); ok {
		s.list = l
		return s, nil
	}
	id, ok := s.list.selected()
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(k, listKeys.Open):
		return s, nav.Go(route.ChannelRoute(s.space.Slug, string(id)))
	case key.Matches(k, bookmarkKey):
		g, ok := entity.GetTyped[model.Group](ctx.Repo, entity.KindGroup, id)
		if !ok {
			return s, nil
		}
		return s, s.deps.mutate(api.BookmarkGroupMutation, map[string]any{"groupId": id, "bookmarked": !g.IsBookmarked})
	}
	return s, nil
}

func (s Channels) View(ctx screen.Context, width, height int) string {
	st := s.deps.Styles
	body := rows(st, s.list, height-2, width, func(id entity.ID) string {
		g, ok := entity.GetTyped[model.Group](ctx.Repo, entity.KindGroup, id)
		if !ok {
			return ""
		}
		mark := " "
		if g.IsBookmarked {
			mark = st.Accent.Render("★")
		}
		name := "#" + g.Name
		if g.IsPrivate {
			name += st.Dim.Render(" (private)")
		}
		return mark + " " + columns([]string{name, st.Dim.Render(firstLine(g.Description))}, []int{24, 0})
	})
	return page(st, s.space.Name, "channels", body, width, height)
}
