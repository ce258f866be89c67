package screens

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/presence"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/theme"
)

// Channel shows the posts of one group and who is looking at it.
type Channel struct {
	deps   *Deps
	rt     route.Route
	space  model.Space
	group  model.Group
	posts  postList
	roster presence.Roster
}

func initChannel(d *Deps) screen.InitFunc {
	return func(ctx context.Context, r route.Route, _ screen.InitContext) (screen.Loaded, error) {
		res, err := d.Backend.Channel(ctx, r.Space, r.ID)
		if err != nil {
			return screen.Loaded{}, err
		}
		groupID := res.Group.ID
		posts, delta := newPostList(res.Posts, func(p model.Post) bool { return p.InGroup(groupID) })
		return screen.Loaded{
			Delta: append(delta, res.Space, res.Group),
			Screen: Channel{
				deps:   d,
				rt:     r,
				space:  res.Space,
				group:  res.Group,
				posts:  posts,
				roster: presence.NewRoster(groupTopic(string(groupID))),
			},
		}, nil
	}
}

func (s Channel) Kind() screen.Kind  { return screen.KindChannel }
func (s Channel) Route() route.Route { return s.rt }

func (s Channel) Title(ctx screen.Context) string {
	return s.space.Name + " · #" + s.currentGroup(ctx).Name
}

func (s Channel) Setup(screen.Context) tea.Cmd    { return s.deps.join(s.roster.Topic()) }
func (s Channel) Teardown(screen.Context) tea.Cmd { return s.deps.leave(s.roster.Topic()) }

func (s Channel) Interested(t event.Type) bool { return postListInterested(t) }

func (s Channel) ConsumeEvent(ev event.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	s.posts = s.posts.consume(ev)
	return s, nil
}

func (s Channel) ReceivePresence(ev presence.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	s.roster = s.roster.Apply(ev)
	return s, nil
}

func (s Channel) ConsumeKey(k keys.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.posts, cmd = s.posts.handleKey(k, s.deps, s.space.Slug)
	return s, cmd
}

// currentGroup prefers the repository copy so renames show up live.
func (s Channel) currentGroup(ctx screen.Context) model.Group {
	if ctx.Repo != nil {
		if g, ok := entity.GetTyped[model.Group](ctx.Repo, entity.KindGroup, s.group.ID); ok {
			return g
		}
	}
	return s.group
}

func (s Channel) View(ctx screen.Context, width, height int) string {
	st := s.deps.Styles
	g := s.currentGroup(ctx)
	body := append([]string{presenceLine(st, ctx.Repo, s.roster)}, s.posts.rows(st, ctx, width, height-3)...)
	return page(st, "#"+g.Name, s.space.Name, body, width, height)
}

// presenceLine renders "3 here: Ada, Grace, Linus".
func presenceLine(st theme.Styles, repo entity.Reader, r presence.Roster) string {
	if r.Len() == 0 {
		return st.Dim.Render("nobody else here")
	}
	users := r.Users()
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = authorName(repo, u)
	}
	return st.Presence.Render("● "+strconv.Itoa(r.Len())+" here:") + " " + strings.Join(names, ", ")
}
