package screens

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
)

// Feed shows the recent posts of a space.
type Feed struct {
	deps  *Deps
	rt    route.Route
	space model.Space
	posts postList
}

func initFeed(d *Deps) screen.InitFunc {
	return func(ctx context.Context, r route.Route, _ screen.InitContext) (screen.Loaded, error) {
		res, err := d.Backend.Feed(ctx, r.Space)
		if err != nil {
			return screen.Loaded{}, err
		}
		spaceID := res.Space.ID
		posts, delta := newPostList(res.Posts, func(p model.Post) bool { return p.SpaceID == spaceID })
		return screen.Loaded{
			Delta:  append(delta, res.Space),
			Screen: Feed{deps: d, rt: r, space: res.Space, posts: posts},
		}, nil
	}
}

func (s Feed) Kind() screen.Kind               { return screen.KindFeed }
func (s Feed) Route() route.Route              { return s.rt }
func (s Feed) Title(screen.Context) string     { return s.space.Name + " · Feed" }
func (s Feed) Setup(screen.Context) tea.Cmd    { return nil }
func (s Feed) Teardown(screen.Context) tea.Cmd { return nil }
func (s Feed) Interested(t event.Type) bool    { return postListInterested(t) }

func (s Feed) ConsumeEvent(ev event.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	s.posts = s.posts.consume(ev)
	return s, nil
}

func (s Feed) ConsumeKey(k keys.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.posts, cmd = s.posts.handleKey(k, s.deps, s.space.Slug)
	return s, cmd
}

func (s Feed) View(ctx screen.Context, width, height int) string {
	return page(s.deps.Styles, s.space.Name, "feed", s.posts.rows(s.deps.Styles, ctx, width, height-2), width, height)
}
