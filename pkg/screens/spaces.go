package screens

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
)

// Spaces lists the spaces the viewer belongs to.
type Spaces struct {
	deps *Deps
	rt   route.Route
	list list
}

func initSpaces(d *Deps) screen.InitFunc {
	return func(ctx context.Context, r route.Route, _ screen.InitContext) (screen.Loaded, error) {
		spaces, err := d.Backend.Spaces(ctx)
		if err != nil {
			return screen.Loaded{}, err
		}
		var delta entity.Batch
		ids := make([]entity.ID, 0, len(spaces))
		for _, s := range spaces {
			delta = append(delta, s.Records()...)
			ids = append(ids, s.Space.ID)
		}
		return screen.Loaded{Delta: delta, Screen: Spaces{deps: d, rt: r, list: newList(ids)}}, nil
	}
}

func (s Spaces) Kind() screen.Kind               { return screen.KindSpaces }
func (s Spaces) Route() route.Route              { return s.rt }
func (s Spaces) Title(screen.Context) string     { return "Spaces" }
func (s Spaces) Setup(screen.Context) tea.Cmd    { return nil }
func (s Spaces) Teardown(screen.Context) tea.Cmd { return nil }

func (s Spaces) Interested(t event.Type) bool {
	return t == event.TypeSpaceJoined
}

func (s Spaces) ConsumeEvent(ev event.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	if e, ok := ev.(event.SpaceJoined); ok {
		s.list = s.list.append(e.Space.Space.ID)
	}
	return s, nil
}

func (s Spaces) ConsumeKey(k keys.Event, ctx screen.Context) (screen.Screen, tea.Cmd) {
	if l, ok := s.list.handle(k); ok {
		s.list = l
		return s, nil
	}
	if key.Matches(k, listKeys.Open) {
		id, ok := s.list.selected()
		if !ok {
			return s, nil
		}
		if sp, ok := entity.GetTyped[model.Space](ctx.Repo, entity.KindSpace, id); ok {
			return s, nav.Go(route.FeedRoute(sp.Slug))
		}
	}
	return s, nil
}

func (s Spaces) View(ctx screen.Context, width, height int) string {
	st := s.deps.Styles
	body := rows(st, s.list, height-2, width, func(id entity.ID) string {
		sp, ok := entity.GetTyped[model.Space](ctx.Repo, entity.KindSpace, id)
		if !ok {
			return ""
		}
		return sp.Name + " " + st.Dim.Render(sp.Slug)
	})
	return page(st, "Spaces", "", body, width, height)
}
