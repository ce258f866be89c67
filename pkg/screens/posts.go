package screens

import (
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
	"gitlab.com/tinyland/lab/rally/pkg/theme"
)

var markReadKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "mark read"))

// postList is the part of the feed and channel pages that tracks a list of
// posts. belongs decides whether a newly created post joins the list.
type postList struct {
	list    list
	belongs func(model.Post) bool
}

func newPostList(posts []model.ResolvedPost, belongs func(model.Post) bool) (postList, entity.Batch) {
	var delta entity.Batch
	ids := make([]entity.ID, 0, len(posts))
	for _, p := range posts {
		delta = append(delta, p.Records()...)
		ids = append(ids, p.Post.ID)
	}
	return postList{list: newList(ids), belongs: belongs}, delta
}

func postListInterested(t event.Type) bool {
	switch t {
	case event.TypePostCreated, event.TypePostDeleted:
		return true
	}
	return false
}

func (pl postList) consume(ev event.Event) postList {
	switch e := ev.(type) {
	case event.PostCreated:
		if pl.belongs(e.Post.Post) {
			pl.list = pl.list.prepend(e.Post.Post.ID)
		}
	case event.PostDeleted:
		pl.list = pl.list.remove(e.Post.Post.ID)
	}
	return pl
}

// handleKey handles movement, open and mark-read.
func (pl postList) handleKey(k keys.Event, d *Deps, space string) (postList, tea.Cmd) {
	if l, ok := pl.list.handle(k); ok {
		pl.list = l
		return pl, nil
	}
	id, ok := pl.list.selected()
	if !ok {
		return pl, nil
	}
	switch {
	case key.Matches(k, listKeys.Open):
		return pl, nav.Go(route.PostRoute(space, string(id)))
	case key.Matches(k, markReadKey):
		return pl, d.mutate(api.MarkPostAsReadMutation, map[string]any{"postId": id})
	}
	return pl, nil
}

func (pl postList) rows(st theme.Styles, ctx screen.Context, width, height int) []string {
	return rows(st, pl.list, height, width, func(id entity.ID) string {
		p, ok := entity.GetTyped[model.Post](ctx.Repo, entity.KindPost, id)
		if !ok || p.State == model.PostDeleted {
			return ""
		}
		name := authorName(ctx.Repo, p.AuthorID)
		if p.InboxState == "UNREAD" {
			name = st.Unread.Render(name)
		}
		body := firstLine(p.Body)
		if p.State == model.PostClosed {
			body = st.Dim.Render("[closed] ") + body
		}
		return columns([]string{st.Dim.Render(ctx.Clock.Since(p.LastActivityAt)), name, body}, []int{6, 18, 0})
	})
}
