package screens

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/api"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/presence"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
)

// DefaultReaction is the value sent by the react key.
const DefaultReaction = "+1"

var reactKey = key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "react"))

// Post shows a post thread: the post, its replies in order, and who else is
// reading it. Opening a thread marks it read.
type Post struct {
	deps     *Deps
	rt       route.Route
	space    model.Space
	postID   entity.ID
	replies  []entity.ID
	roster   presence.Roster
	scroll   int
	reacting bool
}

func initPost(d *Deps) screen.InitFunc {
	return func(ctx context.Context, r route.Route, _ screen.InitContext) (screen.Loaded, error) {
		res, err := d.Backend.Post(ctx, r.Space, r.ID)
		if err != nil {
			return screen.Loaded{}, err
		}
		replies := make([]entity.ID, 0, len(res.Post.Replies))
		for _, rp := range res.Post.Replies {
			replies = append(replies, rp.Reply.ID)
		}
		id := res.Post.Post.ID
		return screen.Loaded{
			Delta: append(res.Post.Records(), res.Space),
			Screen: Post{
				deps:    d,
				rt:      r,
				space:   res.Space,
				postID:  id,
				replies: dedupe(replies),
				roster:  presence.NewRoster(postTopic(string(id))),
			},
		}, nil
	}
}

func (s Post) Kind() screen.Kind  { return screen.KindPost }
func (s Post) Route() route.Route { return s.rt }

func (s Post) Title(ctx screen.Context) string {
	if p, ok := s.post(ctx); ok {
		return s.space.Name + " · " + truncate(firstLine(p.Body), 40)
	}
	return s.space.Name
}

func (s Post) Setup(screen.Context) tea.Cmd {
	return tea.Batch(
		s.deps.join(s.roster.Topic()),
		s.deps.mutate(api.MarkPostAsReadMutation, map[string]any{"postId": s.postID}),
	)
}

func (s Post) Teardown(screen.Context) tea.Cmd { return s.deps.leave(s.roster.Topic()) }

func (s Post) Interested(t event.Type) bool {
	switch t {
	case event.TypeReplyCreated, event.TypePostReactionCreated:
		return true
	}
	return false
}

func (s Post) ConsumeEvent(ev event.Event, ctx screen.Context) (screen.Screen, tea.Cmd) {
	switch e := ev.(type) {
	case event.ReplyCreated:
		r := e.Reply.Reply
		if r.PostID != s.postID {
			break
		}
		for _, have := range s.replies {
			if have == r.ID {
				return s, nil
			}
		}
		s.replies = append(append([]entity.ID(nil), s.replies...), r.ID)
	case event.PostReactionCreated:
		if e.Reaction.Reaction.PostID != s.postID {
			break
		}
		if p, ok := s.post(ctx); ok && p.HasReacted {
			s.reacting = false
		}
	}
	return s, nil
}

func (s Post) ReceivePresence(ev presence.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	s.roster = s.roster.Apply(ev)
	return s, nil
}

// Update observes the outcome of the viewer's own reaction.
func (s Post) Update(msg tea.Msg, _ screen.Context) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(MutationDoneMsg); ok && m.Op == api.CreatePostReactionMutation.Name {
		s.reacting = false
	}
	return s, nil
}

func (s Post) ConsumeKey(k keys.Event, _ screen.Context) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(k, listKeys.Up):
		s.scroll = max(s.scroll-1, 0)
	case key.Matches(k, listKeys.Down):
		s.scroll++
	case key.Matches(k, listKeys.Top):
		s.scroll = 0
	case key.Matches(k, markReadKey):
		return s, s.deps.mutate(api.MarkPostAsReadMutation, map[string]any{"postId": s.postID})
	case key.Matches(k, reactKey):
		if s.reacting {
			return s, nil
		}
		s.reacting = true
		return s, s.deps.mutate(api.CreatePostReactionMutation, map[string]any{"postId": s.postID, "value": DefaultReaction})
	}
	return s, nil
}

func (s Post) post(ctx screen.Context) (model.Post, bool) {
	return entity.GetTyped[model.Post](ctx.Repo, entity.KindPost, s.postID)
}

func (s Post) View(ctx screen.Context, width, height int) string {
	st := s.deps.Styles
	p, ok := s.post(ctx)
	if !ok || p.State == model.PostDeleted {
		return page(st, s.space.Name, "post", []string{st.Dim.Render("This post was deleted.")}, width, height)
	}

	var lines []string
	lines = append(lines, presenceLine(st, ctx.Repo, s.roster), "")
	meta := authorName(ctx.Repo, p.AuthorID) + " · " + ctx.Clock.Since(p.PostedAt)
	if p.State == model.PostClosed {
		meta += " · closed"
	}
	lines = append(lines, st.Heading.Render(meta))
	lines = append(lines, wrap(p.Body, width)...)

	reactions := strconv.Itoa(p.ReactionCount) + " reactions"
	if s.reacting {
		reactions += " (sending…)"
	}
	lines = append(lines, st.Dim.Render(reactions), "")

	for _, id := range s.replies {
		r, ok := entity.GetTyped[model.Reply](ctx.Repo, entity.KindReply, id)
		if !ok {
			continue
		}
		head := authorName(ctx.Repo, r.AuthorID) + " · " + ctx.Clock.Since(r.PostedAt)
		if !r.HasViewed {
			head = st.Unread.Render(head)
		} else {
			head = st.Accent.Render(head)
		}
		lines = append(lines, "  "+head)
		if r.IsDeleted {
			lines = append(lines, "  "+st.Dim.Render("[deleted]"))
			continue
		}
		for _, l := range wrap(r.Body, width-2) {
			lines = append(lines, "  "+l)
		}
	}

	avail := max(height-2, 0)
	scroll := min(s.scroll, max(len(lines)-avail, 0))
	return page(st, s.space.Name, "post", lines[scroll:], width, height)
}
