package screens

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/api"
	"gitlab.com/tinyland/lab/rally/pkg/clock"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/keys"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
	"gitlab.com/tinyland/lab/rally/pkg/presence"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/termtest"
	"gitlab.com/tinyland/lab/rally/pkg/theme"
)

var (
	acme  = model.Space{ID: "s1", Name: "Acme", Slug: "acme"}
	ada   = model.SpaceUser{ID: "u1", SpaceID: "s1", FirstName: "Ada", LastName: "Lovelace"}
	grace = model.SpaceUser{ID: "u2", SpaceID: "s1", Handle: "grace"}
	eng   = model.Group{ID: "g1", SpaceID: "s1", Name: "eng"}
	now   = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func resolvedPost(id entity.ID, groups ...model.Group) model.ResolvedPost {
	p := model.Post{ID: id, SpaceID: acme.ID, AuthorID: ada.ID, Body: "post " + string(id), PostedAt: now, LastActivityAt: now}
	for _, g := range groups {
		p.GroupIDs = append(p.GroupIDs, g.ID)
	}
	return model.ResolvedPost{Post: p, Author: ada, Groups: groups}
}

type mutation struct {
	op   string
	vars map[string]any
}

// fakeBackend serves canned results and records mutations.
type fakeBackend struct {
	mu        sync.Mutex
	spaces    []model.ResolvedSpace
	inbox     api.InboxResult
	feed      api.FeedResult
	channels  api.ChannelsResult
	channel   api.ChannelResult
	post      api.PostResult
	err       error
	mutations []mutation
}

func (f *fakeBackend) Spaces(context.Context) ([]model.ResolvedSpace, error)  { return f.spaces, f.err }
func (f *fakeBackend) Inbox(context.Context, string) (api.InboxResult, error) { return f.inbox, f.err }
func (f *fakeBackend) Feed(context.Context, string) (api.FeedResult, error)   { return f.feed, f.err }

func (f *fakeBackend) Channels(context.Context, string) (api.ChannelsResult, error) {
	return f.channels, f.err
}

func (f *fakeBackend) Channel(context.Context, string, string) (api.ChannelResult, error) {
	return f.channel, f.err
}

func (f *fakeBackend) Post(context.Context, string, string) (api.PostResult, error) {
	return f.post, f.err
}

func (f *fakeBackend) Mutate(_ context.Context, doc api.Document, vars map[string]any) (api.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, mutation{op: doc.Name, vars: vars})
	return api.MutationResult{ClientID: "c1"}, nil
}

type fakePresence struct{ joined, left []string }

func (p *fakePresence) Join(topic string) tea.Cmd {
	return func() tea.Msg {
		p.joined = append(p.joined, topic)
		return nil
	}
}

func (p *fakePresence) Leave(topic string) tea.Cmd {
	return func() tea.Msg {
		p.left = append(p.left, topic)
		return nil
	}
}

type harness struct {
	backend  *fakeBackend
	presence *fakePresence
	deps     *Deps
	repo     *entity.Repository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: &fakeBackend{}, presence: &fakePresence{}, repo: entity.NewRepository()}
	h.deps = &Deps{Backend: h.backend, Presence: h.presence, Styles: theme.NewStyles(theme.Get("default"))}
	return h
}

func (h *harness) ctx(r route.Route) screen.Context {
	return screen.Context{Repo: h.repo, Clock: clock.New(now, nil), Route: r}
}

// load runs the initializer for r and unions its delta like the
// navigation controller does.
func (h *harness) load(t *testing.T, fn screen.InitFunc, r route.Route) screen.Screen {
	t.Helper()
	loaded, err := fn(context.Background(), r, screen.InitContext{})
	if err != nil {
		t.Fatalf("init %s: %v", r.Path(), err)
	}
	h.repo.Union(loaded.Delta)
	return loaded.Screen
}

func (h *harness) apply(s screen.Screen, ev event.Event, r route.Route) screen.Screen {
	event.Mutate(ev, h.repo)
	c, ok := s.(screen.EventConsumer)
	if !ok || !c.Interested(ev.Type()) {
		return s
	}
	next, _ := c.ConsumeEvent(ev, h.ctx(r))
	return next
}

func pressKey(t *testing.T, s screen.Screen, ctx screen.Context, k string) (screen.Screen, []tea.Msg) {
	t.Helper()
	kc, ok := s.(screen.KeyConsumer)
	if !ok {
		t.Fatalf("%s does not consume keys", s.Kind())
	}
	next, cmd := kc.ConsumeKey(keys.Event{Key: k}, ctx)
	return next, termtest.Collect(cmd)
}

func TestRegister(t *testing.T) {
	reg := screen.NewRegistry()
	if err := Register(reg, &Deps{}); err != nil {
		t.Fatal(err)
	}
	if got := len(reg.Kinds()); got != 6 {
		t.Errorf("registered %d routes, want 6", got)
	}
	if err := Register(reg, &Deps{}); err == nil {
		t.Error("registering twice should fail")
	}
}

func TestInitErrorPropagates(t *testing.T) {
	h := newHarness(t)
	h.backend.err = api.ErrNotFound
	_, err := initFeed(h.deps)(context.Background(), route.FeedRoute("nope"), screen.InitContext{})
	if err != api.ErrNotFound {
		t.Errorf("err = %v, want api.ErrNotFound", err)
	}
}

func TestSpacesOpensFeed(t *testing.T) {
	h := newHarness(t)
	h.backend.spaces = []model.ResolvedSpace{{Space: acme, SpaceUser: ada}}
	r := route.SpacesRoute()
	s := h.load(t, initSpaces(h.deps), r)

	if _, ok := h.repo.Get(entity.KindSpaceUser, ada.ID); !ok {
		t.Error("space membership not in delta")
	}
	if v := termtest.CaptureSnapshot("spaces", func(w, hh int) string { return s.View(h.ctx(r), w, hh) }, 40, 10); !v.Contains("Acme") {
		t.Errorf("view missing space name:\n%s", v.Content)
	}

	_, msgs := pressKey(t, s, h.ctx(r), "enter")
	goMsg, ok := termtest.Find[nav.GoMsg](msgs)
	if !ok || goMsg.Route != route.FeedRoute("acme") {
		t.Errorf("enter produced %v, want go to /acme/posts", msgs)
	}
}

func TestSpacesAppendsJoinedSpace(t *testing.T) {
	h := newHarness(t)
	h.backend.spaces = []model.ResolvedSpace{{Space: acme}}
	r := route.SpacesRoute()
	s := h.load(t, initSpaces(h.deps), r)

	other := model.Space{ID: "s2", Name: "Beta", Slug: "beta"}
	s = h.apply(s, event.SpaceJoined{Space: model.ResolvedSpace{Space: other}}, r)
	if got := s.(Spaces).list.Len(); got != 2 {
		t.Errorf("list length = %d, want 2", got)
	}
}

func TestFeedTracksPostsInSpace(t *testing.T) {
	h := newHarness(t)
	h.backend.feed = api.FeedResult{Space: acme, Posts: []model.ResolvedPost{resolvedPost("p1")}}
	r := route.FeedRoute("acme")
	s := h.load(t, initFeed(h.deps), r)

	s = h.apply(s, event.PostCreated{Post: resolvedPost("p2")}, r)
	foreign := resolvedPost("p3")
	foreign.Post.SpaceID = "elsewhere"
	s = h.apply(s, event.PostCreated{Post: foreign}, r)

	feed := s.(Feed)
	if got := feed.posts.list.ids; len(got) != 2 || got[0] != "p2" {
		t.Fatalf("ids = %v, want [p2 p1]", got)
	}
	if id, _ := feed.posts.list.selected(); id != "p1" {
		t.Errorf("cursor moved off p1 to %v", id)
	}

	deleted := resolvedPost("p1")
	deleted.Post.State = model.PostDeleted
	s = h.apply(s, event.PostDeleted{Post: deleted}, r)
	if got := s.(Feed).posts.list.ids; len(got) != 1 || got[0] != "p2" {
		t.Errorf("ids after delete = %v, want [p2]", got)
	}
}

func TestFeedKeys(t *testing.T) {
	h := newHarness(t)
	h.backend.feed = api.FeedResult{Space: acme, Posts: []model.ResolvedPost{resolvedPost("p1"), resolvedPost("p2")}}
	r := route.FeedRoute("acme")
	s := h.load(t, initFeed(h.deps), r)
	ctx := h.ctx(r)

	s, _ = pressKey(t, s, ctx, "j")
	_, msgs := pressKey(t, s, ctx, "enter")
	if goMsg, ok := termtest.Find[nav.GoMsg](msgs); !ok || goMsg.Route != route.PostRoute("acme", "p2") {
		t.Errorf("enter produced %v", msgs)
	}

	_, msgs = pressKey(t, s, ctx, "r")
	done, ok := termtest.Find[MutationDoneMsg](msgs)
	if !ok || done.Op != "MarkPostAsRead" || done.ClientID != "c1" {
		t.Errorf("mark read produced %v", msgs)
	}
	if len(h.backend.mutations) != 1 || h.backend.mutations[0].vars["postId"] != entity.ID("p2") {
		t.Errorf("mutations = %+v", h.backend.mutations)
	}
}

func TestFeedViewFitsAndNamesAuthors(t *testing.T) {
	h := newHarness(t)
	h.backend.feed = api.FeedResult{Space: acme, Posts: []model.ResolvedPost{resolvedPost("p1")}}
	r := route.FeedRoute("acme")
	s := h.load(t, initFeed(h.deps), r)

	snap := termtest.CaptureSnapshot("feed", func(w, hh int) string { return s.View(h.ctx(r), w, hh) }, 50, 8)
	if !snap.Contains("Ada Lovelace") || !snap.Contains("post p1") {
		t.Errorf("view:\n%s", snap.Content)
	}
	if snap.MaxWidth() > 50 || len(snap.Lines()) != 8 {
		t.Errorf("view is %dx%d, want within 50x8", snap.MaxWidth(), len(snap.Lines()))
	}
}

func TestInbox(t *testing.T) {
	h := newHarness(t)
	post := resolvedPost("p1")
	h.backend.inbox = api.InboxResult{Space: acme, Notifications: []model.ResolvedNotification{
		{Notification: model.Notification{ID: "n1", SpaceID: acme.ID, Topic: "post:p1", PostID: "p1", Event: "REPLY_CREATED", OccurredAt: now}, Post: &post},
	}}
	r := route.InboxRoute("acme")
	s := h.load(t, initInbox(h.deps), r)

	created := event.NotificationCreated{Notification: model.ResolvedNotification{
		Notification: model.Notification{ID: "n2", SpaceID: acme.ID, Topic: "post:p9"},
	}}
	s = h.apply(s, created, r)
	if got := s.(Inbox).list.Len(); got != 2 {
		t.Fatalf("list length = %d, want 2", got)
	}

	topic := "post:p9"
	s = h.apply(s, event.NotificationsDismissed{Topic: &topic}, r)
	if got := s.(Inbox).list.ids; len(got) != 1 || got[0] != "n1" {
		t.Fatalf("ids after dismissal = %v, want [n1]", got)
	}

	snap := termtest.CaptureSnapshot("inbox", func(w, hh int) string { return s.View(h.ctx(r), w, hh) }, 60, 6)
	if !snap.Contains("reply created") {
		t.Errorf("view:\n%s", snap.Content)
	}

	_, msgs := pressKey(t, s, h.ctx(r), "enter")
	if goMsg, ok := termtest.Find[nav.GoMsg](msgs); !ok || goMsg.Route != route.PostRoute("acme", "p1") {
		t.Errorf("enter produced %v", msgs)
	}
	pressKey(t, s, h.ctx(r), "d")
	if len(h.backend.mutations) != 1 || h.backend.mutations[0].vars["topic"] != "post:p1" {
		t.Errorf("mutations = %+v", h.backend.mutations)
	}
}

func TestChannelsBookmarkToggles(t *testing.T) {
	h := newHarness(t)
	h.backend.channels = api.ChannelsResult{Space: acme, Groups: []model.Group{eng}}
	r := route.ChannelsRoute("acme")
	s := h.load(t, initChannels(h.deps), r)

	pressKey(t, s, h.ctx(r), "b")
	if len(h.backend.mutations) != 1 || h.backend.mutations[0].vars["bookmarked"] != true {
		t.Fatalf("mutations = %+v", h.backend.mutations)
	}

	bookmarked := eng
	bookmarked.IsBookmarked = true
	s = h.apply(s, event.GroupBookmarked{Group: bookmarked}, r)
	snap := termtest.CaptureSnapshot("channels", func(w, hh int) string { return s.View(h.ctx(r), w, hh) }, 40, 5)
	if !snap.Contains("★") || !snap.Contains("#eng") {
		t.Errorf("view:\n%s", snap.Content)
	}

	_, msgs := pressKey(t, s, h.ctx(r), "enter")
	if goMsg, ok := termtest.Find[nav.GoMsg](msgs); !ok || goMsg.Route != route.ChannelRoute("acme", "g1") {
		t.Errorf("enter produced %v", msgs)
	}
}

func TestChannelPresenceAndPosts(t *testing.T) {
	h := newHarness(t)
	h.backend.channel = api.ChannelResult{Space: acme, Group: eng, Posts: []model.ResolvedPost{resolvedPost("p1", eng)}}
	r := route.ChannelRoute("acme", "g1")
	s := h.load(t, initChannel(h.deps), r)
	h.repo.SetOne(grace)

	termtest.Collect(s.Setup(h.ctx(r)))
	if len(h.presence.joined) != 1 || h.presence.joined[0] != "group:g1" {
		t.Fatalf("joined = %v", h.presence.joined)
	}

	s = h.apply(s, event.PostCreated{Post: resolvedPost("p2")}, r)
	s = h.apply(s, event.PostCreated{Post: resolvedPost("p3", eng)}, r)
	if got := s.(Channel).posts.list.ids; len(got) != 2 || got[0] != "p3" {
		t.Errorf("ids = %v, want [p3 p1]", got)
	}

	for _, ev := range []presence.Event{
		presence.Sync{On: "group:g1", Present: []entity.ID{ada.ID}},
		presence.Join{On: "group:g1", User: grace.ID},
		presence.Join{On: "post:p1", User: "u9"},
	} {
		s, _ = presence.Route(ev, s, h.ctx(r))
	}
	snap := termtest.CaptureSnapshot("channel", func(w, hh int) string { return s.View(h.ctx(r), w, hh) }, 60, 8)
	if !snap.Contains("2 here: Ada Lovelace, @grace") {
		t.Errorf("view:\n%s", snap.Content)
	}

	termtest.Collect(s.Teardown(h.ctx(r)))
	if len(h.presence.left) != 1 || h.presence.left[0] != "group:g1" {
		t.Errorf("left = %v", h.presence.left)
	}
}

func TestPostThread(t *testing.T) {
	h := newHarness(t)
	rp := resolvedPost("p1")
	rp.Replies = []model.ResolvedReply{{Reply: model.Reply{ID: "r1", PostID: "p1", AuthorID: grace.ID, Body: "first!", HasViewed: true}, Author: grace}}
	h.backend.post = api.PostResult{Space: acme, Post: rp}
	r := route.PostRoute("acme", "p1")
	s := h.load(t, initPost(h.deps), r)

	termtest.Collect(s.Setup(h.ctx(r)))
	if len(h.presence.joined) != 1 || h.presence.joined[0] != "post:p1" {
		t.Errorf("joined = %v", h.presence.joined)
	}
	if len(h.backend.mutations) != 1 || h.backend.mutations[0].op != "MarkPostAsRead" {
		t.Errorf("opening a thread should mark it read: %+v", h.backend.mutations)
	}

	reply := model.ResolvedReply{Reply: model.Reply{ID: "r2", PostID: "p1", AuthorID: ada.ID, Body: "second"}, Author: ada}
	s = h.apply(s, event.ReplyCreated{Reply: reply}, r)
	s = h.apply(s, event.ReplyCreated{Reply: reply}, r)
	other := model.ResolvedReply{Reply: model.Reply{ID: "r3", PostID: "p2", Body: "elsewhere"}}
	s = h.apply(s, event.ReplyCreated{Reply: other}, r)
	if got := s.(Post).replies; len(got) != 2 || got[1] != "r2" {
		t.Fatalf("replies = %v, want [r1 r2]", got)
	}

	snap := termtest.CaptureSnapshot("post", func(w, hh int) string { return s.View(h.ctx(r), w, hh) }, 60, 20)
	for _, want := range []string{"post p1", "first!", "second", "@grace"} {
		if !snap.Contains(want) {
			t.Errorf("view missing %q:\n%s", want, snap.Content)
		}
	}
	if title := s.Title(h.ctx(r)); title != "Acme · post p1" {
		t.Errorf("Title() = %q", title)
	}
}

func TestPostReactOnceUntilDone(t *testing.T) {
	h := newHarness(t)
	h.backend.post = api.PostResult{Space: acme, Post: resolvedPost("p1")}
	r := route.PostRoute("acme", "p1")
	s := h.load(t, initPost(h.deps), r)

	s, msgs := pressKey(t, s, h.ctx(r), "+")
	if !s.(Post).reacting {
		t.Fatal("reacting flag not set")
	}
	pressKey(t, s, h.ctx(r), "+")
	if len(h.backend.mutations) != 1 {
		t.Errorf("second press while pending sent %d mutations", len(h.backend.mutations))
	}

	done, _ := termtest.Find[MutationDoneMsg](msgs)
	s, _ = s.(screen.Updater).Update(done, h.ctx(r))
	if s.(Post).reacting {
		t.Error("reacting flag not cleared by completion")
	}
}

func TestPostDeletedTombstone(t *testing.T) {
	h := newHarness(t)
	h.backend.post = api.PostResult{Space: acme, Post: resolvedPost("p1")}
	r := route.PostRoute("acme", "p1")
	s := h.load(t, initPost(h.deps), r)

	gone := resolvedPost("p1")
	gone.Post.State = model.PostDeleted
	s = h.apply(s, event.PostDeleted{Post: gone}, r)

	view := s.View(h.ctx(r), 40, 5)
	if !strings.Contains(view, "deleted") {
		t.Errorf("view = %q", view)
	}
}
