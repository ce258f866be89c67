// Package route maps URL-style paths to typed routes and back. The mapping
// is pure: Parse(r.Path()) == r for every valid route.
package route

import (
	"net/url"
	"strings"
)

// Kind identifies a route shape.
type Kind int

const (
	Spaces Kind = iota + 1
	Inbox
	Feed
	Channels
	Channel
	Post
)

func (k Kind) String() string {
	switch k {
	case Spaces:
		return "spaces"
	case Inbox:
		return "inbox"
	case Feed:
		return "feed"
	case Channels:
		return "channels"
	case Channel:
		return "channel"
	case Post:
		return "post"
	default:
		return "none"
	}
}

// Route is a typed navigation target. Space is the slug of the space the
// route is scoped to; ID addresses the group or post for detail routes.
type Route struct {
	Kind  Kind
	Space string
	ID    string
}

// HasSpace reports whether the route carries a space context.
func (r Route) HasSpace() bool {
	return r.Space != ""
}

// Path renders the route as a path. The zero Route renders as "/".
func (r Route) Path() string {
	s := url.PathEscape(r.Space)
	id := url.PathEscape(r.ID)
	switch r.Kind {
	case Spaces:
		return "/spaces"
	case Inbox:
		return "/" + s + "/inbox"
	case Feed:
		return "/" + s + "/posts"
	case Channels:
		return "/" + s + "/channels"
	case Channel:
		return "/" + s + "/channels/" + id
	case Post:
		return "/" + s + "/posts/" + id
	default:
		return "/"
	}
}

func (r Route) String() string { return r.Path() }

// Constructors for each route shape.
func SpacesRoute() Route                  { return Route{Kind: Spaces} }
func InboxRoute(space string) Route       { return Route{Kind: Inbox, Space: space} }
func FeedRoute(space string) Route        { return Route{Kind: Feed, Space: space} }
func ChannelsRoute(space string) Route    { return Route{Kind: Channels, Space: space} }
func ChannelRoute(space, id string) Route { return Route{Kind: Channel, Space: space, ID: id} }
func PostRoute(space, id string) Route    { return Route{Kind: Post, Space: space, ID: id} }

// Parse resolves a path. "/" and "/spaces" resolve to the space list; a bare
// "/{space}" resolves to that space's feed. Unknown shapes return false.
func Parse(path string) (Route, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" || path == "spaces" {
		return SpacesRoute(), true
	}

	raw := strings.Split(path, "/")
	parts := make([]string, len(raw))
	for i, p := range raw {
		v, err := url.PathUnescape(p)
		if err != nil || v == "" {
			return Route{}, false
		}
		parts[i] = v
	}

	space := parts[0]
	switch len(parts) {
	case 1:
		return FeedRoute(space), true
	case 2:
		switch parts[1] {
		case "inbox":
			return InboxRoute(space), true
		case "posts":
			return FeedRoute(space), true
		case "channels":
			return ChannelsRoute(space), true
		}
	case 3:
		switch parts[1] {
		case "channels":
			return ChannelRoute(space, parts[2]), true
		case "posts":
			return PostRoute(space, parts[2]), true
		}
	}
	return Route{}, false
}
