// Package model defines the server-owned records held in the entity
// repository and the resolved sub-graphs carried by queries and realtime
// events.
package model

import (
	"time"

	"gitlab.com/tinyland/lab/rally/pkg/entity"
)

// Space is a top-level collection that every other record belongs to.
type Space struct {
	ID        entity.ID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	State     string    `json:"state"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

func (s Space) EntityKind() entity.Kind { return entity.KindSpace }
func (s Space) EntityID() entity.ID     { return s.ID }

// User is the account behind one or more space users.
type User struct {
	ID        entity.ID `json:"id"`
	Handle    string    `json:"handle"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	TimeZone  string    `json:"timeZone,omitempty"`
}

func (u User) EntityKind() entity.Kind { return entity.KindUser }
func (u User) EntityID() entity.ID     { return u.ID }

// SpaceUser is a user's membership in a space.
type SpaceUser struct {
	ID        entity.ID `json:"id"`
	SpaceID   entity.ID `json:"spaceId"`
	UserID    entity.ID `json:"userId"`
	Handle    string    `json:"handle"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	State     string    `json:"state"`
}

func (u SpaceUser) EntityKind() entity.Kind { return entity.KindSpaceUser }
func (u SpaceUser) EntityID() entity.ID     { return u.ID }

// DisplayName returns "First Last", falling back to the handle.
func (u SpaceUser) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return "@" + u.Handle
	}
}

// Group is a channel inside a space.
type Group struct {
	ID              entity.ID `json:"id"`
	SpaceID         entity.ID `json:"spaceId"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	IsPrivate       bool      `json:"isPrivate"`
	IsBookmarked    bool      `json:"isBookmarked"`
	MembershipState string    `json:"membershipState"`
	State           string    `json:"state"`
}

func (g Group) EntityKind() entity.Kind { return entity.KindGroup }
func (g Group) EntityID() entity.ID     { return g.ID }

// Post states.
const (
	PostOpen    = "OPEN"
	PostClosed  = "CLOSED"
	PostDeleted = "DELETED"
)

// Post is a top-level message in one or more groups.
type Post struct {
	ID                entity.ID   `json:"id"`
	SpaceID           entity.ID   `json:"spaceId"`
	AuthorID          entity.ID   `json:"authorId"`
	GroupIDs          []entity.ID `json:"groupIds"`
	Body              string      `json:"body"`
	State             string      `json:"state"`
	InboxState        string      `json:"inboxState"`
	SubscriptionState string      `json:"subscriptionState"`
	ReactionCount     int         `json:"reactionCount"`
	HasReacted        bool        `json:"hasReacted"`
	PostedAt          time.Time   `json:"postedAt"`
	LastActivityAt    time.Time   `json:"lastActivityAt"`
}

func (p Post) EntityKind() entity.Kind { return entity.KindPost }
func (p Post) EntityID() entity.ID     { return p.ID }

// InGroup reports whether the post was posted to group id.
func (p Post) InGroup(id entity.ID) bool {
	for _, g := range p.GroupIDs {
		if g == id {
			return true
		}
	}
	return false
}

// Reply is a response within a post thread.
type Reply struct {
	ID            entity.ID `json:"id"`
	PostID        entity.ID `json:"postId"`
	SpaceID       entity.ID `json:"spaceId"`
	AuthorID      entity.ID `json:"authorId"`
	Body          string    `json:"body"`
	HasViewed     bool      `json:"hasViewed"`
	IsDeleted     bool      `json:"isDeleted"`
	ReactionCount int       `json:"reactionCount"`
	PostedAt      time.Time `json:"postedAt"`
}

func (r Reply) EntityKind() entity.Kind { return entity.KindReply }
func (r Reply) EntityID() entity.ID     { return r.ID }

// PostReaction is one space user's reaction to a post. It has no server id;
// the key is derived from post, reactor and value.
type PostReaction struct {
	PostID      entity.ID `json:"postId"`
	SpaceUserID entity.ID `json:"spaceUserId"`
	Value       string    `json:"value"`
}

func (r PostReaction) EntityKind() entity.Kind { return entity.KindPostReaction }
func (r PostReaction) EntityID() entity.ID {
	return entity.ID(string(r.PostID) + ":" + string(r.SpaceUserID) + ":" + r.Value)
}

// ReplyReaction is one space user's reaction to a reply.
type ReplyReaction struct {
	ReplyID     entity.ID `json:"replyId"`
	PostID      entity.ID `json:"postId"`
	SpaceUserID entity.ID `json:"spaceUserId"`
	Value       string    `json:"value"`
}

func (r ReplyReaction) EntityKind() entity.Kind { return entity.KindReplyReaction }
func (r ReplyReaction) EntityID() entity.ID {
	return entity.ID(string(r.ReplyID) + ":" + string(r.SpaceUserID) + ":" + r.Value)
}

// Notification is an inbox item. Topic groups notifications that are
// dismissed together (for example every notification about one post).
type Notification struct {
	ID         entity.ID `json:"id"`
	Topic      string    `json:"topic"`
	State      string    `json:"state"`
	Event      string    `json:"event"`
	SpaceID    entity.ID `json:"spaceId,omitempty"`
	PostID     entity.ID `json:"postId,omitempty"`
	ReplyID    entity.ID `json:"replyId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (n Notification) EntityKind() entity.Kind { return entity.KindNotification }
func (n Notification) EntityID() entity.ID     { return n.ID }
