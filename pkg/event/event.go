// Package event defines the closed set of realtime events pushed by the
// server, their wire decoding, and the fixed mapping from each event to an
// entity repository mutation.
//
// Event is a sealed interface: only types in this package implement it, so a
// type switch over Event is the complete dispatch table.
package event

import (
	"encoding/json"

	"gitlab.com/tinyland/lab/rally/pkg/model"
)

// Type is the wire tag of an event.
type Type string

const (
	TypeSpaceJoined            Type = "SpaceJoined"
	TypeSpaceUpdated           Type = "SpaceUpdated"
	TypeSpaceUserUpdated       Type = "SpaceUserUpdated"
	TypeGroupBookmarked        Type = "GroupBookmarked"
	TypeGroupUnbookmarked      Type = "GroupUnbookmarked"
	TypeGroupMembershipUpdated Type = "GroupMembershipUpdated"
	TypeGroupUpdated           Type = "GroupUpdated"
	TypePostCreated            Type = "PostCreated"
	TypePostUpdated            Type = "PostUpdated"
	TypePostClosed             Type = "PostClosed"
	TypePostReopened           Type = "PostReopened"
	TypePostDeleted            Type = "PostDeleted"
	TypePostsSubscribed        Type = "PostsSubscribed"
	TypePostsUnsubscribed      Type = "PostsUnsubscribed"
	TypePostsMarkedAsUnread    Type = "PostsMarkedAsUnread"
	TypePostsMarkedAsRead      Type = "PostsMarkedAsRead"
	TypePostsDismissed         Type = "PostsDismissed"
	TypeReplyCreated           Type = "ReplyCreated"
	TypeReplyUpdated           Type = "ReplyUpdated"
	TypeReplyDeleted           Type = "ReplyDeleted"
	TypeRepliesViewed          Type = "RepliesViewed"
	TypePostReactionCreated    Type = "PostReactionCreated"
	TypePostReactionDeleted    Type = "PostReactionDeleted"
	TypeReplyReactionCreated   Type = "ReplyReactionCreated"
	TypeReplyReactionDeleted   Type = "ReplyReactionDeleted"
	TypeNotificationCreated    Type = "NotificationCreated"
	TypeNotificationsDismissed Type = "NotificationsDismissed"
	TypeUnknown                Type = "Unknown"
)

// Event is a decoded realtime event.
type Event interface {
	Type() Type
	isEvent()
}

type SpaceJoined struct {
	Space model.ResolvedSpace `json:"space"`
}

type SpaceUpdated struct {
	Space model.Space `json:"space"`
}

type SpaceUserUpdated struct {
	SpaceUser model.SpaceUser `json:"spaceUser"`
}

type GroupBookmarked struct {
	Group model.Group `json:"group"`
}

type GroupUnbookmarked struct {
	Group model.Group `json:"group"`
}

type GroupMembershipUpdated struct {
	Group model.Group `json:"group"`
}

type GroupUpdated struct {
	Group model.Group `json:"group"`
}

type PostCreated struct {
	Post model.ResolvedPost `json:"post"`
}

type PostUpdated struct {
	Post model.ResolvedPost `json:"post"`
}

type PostClosed struct {
	Post model.ResolvedPost `json:"post"`
}

type PostReopened struct {
	Post model.ResolvedPost `json:"post"`
}

// PostDeleted carries the post in its deleted state; the record is kept so
// open threads can render a tombstone.
type PostDeleted struct {
	Post model.ResolvedPost `json:"post"`
}

type PostsSubscribed struct {
	Posts []model.ResolvedPost `json:"posts"`
}

type PostsUnsubscribed struct {
	Posts []model.ResolvedPost `json:"posts"`
}

type PostsMarkedAsUnread struct {
	Posts []model.ResolvedPost `json:"posts"`
}

type PostsMarkedAsRead struct {
	Posts []model.ResolvedPost `json:"posts"`
}

type PostsDismissed struct {
	Posts []model.ResolvedPost `json:"posts"`
}

type ReplyCreated struct {
	Reply model.ResolvedReply `json:"reply"`
}

type ReplyUpdated struct {
	Reply model.ResolvedReply `json:"reply"`
}

type ReplyDeleted struct {
	Reply model.ResolvedReply `json:"reply"`
}

type RepliesViewed struct {
	Replies []model.ResolvedReply `json:"replies"`
}

type PostReactionCreated struct {
	Reaction model.ResolvedPostReaction `json:"reaction"`
}

type PostReactionDeleted struct {
	Reaction model.ResolvedPostReaction `json:"reaction"`
}

type ReplyReactionCreated struct {
	Reaction model.ResolvedReplyReaction `json:"reaction"`
}

type ReplyReactionDeleted struct {
	Reaction model.ResolvedReplyReaction `json:"reaction"`
}

type NotificationCreated struct {
	Notification model.ResolvedNotification `json:"notification"`
}

// NotificationsDismissed removes every notification with Topic, or every
// notification when Topic is nil.
type NotificationsDismissed struct {
	Topic *string `json:"topic"`
}

// Unknown is a frame that could not be decoded into any known event. It is
// never applied and never forwarded.
type Unknown struct {
	Tag Type
	Raw json.RawMessage
	Err error
}

func (SpaceJoined) Type() Type            { return TypeSpaceJoined }
func (SpaceUpdated) Type() Type           { return TypeSpaceUpdated }
func (SpaceUserUpdated) Type() Type       { return TypeSpaceUserUpdated }
func (GroupBookmarked) Type() Type        { return TypeGroupBookmarked }
func (GroupUnbookmarked) Type() Type      { return TypeGroupUnbookmarked }
func (GroupMembershipUpdated) Type() Type { return TypeGroupMembershipUpdated }
func (GroupUpdated) Type() Type           { return TypeGroupUpdated }
func (PostCreated) Type() Type            { return TypePostCreated }
func (PostUpdated) Type() Type            { return TypePostUpdated }
func (PostClosed) Type() Type             { return TypePostClosed }
func (PostReopened) Type() Type           { return TypePostReopened }
func (PostDeleted) Type() Type            { return TypePostDeleted }
func (PostsSubscribed) Type() Type        { return TypePostsSubscribed }
func (PostsUnsubscribed) Type() Type      { return TypePostsUnsubscribed }
func (PostsMarkedAsUnread) Type() Type    { return TypePostsMarkedAsUnread }
func (PostsMarkedAsRead) Type() Type      { return TypePostsMarkedAsRead }
func (PostsDismissed) Type() Type         { return TypePostsDismissed }
func (ReplyCreated) Type() Type           { return TypeReplyCreated }
func (ReplyUpdated) Type() Type           { return TypeReplyUpdated }
func (ReplyDeleted) Type() Type           { return TypeReplyDeleted }
func (RepliesViewed) Type() Type          { return TypeRepliesViewed }
func (PostReactionCreated) Type() Type    { return TypePostReactionCreated }
func (PostReactionDeleted) Type() Type    { return TypePostReactionDeleted }
func (ReplyReactionCreated) Type() Type   { return TypeReplyReactionCreated }
func (ReplyReactionDeleted) Type() Type   { return TypeReplyReactionDeleted }
func (NotificationCreated) Type() Type    { return TypeNotificationCreated }
func (NotificationsDismissed) Type() Type { return TypeNotificationsDismissed }
func (Unknown) Type() Type                { return TypeUnknown }

func (SpaceJoined) isEvent()            {}
func (SpaceUpdated) isEvent()           {}
func (SpaceUserUpdated) isEvent()       {}
func (GroupBookmarked) isEvent()        {}
func (GroupUnbookmarked) isEvent()      {}
func (GroupMembershipUpdated) isEvent() {}
func (GroupUpdated) isEvent()           {}
func (PostCreated) isEvent()            {}
func (PostUpdated) isEvent()            {}
func (PostClosed) isEvent()             {}
func (PostReopened) isEvent()           {}
func (PostDeleted) isEvent()            {}
func (PostsSubscribed) isEvent()        {}
func (PostsUnsubscribed) isEvent()      {}
func (PostsMarkedAsUnread) isEvent()    {}
func (PostsMarkedAsRead) isEvent()      {}
func (PostsDismissed) isEvent()         {}
func (ReplyCreated) isEvent()           {}
func (ReplyUpdated) isEvent()           {}
func (ReplyDeleted) isEvent()           {}
func (RepliesViewed) isEvent()          {}
func (PostReactionCreated) isEvent()    {}
func (PostReactionDeleted) isEvent()    {}
func (ReplyReactionCreated) isEvent()   {}
func (ReplyReactionDeleted) isEvent()   {}
func (NotificationCreated) isEvent()    {}
func (NotificationsDismissed) isEvent() {}
func (Unknown) isEvent()                {}
