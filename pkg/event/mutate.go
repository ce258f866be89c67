package event

import (
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/model"
)

// Mutate applies the repository mutation that ev maps to. Every event type
// has exactly one mapping: a union of its resolved sub-graph, a single
// upsert, or a keyed deletion. Unknown is a no-op. It reports whether the
// repository was touched.
func Mutate(ev Event, repo *entity.Repository) bool {
	switch e := ev.(type) {
	case SpaceJoined:
		repo.Union(e.Space.Records())
	case SpaceUpdated:
		repo.SetOne(e.Space)
	case SpaceUserUpdated:
		repo.SetOne(e.SpaceUser)
	case GroupBookmarked:
		repo.SetOne(e.Group)
	case GroupUnbookmarked:
		repo.SetOne(e.Group)
	case GroupMembershipUpdated:
		repo.SetOne(e.Group)
	case GroupUpdated:
		repo.SetOne(e.Group)
	case PostCreated:
		repo.Union(e.Post.Records())
	case PostUpdated:
		repo.Union(e.Post.Records())
	case PostClosed:
		repo.Union(e.Post.Records())
	case PostReopened:
		repo.Union(e.Post.Records())
	case PostDeleted:
		repo.Union(e.Post.Records())
	case PostsSubscribed:
		unionPosts(repo, e.Posts)
	case PostsUnsubscribed:
		unionPosts(repo, e.Posts)
	case PostsMarkedAsUnread:
		unionPosts(repo, e.Posts)
	case PostsMarkedAsRead:
		unionPosts(repo, e.Posts)
	case PostsDismissed:
		unionPosts(repo, e.Posts)
	case ReplyCreated:
		repo.Union(e.Reply.Records())
	case ReplyUpdated:
		repo.Union(e.Reply.Records())
	case ReplyDeleted:
		repo.Union(e.Reply.Records())
	case RepliesViewed:
		for _, r := range e.Replies {
			repo.Union(r.Records())
		}
	case PostReactionCreated:
		repo.SetOne(e.Reaction.Reaction)
		setIfKeyed(repo, e.Reaction.Post)
	case PostReactionDeleted:
		repo.RemoveOne(entity.KindPostReaction, e.Reaction.Reaction.EntityID())
		setIfKeyed(repo, e.Reaction.Post)
	case ReplyReactionCreated:
		repo.SetOne(e.Reaction.Reaction)
		setIfKeyed(repo, e.Reaction.Reply)
	case ReplyReactionDeleted:
		repo.RemoveOne(entity.KindReplyReaction, e.Reaction.Reaction.EntityID())
		setIfKeyed(repo, e.Reaction.Reply)
	case NotificationCreated:
		repo.Union(e.Notification.Records())
	case NotificationsDismissed:
		repo.RemoveWhere(entity.KindNotification, func(r entity.Record) bool {
			if e.Topic == nil {
				return true
			}
			n, ok := r.(model.Notification)
			return ok && n.Topic == *e.Topic
		})
	case Unknown:
		return false
	default:
		return false
	}
	return true
}

func unionPosts(repo *entity.Repository, posts []model.ResolvedPost) {
	for _, p := range posts {
		repo.Union(p.Records())
	}
}

func setIfKeyed(repo *entity.Repository, rec entity.Record) {
	if rec.EntityID() != "" {
		repo.SetOne(rec)
	}
}
