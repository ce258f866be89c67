package model

import "gitlab.com/tinyland/lab/rally/pkg/entity"

// ResolvedReply is a reply plus its author.
type ResolvedReply struct {
	Reply  Reply     `json:"reply"`
	Author SpaceUser `json:"author"`
}

// Records flattens the sub-graph for a repository union.
func (r ResolvedReply) Records() entity.Batch {
	return withIDs(r.Reply, r.Author)
}

// ResolvedPost is a post with its author, groups and loaded replies.
type ResolvedPost struct {
	Post    Post            `json:"post"`
	Author  SpaceUser       `json:"author"`
	Groups  []Group         `json:"groups"`
	Replies []ResolvedReply `json:"replies"`
}

// Records flattens the sub-graph for a repository union.
func (p ResolvedPost) Records() entity.Batch {
	b := withIDs(p.Post, p.Author)
	for _, g := range p.Groups {
		b = append(b, withIDs(g)...)
	}
	for _, r := range p.Replies {
		b = append(b, r.Records()...)
	}
	return b
}

// ResolvedPostReaction is a post reaction plus the post it targets.
type ResolvedPostReaction struct {
	Reaction PostReaction `json:"reaction"`
	Post     Post         `json:"post"`
}

// ResolvedReplyReaction is a reply reaction plus the reply it targets.
type ResolvedReplyReaction struct {
	Reaction ReplyReaction `json:"reaction"`
	Reply    Reply         `json:"reply"`
}

// ResolvedNotification is a notification with the post it concerns, when
// the server included it.
type ResolvedNotification struct {
	Notification Notification  `json:"notification"`
	Post         *ResolvedPost `json:"post,omitempty"`
}

// Records flattens the sub-graph for a repository union.
func (n ResolvedNotification) Records() entity.Batch {
	b := withIDs(n.Notification)
	if n.Post != nil {
		b = append(b, n.Post.Records()...)
	}
	return b
}

// ResolvedSpace is a space plus the viewer's membership in it.
type ResolvedSpace struct {
	Space     Space     `json:"space"`
	SpaceUser SpaceUser `json:"spaceUser"`
}

// Records flattens the sub-graph for a repository union.
func (s ResolvedSpace) Records() entity.Batch {
	return withIDs(s.Space, s.SpaceUser)
}

// withIDs builds a batch from the records that carry a non-empty id, so a
// partially resolved payload never inserts an unkeyed record.
func withIDs(recs ...entity.Record) entity.Batch {
	b := make(entity.Batch, 0, len(recs))
	for _, r := range recs {
		if r.EntityID() != "" {
			b = append(b, r)
		}
	}
	return b
}
