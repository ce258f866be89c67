package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"

	"gitlab.com/tinyland/lab/rally/pkg/model"
)

const postFields = `
fragment PostFields on ResolvedPost {
  post { id spaceId authorId groupIds body state inboxState subscriptionState reactionCount hasReacted postedAt lastActivityAt }
  author { id spaceId userId handle firstName lastName role state }
  groups { id spaceId name isPrivate isBookmarked membershipState state }
}`

// Operation documents. Parsed once at start-up so a malformed document
// fails loudly instead of at first use.
var (
	SpacesQuery = MustParse(`query Spaces {
  viewer {
    spaces {
      space { id name slug state avatarUrl }
      spaceUser { id spaceId userId handle firstName lastName role state }
    }
  }
}`)

	InboxQuery = MustParse(`query Inbox($space: String!) {
  space(slug: $space) { id name slug state }
  notifications(space: $space) {
    notification { id topic state event spaceId postId replyId occurredAt }
    post { ...PostFields }
  }
}` + postFields)

	FeedQuery = MustParse(`query Feed($space: String!) {
  space(slug: $space) { id name slug state }
  posts(space: $space) { ...PostFields }
}` + postFields)

	ChannelsQuery = MustParse(`query Channels($space: String!) {
  space(slug: $space) { id name slug state }
  groups(space: $space) { id spaceId name description isPrivate isBookmarked membershipState state }
}`)

	ChannelQuery = MustParse(`query Channel($space: String!, $id: ID!) {
  space(slug: $space) { id name slug state }
  group(space: $space, id: $id) { id spaceId name description isPrivate isBookmarked membershipState state }
  groupPosts(space: $space, id: $id) { ...PostFields }
}` + postFields)

	PostQuery = MustParse(`query Post($space: String!, $id: ID!) {
  space(slug: $space) { id name slug state }
  post(space: $space, id: $id) {
    ...PostFields
    replies {
      reply { id postId spaceId authorId body hasViewed isDeleted reactionCount postedAt }
      author { id spaceId userId handle firstName lastName role state }
    }
  }
}` + postFields)

	NotificationsSinceQuery = MustParse(`query NotificationsSince($since: DateTime!) {
  notificationsSince(since: $since) {
    notification { id topic state event spaceId postId replyId occurredAt }
    post { ...PostFields }
  }
}` + postFields)

	RefreshTokenMutation = MustParse(`mutation RefreshToken($token: String!) {
  refreshToken(token: $token) { token }
}`)

	MarkPostAsReadMutation = MustParse(`mutation MarkPostAsRead($postId: ID!, $clientMutationId: String!) {
  markPostAsRead(postId: $postId, clientMutationId: $clientMutationId) { clientMutationId }
}`)

	CreatePostReactionMutation = MustParse(`mutation CreatePostReaction($postId: ID!, $value: String!, $clientMutationId: String!) {
  createPostReaction(postId: $postId, value: $value, clientMutationId: $clientMutationId) { clientMutationId }
}`)

	BookmarkGroupMutation = MustParse(`mutation BookmarkGroup($groupId: ID!, $bookmarked: Boolean!, $clientMutationId: String!) {
  bookmarkGroup(groupId: $groupId, bookmarked: $bookmarked, clientMutationId: $clientMutationId) { clientMutationId }
}`)

	DismissNotificationsMutation = MustParse(`mutation DismissNotifications($topic: String, $clientMutationId: String!) {
  dismissNotifications(topic: $topic, clientMutationId: $clientMutationId) { clientMutationId }
}`)
)

// SpaceScoped is the part of every space-scoped result that names the space.
type SpaceScoped struct {
	Space *model.Space `json:"space"`
}

func (s SpaceScoped) space(op string) (model.Space, error) {
	if s.Space == nil || s.Space.ID == "" {
		return model.Space{}, fmt.Errorf("%s: space: %w", op, ErrNotFound)
	}
	return *s.Space, nil
}

// Spaces lists the spaces the viewer belongs to.
func (c *Client) Spaces(ctx context.Context) ([]model.ResolvedSpace, error) {
	var out struct {
		Viewer struct {
			Spaces []model.ResolvedSpace `json:"spaces"`
		} `json:"viewer"`
	}
	if err := c.Do(ctx, SpacesQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.Viewer.Spaces, nil
}

// InboxResult is the inbox of one space.
type InboxResult struct {
	Space         model.Space
	Notifications []model.ResolvedNotification
}

// Inbox loads the viewer's notifications in space.
func (c *Client) Inbox(ctx context.Context, space string) (InboxResult, error) {
	var out struct {
		SpaceScoped
		Notifications []model.ResolvedNotification `json:"notifications"`
	}
	if err := c.Do(ctx, InboxQuery, map[string]any{"space": space}, &out); err != nil {
		return InboxResult{}, err
	}
	sp, err := out.space(InboxQuery.Name)
	if err != nil {
		return InboxResult{}, err
	}
	return InboxResult{Space: sp, Notifications: out.Notifications}, nil
}

// FeedResult is the recent posts of one space.
type FeedResult struct {
	Space model.Space
	Posts []model.ResolvedPost
}

// Feed loads the recent posts in space.
func (c *Client) Feed(ctx context.Context, space string) (FeedResult, error) {
	var out struct {
		SpaceScoped
		Posts []model.ResolvedPost `json:"posts"`
	}
	if err := c.Do(ctx, FeedQuery, map[string]any{"space": space}, &out); err != nil {
		return FeedResult{}, err
	}
	sp, err := out.space(FeedQuery.Name)
	if err != nil {
		return FeedResult{}, err
	}
	return FeedResult{Space: sp, Posts: out.Posts}, nil
}

// ChannelsResult is the group list of one space.
type ChannelsResult struct {
	Space  model.Space
	Groups []model.Group
}

// Channels loads the groups in space.
func (c *Client) Channels(ctx context.Context, space string) (ChannelsResult, error) {
	var out struct {
		SpaceScoped
		Groups []model.Group `json:"groups"`
	}
	if err := c.Do(ctx, ChannelsQuery, map[string]any{"space": space}, &out); err != nil {
		return ChannelsResult{}, err
	}
	sp, err := out.space(ChannelsQuery.Name)
	if err != nil {
		return ChannelsResult{}, err
	}
	return ChannelsResult{Space: sp, Groups: out.Groups}, nil
}

// ChannelResult is one group and its posts.
type ChannelResult struct {
	Space model.Space
	Group model.Group
	Posts []model.ResolvedPost
}

// Channel loads group id in space.
func (c *Client) Channel(ctx context.Context, space, id string) (ChannelResult, error) {
	var out struct {
		SpaceScoped
		Group *model.Group         `json:"group"`
		Posts []model.ResolvedPost `json:"groupPosts"`
	}
	if err := c.Do(ctx, ChannelQuery, map[string]any{"space": space, "id": id}, &out); err != nil {
		return ChannelResult{}, err
	}
	sp, err := out.space(ChannelQuery.Name)
	if err != nil {
		return ChannelResult{}, err
	}
	if out.Group == nil {
		return ChannelResult{}, fmt.Errorf("%s: group %s: %w", ChannelQuery.Name, id, ErrNotFound)
	}
	return ChannelResult{Space: sp, Group: *out.Group, Posts: out.Posts}, nil
}

// PostResult is one post thread.
type PostResult struct {
	Space model.Space
	Post  model.ResolvedPost
}

// Post loads post id in space with its replies.
func (c *Client) Post(ctx context.Context, space, id string) (PostResult, error) {
	var out struct {
		SpaceScoped
		Post *model.ResolvedPost `json:"post"`
	}
	if err := c.Do(ctx, PostQuery, map[string]any{"space": space, "id": id}, &out); err != nil {
		return PostResult{}, err
	}
	sp, err := out.space(PostQuery.Name)
	if err != nil {
		return PostResult{}, err
	}
	if out.Post == nil || out.Post.Post.ID == "" {
		return PostResult{}, fmt.Errorf("%s: post %s: %w", PostQuery.Name, id, ErrNotFound)
	}
	return PostResult{Space: sp, Post: *out.Post}, nil
}

// NotificationsSince returns notifications that occurred after since. It is
// the reconnect catch-up request.
func (c *Client) NotificationsSince(ctx context.Context, since time.Time) ([]model.ResolvedNotification, error) {
	var out struct {
		Notifications []model.ResolvedNotification `json:"notificationsSince"`
	}
	vars := map[string]any{"since": since.UTC().Format(time.RFC3339Nano)}
	if err := c.Do(ctx, NotificationsSinceQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// RefreshToken exchanges token for a fresh one. It satisfies
// session.RefreshFunc.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var out struct {
		RefreshToken struct {
			Token string `json:"token"`
		} `json:"refreshToken"`
	}
	if err := c.run(ctx, RefreshTokenMutation, map[string]any{"token": token}, &out, false); err != nil {
		return "", err
	}
	if out.RefreshToken.Token == "" {
		return "", fmt.Errorf("%s: empty token: %w", RefreshTokenMutation.Name, ErrUnauthorized)
	}
	return out.RefreshToken.Token, nil
}

// MutationResult is the outcome of a mutation.
type MutationResult struct {
	ClientID string
	Data     json.RawMessage
}

// Mutate runs a mutation document. Every mutation carries a fresh
// clientMutationId so the echoed realtime event can be matched to it.
func (c *Client) Mutate(ctx context.Context, doc Document, vars map[string]any) (MutationResult, error) {
	if doc.Op != ast.Mutation {
		return MutationResult{}, fmt.Errorf("api: %s is a %s, not a mutation", doc.Name, doc.Op)
	}
	id := uuid.NewString()
	merged := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		merged[k] = v
	}
	merged["clientMutationId"] = id

	var data json.RawMessage
	if err := c.Do(ctx, doc, merged, &data); err != nil {
		return MutationResult{ClientID: id}, err
	}
	return MutationResult{ClientID: id, Data: data}, nil
}
