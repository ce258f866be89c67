package event

import (
	"encoding/json"
	"fmt"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/model"
)

// ErrUndecodable marks a frame that could not be turned into a known event.
var ErrUndecodable = fmt.Errorf("event: %w", apperr.ErrUndecodable)

// Envelope is the wire shape of a realtime event frame.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type decodeFunc func(json.RawMessage) (Event, error)

// validator is implemented by events whose payload can be well-formed JSON
// and still unusable.
type validator interface {
	validate() error
}

func decodeAs[E Event](raw json.RawMessage) (Event, error) {
	var e E
	if len(raw) == 0 {
		return e, fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, err
	}
	if v, ok := any(e).(validator); ok {
		if err := v.validate(); err != nil {
			return e, err
		}
	}
	return e, nil
}

// Reactions have no server id, so the fields their key is built from must
// all be present.

func validPostReaction(r model.PostReaction) error {
	if r.PostID == "" || r.SpaceUserID == "" || r.Value == "" {
		return fmt.Errorf("post reaction missing postId, spaceUserId or value")
	}
	return nil
}

func validReplyReaction(r model.ReplyReaction) error {
	if r.ReplyID == "" || r.SpaceUserID == "" || r.Value == "" {
		return fmt.Errorf("reply reaction missing replyId, spaceUserId or value")
	}
	return nil
}

func (e PostReactionCreated) validate() error  { return validPostReaction(e.Reaction.Reaction) }
func (e PostReactionDeleted) validate() error  { return validPostReaction(e.Reaction.Reaction) }
func (e ReplyReactionCreated) validate() error { return validReplyReaction(e.Reaction.Reaction) }
func (e ReplyReactionDeleted) validate() error { return validReplyReaction(e.Reaction.Reaction) }

var decoders = map[Type]decodeFunc{
	TypeSpaceJoined:            decodeAs[SpaceJoined],
	TypeSpaceUpdated:           decodeAs[SpaceUpdated],
	TypeSpaceUserUpdated:       decodeAs[SpaceUserUpdated],
	TypeGroupBookmarked:        decodeAs[GroupBookmarked],
	TypeGroupUnbookmarked:      decodeAs[GroupUnbookmarked],
	TypeGroupMembershipUpdated: decodeAs[GroupMembershipUpdated],
	TypeGroupUpdated:           decodeAs[GroupUpdated],
	TypePostCreated:            decodeAs[PostCreated],
	TypePostUpdated:            decodeAs[PostUpdated],
	TypePostClosed:             decodeAs[PostClosed],
	TypePostReopened:           decodeAs[PostReopened],
	TypePostDeleted:            decodeAs[PostDeleted],
	TypePostsSubscribed:        decodeAs[PostsSubscribed],
	TypePostsUnsubscribed:      decodeAs[PostsUnsubscribed],
	TypePostsMarkedAsUnread:    decodeAs[PostsMarkedAsUnread],
	TypePostsMarkedAsRead:      decodeAs[PostsMarkedAsRead],
	TypePostsDismissed:         decodeAs[PostsDismissed],
	TypeReplyCreated:           decodeAs[ReplyCreated],
	TypeReplyUpdated:           decodeAs[ReplyUpdated],
	TypeReplyDeleted:           decodeAs[ReplyDeleted],
	TypeRepliesViewed:          decodeAs[RepliesViewed],
	TypePostReactionCreated:    decodeAs[PostReactionCreated],
	TypePostReactionDeleted:    decodeAs[PostReactionDeleted],
	TypeReplyReactionCreated:   decodeAs[ReplyReactionCreated],
	TypeReplyReactionDeleted:   decodeAs[ReplyReactionDeleted],
	TypeNotificationCreated:    decodeAs[NotificationCreated],
	TypeNotificationsDismissed: decodeAs[NotificationsDismissed],
}

// Decode turns a raw envelope into a typed event. It never fails: anything
// it cannot decode comes back as Unknown with Err wrapping ErrUndecodable.
func Decode(data []byte) Event {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Unknown{Raw: data, Err: fmt.Errorf("%w: envelope: %v", ErrUndecodable, err)}
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope decodes the payload of an already split envelope.
func DecodeEnvelope(env Envelope) Event {
	fn, ok := decoders[env.Type]
	if !ok {
		return Unknown{Tag: env.Type, Raw: env.Payload, Err: fmt.Errorf("%w: unknown type %q", ErrUndecodable, env.Type)}
	}
	ev, err := fn(env.Payload)
	if err != nil {
		return Unknown{Tag: env.Type, Raw: env.Payload, Err: fmt.Errorf("%w: %s: %v", ErrUndecodable, env.Type, err)}
	}
	return ev
}
