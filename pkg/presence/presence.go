// Package presence carries ephemeral online/membership deltas from the push
// channel to the active screen. Presence never touches the entity
// repository.
package presence

import (
	"encoding/json"
	"fmt"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
)

// Frame types on the push channel that carry presence.
const (
	FrameState = "presence_state"
	FrameDiff  = "presence_diff"
)

// IsFrame reports whether a push frame type carries presence.
func IsFrame(t string) bool {
	return t == FrameState || t == FrameDiff
}

// Event is a presence delta for one topic.
type Event interface {
	Topic() string
	isPresence()
}

// Sync replaces the full set of present users on a topic.
type Sync struct {
	On      string      `json:"topic"`
	Present []entity.ID `json:"present"`
}

// Join reports one user arriving on a topic.
type Join struct {
	On   string
	User entity.ID
}

// Leave reports one user leaving a topic.
type Leave struct {
	On   string
	User entity.ID
}

func (e Sync) Topic() string  { return e.On }
func (e Join) Topic() string  { return e.On }
func (e Leave) Topic() string { return e.On }

func (Sync) isPresence()  {}
func (Join) isPresence()  {}
func (Leave) isPresence() {}

type diff struct {
	Topic  string      `json:"topic"`
	Joins  []entity.ID `json:"joins"`
	Leaves []entity.ID `json:"leaves"`
}

// Decode turns a presence frame payload into events. A diff expands to its
// leaves followed by its joins, so a user who reconnects within one diff
// ends up present.
func Decode(frameType string, payload json.RawMessage) ([]Event, error) {
	switch frameType {
	case FrameState:
		var s Sync
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("presence: %w: %v", apperr.ErrUndecodable, err)
		}
		return []Event{s}, nil
	case FrameDiff:
		var d diff
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("presence: %w: %v", apperr.ErrUndecodable, err)
		}
		evs := make([]Event, 0, len(d.Joins)+len(d.Leaves))
		for _, u := range d.Leaves {
			evs = append(evs, Leave{On: d.Topic, User: u})
		}
		for _, u := range d.Joins {
			evs = append(evs, Join{On: d.Topic, User: u})
		}
		return evs, nil
	default:
		return nil, fmt.Errorf("presence: %w: frame type %q", apperr.ErrUndecodable, frameType)
	}
}
