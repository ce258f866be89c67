package presence

import "gitlab.com/tinyland/lab/rally/pkg/entity"

// Roster is the set of users present on one topic, in arrival order. The
// zero value is empty and ready to use.
type Roster struct {
	topic string
	users []entity.ID
}

// NewRoster returns an empty roster for topic.
func NewRoster(topic string) Roster {
	return Roster{topic: topic}
}

// Apply returns the roster with ev applied. Events for other topics are
// ignored.
func (r Roster) Apply(ev Event) Roster {
	if ev.Topic() != r.topic {
		return r
	}
	switch e := ev.(type) {
	case Sync:
		r.users = nil
		for _, u := range e.Present {
			r = r.add(u)
		}
	case Join:
		r = r.add(e.User)
	case Leave:
		out := make([]entity.ID, 0, len(r.users))
		for _, u := range r.users {
			if u != e.User {
				out = append(out, u)
			}
		}
		r.users = out
	}
	return r
}

func (r Roster) add(u entity.ID) Roster {
	for _, have := range r.users {
		if have == u {
			return r
		}
	}
	users := make([]entity.ID, len(r.users), len(r.users)+1)
	copy(users, r.users)
	r.users = append(users, u)
	return r
}

// Topic returns the roster's topic.
func (r Roster) Topic() string { return r.topic }

// Users returns a copy of the present users.
func (r Roster) Users() []entity.ID {
	out := make([]entity.ID, len(r.users))
	copy(out, r.users)
	return out
}

// Len returns the number of present users.
func (r Roster) Len() int { return len(r.users) }
