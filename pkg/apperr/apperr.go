// Package apperr defines the client's error taxonomy. Every failure that
// reaches the update cycle is resolved into one of four outcomes before it
// can affect the repository or the active screen.
package apperr

import "errors"

// Sentinel errors shared by the api, session and navigation layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrSessionExpired = errors.New("session expired")
	ErrUndecodable    = errors.New("undecodable message")
)

// Kind is the outcome class of an error.
type Kind int

const (
	// Transient covers network and server failures; state is left untouched.
	Transient Kind = iota
	// NotFound renders a not-found placeholder and is never retried.
	NotFound
	// SessionExpired forces re-authentication.
	SessionExpired
	// Undecodable frames are dropped and processing continues.
	Undecodable
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case SessionExpired:
		return "session_expired"
	case Undecodable:
		return "undecodable"
	default:
		return "transient"
	}
}

// Classify maps err onto the taxonomy. Anything unrecognized is Transient.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return Transient
	case errors.Is(err, ErrSessionExpired):
		return SessionExpired
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrUndecodable):
		return Undecodable
	default:
		return Transient
	}
}
