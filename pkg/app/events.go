// Package app is the root bubbletea model. It owns the repository, the
// connection monitor and the navigation controller, and routes every
// message of the program through one update cycle: realtime frames to the
// dispatcher, keys through the leader router, and page loads through the
// controller.
package app

import "time"

// ErrMsg surfaces a failure in the banner. It never changes state.
type ErrMsg struct {
	Err error
}

// InfoMsg shows a neutral banner line.
type InfoMsg struct {
	Text string
}

type bannerLevel int

const (
	bannerInfo bannerLevel = iota
	bannerError
)

// banner is a one-line message that disappears on the first tick after
// until.
type banner struct {
	text  string
	level bannerLevel
	until time.Time
}

func (b banner) active() bool { return b.text != "" }
