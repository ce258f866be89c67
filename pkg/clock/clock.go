// Package clock holds the process-wide notion of "now". The value is
// refreshed by a fixed-interval tick and when the viewer's time zone is
// resolved, and is passed explicitly to every handler instead of being read
// from a global.
package clock

import (
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is delivered on every clock interval.
type TickMsg struct {
	Time time.Time
}

// ZoneResolvedMsg reports the viewer's IANA time zone name.
type ZoneResolvedMsg struct {
	Name string
}

// Clock is an immutable snapshot of the current time and zone.
type Clock struct {
	now  time.Time
	zone *time.Location
}

// New returns a clock set to now in zone. A nil zone means UTC.
func New(now time.Time, zone *time.Location) Clock {
	if zone == nil {
		zone = time.UTC
	}
	return Clock{now: now, zone: zone}
}

// Now returns the current time in the clock's zone.
func (c Clock) Now() time.Time {
	return c.now.In(c.zone)
}

// Zone returns the clock's location.
func (c Clock) Zone() *time.Location {
	if c.zone == nil {
		return time.UTC
	}
	return c.zone
}

// Tick returns a clock advanced to t.
func (c Clock) Tick(t time.Time) Clock {
	c.now = t
	return c
}

// WithZone returns a clock in the named zone. An unknown name leaves the zone
// unchanged and returns the load error.
func (c Clock) WithZone(name string) (Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return c, err
	}
	c.zone = loc
	return c, nil
}

// TickCmd returns a Cmd that sends a TickMsg after d.
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// Since formats the age of t relative to the clock: "now", "5m", "3h",
// "Jan 2", or "Jan 2 2006" when the year differs.
func (c Clock) Since(t time.Time) string {
	now := c.Now()
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h"
	}
	local := t.In(c.Zone())
	if local.Year() == now.Year() {
		return local.Format("Jan 2")
	}
	return local.Format("Jan 2 2006")
}
