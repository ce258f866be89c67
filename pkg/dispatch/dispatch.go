// Package dispatch applies realtime events to the entity repository and
// forwards them to the active screen, and runs the reconnect catch-up.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/connection"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/session"
)

// Dispatcher is stateless apart from its logger.
type Dispatcher struct {
	logger *slog.Logger
}

// New returns a Dispatcher. A nil logger discards.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{logger: logger}
}

// Apply mutates repo for ev and then, if the active screen asked for ev's
// type, hands the event to it. The screen always observes the repository
// after the mutation. Unknown events are logged and go nowhere.
func (d *Dispatcher) Apply(ev event.Event, repo *entity.Repository, active screen.Screen, ctx screen.Context) (screen.Screen, tea.Cmd) {
	if u, ok := ev.(event.Unknown); ok {
		d.logger.Warn("dispatch: dropping undecodable event", "tag", u.Tag, "error", u.Err, "bytes", len(u.Raw))
		return active, nil
	}

	event.Mutate(ev, repo)

	c, ok := active.(screen.EventConsumer)
	if !ok || !c.Interested(ev.Type()) {
		return active, nil
	}
	d.logger.Debug("dispatch: forwarding", "type", ev.Type(), "screen", c.Kind())
	return c.ConsumeEvent(ev, ctx)
}

// ApplyAll applies events in order, threading the active screen through.
func (d *Dispatcher) ApplyAll(evs []event.Event, repo *entity.Repository, active screen.Screen, ctx screen.Context) (screen.Screen, tea.Cmd) {
	var cmds []tea.Cmd
	for _, ev := range evs {
		var cmd tea.Cmd
		active, cmd = d.Apply(ev, repo, active, ctx)
		cmds = append(cmds, cmd)
	}
	return active, tea.Batch(cmds...)
}

// NotificationSource answers the catch-up query.
type NotificationSource interface {
	NotificationsSince(ctx context.Context, since time.Time) ([]model.ResolvedNotification, error)
}

// CatchUpMsg carries the result of a catch-up request.
type CatchUpMsg struct {
	Since         time.Time
	Notifications []model.ResolvedNotification
	Err           error
}

// CatchUp returns a Cmd that fetches everything that happened after since.
func CatchUp(src NotificationSource, since time.Time, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ns, err := src.NotificationsSince(ctx, since)
		return CatchUpMsg{Since: since, Notifications: ns, Err: err}
	}
}

// OnTransition records a connection state change on mon and returns the
// catch-up Cmd when the change reopens a channel that had been in contact
// before. It returns nil otherwise, so a catch-up is issued at most once per
// reconnect.
func (d *Dispatcher) OnTransition(mon *connection.Monitor, next connection.State, now time.Time, src NotificationSource, timeout time.Duration) tea.Cmd {
	prev := mon.State()
	since, catchUp := mon.Transition(next, now)
	if prev != next {
		d.logger.Info("connection state changed", "from", prev, "to", next)
	}
	if !catchUp || src == nil {
		return nil
	}
	d.logger.Info("dispatch: catching up", "since", since)
	return CatchUp(src, since, timeout)
}

// ApplyCatchUp applies a catch-up result as NotificationCreated events. A
// session-expired failure forces login; any other failure is returned for
// the banner. Neither failure touches the repository.
func (d *Dispatcher) ApplyCatchUp(msg CatchUpMsg, repo *entity.Repository, active screen.Screen, ctx screen.Context) (screen.Screen, tea.Cmd, error) {
	if msg.Err != nil {
		if cmd, ok := ForceLoginIfExpired(msg.Err, ctx.Session); ok {
			d.logger.Info("dispatch: session expired during catch-up")
			return active, cmd, nil
		}
		d.logger.Warn("dispatch: catch-up failed", "since", msg.Since, "error", msg.Err)
		return active, nil, fmt.Errorf("catching up after reconnect: %w", msg.Err)
	}

	evs := make([]event.Event, len(msg.Notifications))
	for i, n := range msg.Notifications {
		evs[i] = event.NotificationCreated{Notification: n}
	}
	d.logger.Debug("dispatch: catch-up applied", "since", msg.Since, "notifications", len(evs))
	next, cmd := d.ApplyAll(evs, repo, active, ctx)
	return next, cmd, nil
}

// ForceLoginIfExpired is used by transport and mutation handlers: if err
// means the session is gone it returns the force-login Cmd.
func ForceLoginIfExpired(err error, s *session.Session) (tea.Cmd, bool) {
	if err == nil || apperr.Classify(err) != apperr.SessionExpired {
		return nil, false
	}
	if s == nil {
		return nil, true
	}
	return s.ForceLogin(err.Error()), true
}
