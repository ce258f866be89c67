// Package nav is the navigation controller: a state machine over the active
// screen. A route change tears down the outgoing screen, initializes the
// incoming one off the update cycle, and swaps it in when the
// initialization completes, unless a newer navigation has started since.
package nav

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/clock"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/route"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/session"
)

// State of the controller.
type State int

const (
	Blank State = iota
	Loading
	Active
	NotFound
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Active:
		return "active"
	case NotFound:
		return "not_found"
	default:
		return "blank"
	}
}

// RequestMsg asks for navigation to a path.
type RequestMsg struct {
	Path string
}

// GoMsg asks for navigation to a typed route.
type GoMsg struct {
	Route route.Route
}

// Go returns a Cmd requesting navigation to r.
func Go(r route.Route) tea.Cmd {
	return func() tea.Msg { return GoMsg{Route: r} }
}

// BackMsg asks for the previous completed route.
type BackMsg struct{}

// LoadedMsg is the completion of a screen initialization. Gen ties it to
// the navigation that started it.
type LoadedMsg struct {
	Gen    uint64
	Route  route.Route
	Loaded screen.Loaded
	Err    error
}

// Env is the state the controller reads and writes on each call. It is
// owned by the update cycle.
type Env struct {
	Repo    *entity.Repository
	Clock   clock.Clock
	Session *session.Session
}

func (e Env) screenContext(r route.Route) screen.Context {
	return screen.Context{Repo: e.Repo, Clock: e.Clock, Session: e.Session, Route: r}
}

// Controller owns the active screen reference.
type Controller struct {
	registry    *screen.Registry
	initTimeout time.Duration
	logger      *slog.Logger

	gen           uint64
	state         State
	active        screen.Screen
	tornDown      bool
	current       route.Route
	pending       route.Route
	pendingBack   bool
	transitioning bool
	history       []route.Route
	maxHistory    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitTimeout bounds each screen initialization.
func WithInitTimeout(d time.Duration) Option {
	return func(c *Controller) { c.initTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithHistory caps the back stack.
func WithHistory(n int) Option {
	return func(c *Controller) { c.maxHistory = n }
}

// New returns a Blank controller.
func New(reg *screen.Registry, opts ...Option) *Controller {
	c := &Controller{
		registry:    reg,
		initTimeout: 20 * time.Second,
		logger:      slog.New(slog.DiscardHandler),
		maxHistory:  50,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Active returns the active screen. While Loading it is the outgoing screen,
// already torn down; it is nil when Blank or NotFound.
func (c *Controller) Active() screen.Screen { return c.active }

// SetActive replaces the active screen after the screen handled a message.
// A nil screen is ignored.
func (c *Controller) SetActive(s screen.Screen) {
	if s != nil && c.active != nil {
		c.active = s
	}
}

// IsTransitioning reports whether an initialization is in flight.
func (c *Controller) IsTransitioning() bool { return c.transitioning }

// Current returns the route of the last completed navigation.
func (c *Controller) Current() route.Route { return c.current }

// Pending returns the route being loaded, if transitioning.
func (c *Controller) Pending() (route.Route, bool) { return c.pending, c.transitioning }

// Generation returns the current navigation generation.
func (c *Controller) Generation() uint64 { return c.gen }

// Context returns the screen context for the active screen.
func (c *Controller) Context(env Env) screen.Context {
	return env.screenContext(c.current)
}

// CanGoBack reports whether Back has somewhere to go.
func (c *Controller) CanGoBack() bool { return len(c.history) > 0 }

// Navigate starts a route change. It returns the teardown and init effects;
// neither is awaited.
func (c *Controller) Navigate(rt route.Route, env Env) tea.Cmd {
	return c.navigate(rt, env, false)
}

// NavigatePath parses path and navigates; unparseable paths become NotFound.
func (c *Controller) NavigatePath(path string, env Env) tea.Cmd {
	rt, ok := route.Parse(path)
	if !ok {
		c.logger.Debug("nav: unparseable path", "path", path)
		return c.notFound(route.Route{}, env, false)
	}
	return c.Navigate(rt, env)
}

// Back navigates to the previous completed route. The entry leaves the
// history only once that navigation completes.
func (c *Controller) Back(env Env) tea.Cmd {
	if len(c.history) == 0 {
		return nil
	}
	return c.navigate(c.history[len(c.history)-1], env, true)
}

func (c *Controller) navigate(rt route.Route, env Env, back bool) tea.Cmd {
	if c.transitioning && rt == c.pending {
		return nil
	}
	if !c.transitioning && c.state != Blank && rt == c.current {
		return nil
	}

	kind, initializer, ok := c.registry.Resolve(rt)
	if !ok {
		return c.notFound(rt, env, back)
	}

	teardown := c.teardown(env)
	c.gen++
	gen := c.gen
	c.state = Loading
	c.pending = rt
	c.pendingBack = back
	c.transitioning = true
	c.logger.Debug("nav: loading", "route", rt.Path(), "screen", kind, "gen", gen)

	ic := screen.InitContext{Clock: env.Clock, Session: env.Session}
	timeout := c.initTimeout
	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		loaded, err := initializer.Init(ctx, rt, ic)
		return LoadedMsg{Gen: gen, Route: rt, Loaded: loaded, Err: err}
	}
	return tea.Batch(teardown, load)
}

// notFound invalidates any in-flight initialization and shows NotFound.
func (c *Controller) notFound(rt route.Route, env Env, back bool) tea.Cmd {
	teardown := c.teardown(env)
	c.gen++
	c.recordHistory(rt, back)
	c.pendingBack = false
	c.state = NotFound
	c.active = nil
	c.tornDown = false
	c.current = rt
	c.pending = route.Route{}
	c.transitioning = false
	return teardown
}

// teardown returns the outgoing screen's teardown, at most once per screen.
func (c *Controller) teardown(env Env) tea.Cmd {
	if c.active == nil || c.tornDown {
		return nil
	}
	c.tornDown = true
	return c.active.Teardown(env.screenContext(c.current))
}

// HandleLoaded applies an initialization result. Results from superseded
// navigations are dropped without touching any state. A transient failure is
// returned so the caller can surface it; the controller has already
// recovered from it.
func (c *Controller) HandleLoaded(msg LoadedMsg, env Env) (tea.Cmd, error) {
	if msg.Gen != c.gen {
		c.logger.Debug("nav: discarding stale load", "route", msg.Route.Path(), "gen", msg.Gen, "current_gen", c.gen)
		return nil, nil
	}

	if msg.Err != nil {
		switch apperr.Classify(msg.Err) {
		case apperr.NotFound:
			c.logger.Info("nav: not found", "route", msg.Route.Path(), "error", msg.Err)
			return c.notFound(msg.Route, env, c.pendingBack), nil
		case apperr.SessionExpired:
			c.logger.Info("nav: session expired during load", "route", msg.Route.Path())
			c.restore()
			if env.Session == nil {
				return nil, nil
			}
			return env.Session.ForceLogin(msg.Err.Error()), nil
		default:
			c.logger.Warn("nav: load failed, keeping current screen", "route", msg.Route.Path(), "error", msg.Err)
			var setup tea.Cmd
			if c.restore() {
				setup = c.active.Setup(env.screenContext(c.current))
			}
			return setup, fmt.Errorf("loading %s: %w", msg.Route.Path(), msg.Err)
		}
	}

	if msg.Loaded.Screen == nil {
		return c.notFound(msg.Route, env, c.pendingBack), nil
	}

	env.Repo.Union(msg.Loaded.Delta)
	c.recordHistory(msg.Route, c.pendingBack)
	c.pendingBack = false
	c.active = msg.Loaded.Screen
	c.tornDown = false
	c.state = Active
	c.current = msg.Route
	c.pending = route.Route{}
	c.transitioning = false
	c.logger.Debug("nav: active", "route", msg.Route.Path(), "screen", c.active.Kind(), "delta", len(msg.Loaded.Delta))
	return c.active.Setup(env.screenContext(c.current)), nil
}

// restore ends a failed transition and reports whether an outgoing screen
// is reactivated.
func (c *Controller) restore() bool {
	c.transitioning = false
	c.pending = route.Route{}
	c.pendingBack = false
	switch {
	case c.active != nil:
		c.state = Active
		c.tornDown = false
		return true
	case c.current != (route.Route{}):
		c.state = NotFound
	default:
		c.state = Blank
	}
	return false
}

// recordHistory updates the back stack for a completed navigation to next.
// A step back pops the entry it went to; anything else pushes the route
// being left.
func (c *Controller) recordHistory(next route.Route, back bool) {
	if back {
		if n := len(c.history); n > 0 && c.history[n-1] == next {
			c.history = c.history[:n-1]
		}
		return
	}
	if c.current == (route.Route{}) || c.current == next {
		return
	}
	c.history = append(c.history, c.current)
	if len(c.history) > c.maxHistory {
		c.history = c.history[len(c.history)-c.maxHistory:]
	}
}

// Title returns the active screen's title, or a placeholder title.
func (c *Controller) Title(env Env) string {
	switch c.state {
	case Active:
		if c.active != nil {
			return c.active.Title(env.screenContext(c.current))
		}
	case Loading:
		return "Loading"
	case NotFound:
		return "Not found"
	}
	return ""
}
