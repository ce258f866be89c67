package app

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/rally/pkg/cache"
	"gitlab.com/tinyland/lab/rally/pkg/clock"
	"gitlab.com/tinyland/lab/rally/pkg/connection"
	"gitlab.com/tinyland/lab/rally/pkg/dispatch"
	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/leader"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
	"gitlab.com/tinyland/lab/rally/pkg/presence"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/screens"
	"gitlab.com/tinyland/lab/rally/pkg/session"
	"gitlab.com/tinyland/lab/rally/pkg/theme"
	"gitlab.com/tinyland/lab/rally/pkg/transport"
)

const lastRouteKey = "app/last_route"

// Config holds the runtime settings of the model.
type Config struct {
	TickInterval   time.Duration
	BannerTTL      time.Duration
	CatchUpTimeout time.Duration
	// StartPath is the first page. Empty resumes the last visited page.
	StartPath string
	TimeZone  string
}

// DefaultConfig returns the settings used when a value is left zero.
func DefaultConfig() Config {
	return Config{
		TickInterval:   time.Second,
		BannerTTL:      5 * time.Second,
		CatchUpTimeout: 20 * time.Second,
	}
}

// Channel is the push channel as seen by the model.
type Channel interface {
	Listen() tea.Cmd
}

// Deps are the collaborators the model drives. Nav and Dispatcher are
// required; everything else may be nil.
type Deps struct {
	Nav        *nav.Controller
	Dispatcher *dispatch.Dispatcher
	Session    *session.Session
	Store      *cache.Store
	Channel    Channel
	CatchUp    dispatch.NotificationSource
	Keys       leader.KeyMap
	Styles     theme.Styles
	Logger     *slog.Logger
	Now        func() time.Time
}

// AppModel is the root tea.Model.
type AppModel struct {
	cfg        Config
	nav        *nav.Controller
	dispatcher *dispatch.Dispatcher
	session    *session.Session
	store      *cache.Store
	channel    Channel
	catchUp    dispatch.NotificationSource
	styles     theme.Styles
	logger     *slog.Logger

	repo    *entity.Repository
	monitor *connection.Monitor
	clock   clock.Clock
	router  leader.Router
	help    help.Model
	spinner spinner.Model

	width, height int
	spinning      bool
	banner        banner
	title         string
	quitting      bool
	exitReason    string
}

// NewAppModel builds the model. Zero settings in cfg take their defaults.
func NewAppModel(cfg Config, d Deps) AppModel {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.BannerTTL <= 0 {
		cfg.BannerTTL = def.BannerTTL
	}
	if cfg.CatchUpTimeout <= 0 {
		cfg.CatchUpTimeout = def.CatchUpTimeout
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Keys.Leader.Keys() == nil {
		d.Keys = leader.DefaultKeyMap()
	}

	h := help.New()
	h.ShowAll = true
	h.Styles = d.Styles.Help()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(d.Styles.Accent))

	return AppModel{
		cfg:        cfg,
		nav:        d.Nav,
		dispatcher: d.Dispatcher,
		session:    d.Session,
		store:      d.Store,
		channel:    d.Channel,
		catchUp:    d.CatchUp,
		styles:     d.Styles,
		logger:     d.Logger,
		repo:       entity.NewRepository(),
		monitor:    connection.NewMonitor(),
		clock:      clock.New(d.Now(), nil),
		router:     leader.New(d.Keys),
		help:       h,
		spinner:    sp,
	}
}

// Init starts the tick, the push listener, zone resolution and the first
// navigation.
func (m AppModel) Init() tea.Cmd {
	start := m.startPath()
	return tea.Batch(
		clock.TickCmd(m.cfg.TickInterval),
		ResolveZoneCmd(m.cfg.TimeZone),
		m.listen(),
		func() tea.Msg { return nav.RequestMsg{Path: start} },
	)
}

func (m AppModel) startPath() string {
	if m.cfg.StartPath != "" {
		return m.cfg.StartPath
	}
	if m.store != nil {
		if p, ok := m.store.GetString(lastRouteKey); ok {
			return p
		}
	}
	return "/"
}

// Update is the single update cycle.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case clock.TickMsg:
		return m.handleTick(msg)

	case clock.ZoneResolvedMsg:
		next, err := m.clock.WithZone(msg.Name)
		if err != nil {
			m.logger.Warn("app: unknown time zone", "zone", msg.Name, "error", err)
			return m, nil
		}
		m.clock = next
		return m, nil

	case transport.StateMsg:
		return m.handleState(msg)

	case transport.EventMsg:
		m.monitor.Touch(msg.At)
		active, cmd := m.dispatcher.Apply(msg.Event, m.repo, m.activeScreen(), m.screenContext())
		m.nav.SetActive(active)
		return m, tea.Batch(cmd, m.listen())

	case transport.PresenceMsg:
		m.monitor.Touch(msg.At)
		cmds := []tea.Cmd{m.listen()}
		for _, ev := range msg.Events {
			active, cmd := presence.Route(ev, m.activeScreen(), m.screenContext())
			m.nav.SetActive(active)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case transport.StoppedMsg:
		m.logger.Info("app: push channel stopped")
		return m, nil

	case dispatch.CatchUpMsg:
		active, cmd, err := m.dispatcher.ApplyCatchUp(msg, m.repo, m.activeScreen(), m.screenContext())
		m.nav.SetActive(active)
		if err != nil {
			m.showError(err)
		}
		return m, cmd

	case nav.RequestMsg:
		cmd := m.navigated(m.nav.NavigatePath(msg.Path, m.env()))
		return m, cmd

	case nav.GoMsg:
		cmd := m.navigated(m.nav.Navigate(msg.Route, m.env()))
		return m, cmd

	case nav.BackMsg:
		cmd := m.navigated(m.nav.Back(m.env()))
		return m, cmd

	case nav.LoadedMsg:
		fresh := msg.Gen == m.nav.Generation()
		cmd, err := m.nav.HandleLoaded(msg, m.env())
		if err != nil {
			m.showError(err)
		}
		cmds := []tea.Cmd{cmd, m.retitle()}
		if fresh && msg.Err == nil && m.nav.State() == nav.Active {
			cmds = append(cmds, m.persistRoute(msg.Route.Path()))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.nav.State() != nav.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case screens.MutationDoneMsg:
		if cmd, ok := dispatch.ForceLoginIfExpired(msg.Err, m.session); ok {
			return m, cmd
		}
		if msg.Err != nil {
			m.showError(msg.Err)
		}
		return m.forward(msg)

	case session.LoginRequiredMsg:
		m.logger.Info("app: login required", "reason", msg.Reason)
		m.quitting = true
		m.exitReason = msg.Reason
		return m, tea.Quit

	case ErrMsg:
		m.showError(msg.Err)
		return m, nil

	case InfoMsg:
		m.show(msg.Text, bannerInfo)
		return m, nil
	}

	return m.forward(msg)
}

// handleState applies a connection transition. A rejected handshake ends
// the session; anything else only moves the monitor.
func (m AppModel) handleState(msg transport.StateMsg) (AppModel, tea.Cmd) {
	if cmd, ok := dispatch.ForceLoginIfExpired(msg.Err, m.session); ok {
		return m, cmd
	}
	catchUp := m.dispatcher.OnTransition(m.monitor, msg.State, msg.At, m.catchUp, m.cfg.CatchUpTimeout)
	return m, tea.Batch(catchUp, m.listen())
}

// activeScreen returns the screen that may receive input, or nil while no
// screen is active. A Loading controller still holds the torn-down
// outgoing screen, which must not see anything.
func (m AppModel) activeScreen() screen.Screen {
	if m.nav.State() != nav.Active {
		return nil
	}
	return m.nav.Active()
}

// forward hands msg to the active screen when it owns asynchronous work.
func (m AppModel) forward(msg tea.Msg) (AppModel, tea.Cmd) {
	u, ok := m.activeScreen().(screen.Updater)
	if !ok {
		return m, nil
	}
	next, cmd := u.Update(msg, m.screenContext())
	m.nav.SetActive(next)
	return m, cmd
}

func (m AppModel) listen() tea.Cmd {
	if m.channel == nil {
		return nil
	}
	return m.channel.Listen()
}

func (m AppModel) env() nav.Env {
	return nav.Env{Repo: m.repo, Clock: m.clock, Session: m.session}
}

func (m AppModel) screenContext() screen.Context {
	return m.nav.Context(m.env())
}

func (m *AppModel) showError(err error) {
	m.logger.Warn("app: error", "error", err)
	m.show(err.Error(), bannerError)
}

func (m *AppModel) show(text string, level bannerLevel) {
	m.banner = banner{text: text, level: level, until: m.clock.Now().Add(m.cfg.BannerTTL)}
}

// persistRoute remembers path so the next start can resume it.
func (m AppModel) persistRoute(path string) tea.Cmd {
	store, logger := m.store, m.logger
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		if err := store.PutString(lastRouteKey, path); err != nil {
			logger.Warn("app: saving last route", "path", path, "error", err)
		}
		return nil
	}
}

// Accessors used by main and tests.

func (m AppModel) Width() int                     { return m.width }
func (m AppModel) Height() int                    { return m.height }
func (m AppModel) Quitting() bool                 { return m.quitting }
func (m AppModel) ExitReason() string             { return m.exitReason }
func (m AppModel) Repository() *entity.Repository { return m.repo }
func (m AppModel) Monitor() *connection.Monitor   { return m.monitor }
func (m AppModel) Clock() clock.Clock             { return m.clock }
func (m AppModel) Banner() string                 { return m.banner.text }
func (m AppModel) HelpVisible() bool              { return m.router.HelpVisible() }
func (m AppModel) LeaderActive() bool             { return m.router.LeaderActive() }
func (m AppModel) Title() string                  { return m.title }
