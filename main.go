// rally is a terminal client for a real-time group-communication service.
//
// It keeps a local cache of spaces, groups, posts and notifications
// consistent with the server's push stream and lets you move between
// pages with leader-key shortcuts.
//
// Usage:
//
//	rally [flags]
//	rally login [token]
//	rally logout
//
// Flags:
//
//	-config string  Path to configuration file (default: ~/.config/rally/config.toml)
//	-path string    Page to open, e.g. /acme/inbox (default: last visited page)
//	-theme string   Color theme (default, gruvbox, nord, tokyo-night)
//	-verbose        Enable debug logging
//	-version        Print version and exit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/rally/pkg/api"
	"gitlab.com/tinyland/lab/rally/pkg/app"
	"gitlab.com/tinyland/lab/rally/pkg/cache"
	"gitlab.com/tinyland/lab/rally/pkg/config"
	"gitlab.com/tinyland/lab/rally/pkg/dispatch"
	"gitlab.com/tinyland/lab/rally/pkg/leader"
	"gitlab.com/tinyland/lab/rally/pkg/nav"
	"gitlab.com/tinyland/lab/rally/pkg/screen"
	"gitlab.com/tinyland/lab/rally/pkg/screens"
	"gitlab.com/tinyland/lab/rally/pkg/session"
	"gitlab.com/tinyland/lab/rally/pkg/theme"
	"gitlab.com/tinyland/lab/rally/pkg/transport"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		startPath   = flag.String("path", "", "Page to open, e.g. /acme/inbox")
		themeName   = flag.String("theme", "", "Color theme")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rally %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *startPath != "" {
		cfg.UI.StartPath = *startPath
	}
	if *themeName != "" {
		cfg.UI.Theme = *themeName
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLog(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	store, err := cache.NewStore(cache.StoreConfig{Dir: cfg.Session.StoreDir, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}

	var client *api.Client
	sess := session.New(store,
		session.WithSkew(cfg.Session.RefreshSkew.Duration),
		session.WithLogger(logger),
		session.WithRefresh(func(ctx context.Context, token string) (string, error) {
			return client.RefreshToken(ctx, token)
		}),
	)
	client = api.NewClient(api.Config{
		Endpoint: cfg.Server.APIURL,
		Timeout:  cfg.Server.RequestTimeout.Duration,
		Tokens:   sess,
		Logger:   logger,
	})

	switch flag.Arg(0) {
	case "login":
		if err := login(sess, flag.Arg(1)); err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Logged in.")
		return
	case "logout":
		sess.Clear()
		fmt.Println("Logged out.")
		return
	case "":
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (supported: login, logout)\n", flag.Arg(0))
		os.Exit(2)
	}

	if cfg.Session.Token != "" {
		if err := sess.SetToken(cfg.Session.Token); err != nil {
			fmt.Fprintf(os.Stderr, "RALLY_TOKEN rejected: %v\n", err)
			os.Exit(1)
		}
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "rally needs an interactive terminal")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.EnsureFresh(ctx); err != nil {
		if errors.Is(err, session.ErrExpired) {
			fmt.Fprintln(os.Stderr, "Not logged in. Run: rally login")
		} else {
			fmt.Fprintf(os.Stderr, "session check failed: %v\n", err)
		}
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger, store, sess, client); err != nil {
		logger.Error("rally exited", "error", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run wires the runtime and blocks until the program exits.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *cache.Store, sess *session.Session, client *api.Client) error {
	if cfg.UI.ThemeFile != "" {
		t, err := theme.LoadFile(cfg.UI.ThemeFile)
		if err != nil {
			return err
		}
		if cfg.UI.Theme == "default" {
			cfg.UI.Theme = t.Name
		}
	}
	if cfg.UI.Monochrome {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	styles := theme.NewStyles(theme.Get(cfg.UI.Theme))

	socket := transport.New(transport.Config{
		URL:          cfg.Server.SocketURL,
		Tokens:       sess,
		MinBackoff:   cfg.Realtime.MinBackoff.Duration,
		MaxBackoff:   cfg.Realtime.MaxBackoff.Duration,
		PingInterval: cfg.Realtime.PingInterval.Duration,
		Logger:       logger,
	})

	reg := screen.NewRegistry()
	if err := screens.Register(reg, &screens.Deps{
		Backend:         client,
		Presence:        socket,
		Styles:          styles,
		Logger:          logger,
		MutationTimeout: cfg.Server.RequestTimeout.Duration,
	}); err != nil {
		return fmt.Errorf("registering screens: %w", err)
	}

	model := app.NewAppModel(app.Config{
		TickInterval:   cfg.UI.TickInterval.Duration,
		BannerTTL:      cfg.UI.BannerTTL.Duration,
		CatchUpTimeout: cfg.Realtime.CatchUpTimeout.Duration,
		StartPath:      cfg.UI.StartPath,
		TimeZone:       cfg.UI.TimeZone,
	}, app.Deps{
		Nav:        nav.New(reg, nav.WithInitTimeout(cfg.Server.InitTimeout.Duration), nav.WithLogger(logger)),
		Dispatcher: dispatch.New(logger),
		Session:    sess,
		Store:      store,
		Channel:    socket,
		CatchUp:    client,
		Keys:       leader.DefaultKeyMap().WithLeader(cfg.UI.LeaderKey),
		Styles:     styles,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := socket.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("push channel stopped", "error", err)
		}
	}()

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	logger.Info("starting", "version", version, "api", cfg.Server.APIURL, "socket", cfg.Server.SocketURL)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", err)
	}
	if m, ok := final.(app.AppModel); ok && m.ExitReason() != "" {
		return fmt.Errorf("session ended (%s); run: rally login", m.ExitReason())
	}
	return nil
}

// login stores token, read from stdin when not given.
func login(sess *session.Session, token string) error {
	if token == "" {
		fmt.Fprint(os.Stderr, "Token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("empty token")
	}
	return sess.SetToken(token)
}

// openLog opens the log file. The terminal belongs to the UI, so nothing is
// logged to stderr.
func openLog(cfg config.LogConfig) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}
