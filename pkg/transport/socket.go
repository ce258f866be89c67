// Package transport maintains the websocket push channel. It reconnects with
// backoff, turns inbound frames into tea messages, and re-announces the
// topics the client is watching after every reconnect.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/connection"
	"gitlab.com/tinyland/lab/rally/pkg/event"
	"gitlab.com/tinyland/lab/rally/pkg/presence"
)

// ErrUnauthorized is reported when the handshake is rejected for the token.
var ErrUnauthorized = fmt.Errorf("transport: %w", apperr.ErrSessionExpired)

// StateMsg reports a change of channel state.
type StateMsg struct {
	State connection.State
	At    time.Time
	Err   error
}

// EventMsg carries one decoded realtime event.
type EventMsg struct {
	Event event.Event
	At    time.Time
}

// PresenceMsg carries the presence events of one frame.
type PresenceMsg struct {
	Events []presence.Event
	At     time.Time
}

// StoppedMsg is delivered once Run has returned and no more messages follow.
type StoppedMsg struct{}

// TokenSource supplies the bearer token for the handshake. EnsureFresh runs
// before every dial.
type TokenSource interface {
	Token() string
	EnsureFresh(ctx context.Context) error
}

// Config holds socket settings. Zero durations take defaults.
type Config struct {
	URL          string
	Tokens       TokenSource
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	PingInterval time.Duration
	WriteTimeout time.Duration
	Dialer       *websocket.Dialer
	Logger       *slog.Logger
	Now          func() time.Time
}

type outbound struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// Socket is the push channel. Run owns the connection; Listen, Join and
// Leave are safe to call from any goroutine.
type Socket struct {
	cfg Config
	out chan tea.Msg
	snd chan outbound

	mu     sync.Mutex
	topics map[string]struct{}
	live   bool // topics replayed on the current connection
	state  connection.State
	done   chan struct{}
}

// New returns a socket that is not yet running.
func New(cfg Config) *Socket {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Socket{
		cfg:    cfg,
		out:    make(chan tea.Msg, 64),
		snd:    make(chan outbound, 16),
		topics: make(map[string]struct{}),
		done:   make(chan struct{}),
	}
}

// Listen returns a Cmd that waits for the next message from the socket. The
// receiver must issue Listen again after every message it gets.
func (s *Socket) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.out:
			return msg
		case <-s.done:
			return StoppedMsg{}
		}
	}
}

// Join announces interest in topic. The announcement is repeated after
// every reconnect until Leave. While disconnected the topic is only
// recorded; the next connect sends it.
func (s *Socket) Join(topic string) tea.Cmd {
	return func() tea.Msg {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.topics[topic] = struct{}{}
		if s.live {
			s.enqueue(outbound{Type: "join", Topic: topic})
		}
		return nil
	}
}

// Leave withdraws interest in topic.
func (s *Socket) Leave(topic string) tea.Cmd {
	return func() tea.Msg {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.topics, topic)
		if s.live {
			s.enqueue(outbound{Type: "leave", Topic: topic})
		}
		return nil
	}
}

// goLive snapshots the topics to replay and routes later Join and Leave
// calls to the queue.
func (s *Socket) goLive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = true
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

// goDown stops queueing and discards frames meant for the lost connection.
func (s *Socket) goDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = false
	for {
		select {
		case <-s.snd:
		default:
			return
		}
	}
}

// enqueue drops the frame when the buffer is full; the topic set is resent
// on the next connect anyway. Callers hold s.mu.
func (s *Socket) enqueue(o outbound) {
	select {
	case s.snd <- o:
	default:
		s.cfg.Logger.Debug("transport: outbound queue full, dropping", "type", o.Type, "topic", o.Topic)
	}
}

// Run connects and reconnects until ctx is done.
func (s *Socket) Run(ctx context.Context) error {
	defer close(s.done)

	backoff := s.cfg.MinBackoff
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = s.cfg.MinBackoff
		}
		s.setState(ctx, connection.Closed, err)
		if err != nil {
			s.cfg.Logger.Info("transport: disconnected", "error", err, "retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.cfg.MaxBackoff {
			backoff = s.cfg.MaxBackoff
		}
	}
}

// session runs one connection to completion. connected reports whether the
// handshake succeeded.
func (s *Socket) session(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	if s.cfg.Tokens != nil {
		if err := s.cfg.Tokens.EnsureFresh(ctx); err != nil {
			if errors.Is(err, apperr.ErrSessionExpired) {
				return false, fmt.Errorf("transport: %w", err)
			}
			return false, fmt.Errorf("transport: refresh: %w", err)
		}
		if tok := s.cfg.Tokens.Token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}
	conn, resp, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return false, ErrUnauthorized
		}
		return false, fmt.Errorf("transport: dial: %w", err)
	}
	defer conn.Close()
	defer s.goDown()

	s.setState(ctx, connection.Open, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})
	g.Go(func() error { return s.readPump(gctx, conn) })
	g.Go(func() error { return s.writePump(gctx, conn) })

	err = g.Wait()
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
		err = nil
	}
	return true, err
}

func (s *Socket) readPump(ctx context.Context, conn *websocket.Conn) error {
	readTimeout := 2 * s.cfg.PingInterval
	_ = conn.SetReadDeadline(s.cfg.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(s.cfg.Now().Add(readTimeout))
	})

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("transport: read: %w", err)
		}
		_ = conn.SetReadDeadline(s.cfg.Now().Add(readTimeout))
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		msg := s.decode(data)
		if msg == nil {
			continue
		}
		select {
		case s.out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Socket) writePump(ctx context.Context, conn *websocket.Conn) error {
	for _, t := range s.goLive() {
		if err := s.write(conn, outbound{Type: "join", Topic: t}); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-s.snd:
			if err := s.write(conn, o); err != nil {
				return err
			}
		case <-ticker.C:
			deadline := s.cfg.Now().Add(s.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return fmt.Errorf("transport: ping: %w", err)
			}
		}
	}
}

func (s *Socket) write(conn *websocket.Conn, o outbound) error {
	_ = conn.SetWriteDeadline(s.cfg.Now().Add(s.cfg.WriteTimeout))
	if err := conn.WriteJSON(o); err != nil {
		return fmt.Errorf("transport: write %s: %w", o.Type, err)
	}
	return nil
}

// decode turns a frame into a message. Presence frames that fail to decode
// are dropped here; event frames always produce a message because an
// undecodable event is itself an event the dispatcher logs.
func (s *Socket) decode(data []byte) tea.Msg {
	now := s.cfg.Now()
	var head struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &head); err == nil && presence.IsFrame(head.Type) {
		evs, err := presence.Decode(head.Type, head.Payload)
		if err != nil {
			s.cfg.Logger.Warn("transport: dropping presence frame", "error", err)
			return nil
		}
		return PresenceMsg{Events: evs, At: now}
	}
	return EventMsg{Event: event.Decode(data), At: now}
}

// setState emits a StateMsg when the state changes.
func (s *Socket) setState(ctx context.Context, st connection.State, err error) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()
	if !changed && err == nil {
		return
	}
	s.cfg.Logger.Debug("transport: state", "state", st, "error", err)
	select {
	case s.out <- StateMsg{State: st, At: s.cfg.Now(), Err: err}:
	case <-ctx.Done():
	}
}
