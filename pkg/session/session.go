// Package session owns the viewer's bearer token: reading it from the local
// store, refreshing it before it lapses, and forcing a fresh login when the
// server rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/cache"
)

// ErrExpired is returned by any operation whose credentials the server no
// longer accepts. It matches apperr.ErrSessionExpired.
var ErrExpired = fmt.Errorf("session: %w", apperr.ErrSessionExpired)

const tokenKey = "session/token"

// RefreshFunc exchanges a token for a fresh one.
type RefreshFunc func(ctx context.Context, token string) (string, error)

// LoginRequiredMsg is delivered after ForceLogin has discarded the token.
type LoginRequiredMsg struct {
	Reason string
}

type storedToken struct {
	Value string `json:"value"`
}

// Session is safe for concurrent use: commands read the token from their
// own goroutines while the update cycle may replace it.
type Session struct {
	mu      sync.RWMutex
	token   string
	expires time.Time

	store   *cache.Store
	flight  singleflight.Group
	refresh RefreshFunc
	skew    time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRefresh sets the token exchange used by Refresh.
func WithRefresh(fn RefreshFunc) Option { return func(s *Session) { s.refresh = fn } }

// WithSkew makes the token count as expired this long before its exp claim.
func WithSkew(d time.Duration) Option { return func(s *Session) { s.skew = d } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// New loads the stored token, if any. A nil store keeps the token in memory
// only.
func New(store *cache.Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		skew:   30 * time.Second,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	if store != nil {
		if t, ok := cache.GetTyped[storedToken](store, tokenKey); ok {
			s.token = t.Value
			s.expires = expiry(t.Value)
		}
	}
	return s
}

// Token returns the current bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Expires returns the token's exp claim. The zero time means unknown.
func (s *Session) Expires() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expires
}

// Valid reports whether a token is held and is not within the skew of its
// expiry.
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expires.IsZero() || s.now().Add(s.skew).Before(s.expires)
}

// SetToken stores token in memory and on disk. The disk entry lives until
// the token's exp claim.
func (s *Session) SetToken(token string) error {
	exp := expiry(token)

	s.mu.Lock()
	s.token = token
	s.expires = exp
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	var ttl time.Duration
	if !exp.IsZero() {
		ttl = exp.Sub(s.now())
		if ttl <= 0 {
			return ErrExpired
		}
	}
	return cache.PutTypedWithTTL(s.store, tokenKey, storedToken{Value: token}, ttl)
}

// Refresh exchanges the current token for a new one. Any failure the
// exchange reports as expired comes back as ErrExpired. Concurrent callers
// share a single exchange.
func (s *Session) Refresh(ctx context.Context) error {
	current := s.Token()
	if current == "" {
		return ErrExpired
	}
	if s.refresh == nil {
		if s.Valid() {
			return nil
		}
		return ErrExpired
	}
	_, err, _ := s.flight.Do(current, func() (any, error) {
		if s.Token() != current {
			return nil, nil
		}
		next, err := s.refresh(ctx, current)
		if err != nil {
			if errors.Is(err, apperr.ErrSessionExpired) {
				return nil, ErrExpired
			}
			return nil, fmt.Errorf("session: refresh: %w", err)
		}
		s.logger.Debug("session refreshed")
		return nil, s.SetToken(next)
	})
	return err
}

// EnsureFresh refreshes the token when it is inside the expiry skew. A
// transient refresh failure is tolerated while the token has not actually
// expired.
func (s *Session) EnsureFresh(ctx context.Context) error {
	if s.Token() == "" {
		return ErrExpired
	}
	if s.Valid() {
		return nil
	}
	err := s.Refresh(ctx)
	if err == nil || errors.Is(err, ErrExpired) {
		return err
	}
	if exp := s.Expires(); !exp.IsZero() && s.now().Before(exp) {
		s.logger.Warn("session: refresh failed, using current token", "error", err, "expires", exp)
		return nil
	}
	return err
}

// Clear forgets the token in memory and on disk.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Delete(tokenKey); err != nil {
			s.logger.Warn("session: clear stored token", "error", err)
		}
	}
}

// ForceLogin discards the token and reports LoginRequiredMsg. The caller
// decides how to prompt for new credentials.
func (s *Session) ForceLogin(reason string) tea.Cmd {
	return func() tea.Msg {
		s.logger.Info("session expired, login required", "reason", reason)
		s.Clear()
		return LoginRequiredMsg{Reason: reason}
	}
}

// expiry reads the exp claim without verifying the signature; the server is
// the authority on validity. Opaque tokens have no known expiry.
func expiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
