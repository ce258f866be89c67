// Package api is the HTTP GraphQL client behind screen initialization,
// mutations and reconnect catch-up. Every failure it returns is
// classifiable with apperr.Classify.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
)

// Sentinel errors. Both match their apperr counterparts with errors.Is.
var (
	ErrNotFound     = fmt.Errorf("api: %w", apperr.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("api: %w", apperr.ErrSessionExpired)
)

// StatusError is a non-2xx response that is neither 401/403 nor 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: unexpected status %d: %s", e.Code, e.Body)
}

// TokenSource supplies the bearer token for each request. EnsureFresh runs
// before the token is read so a token near its expiry is exchanged first.
type TokenSource interface {
	Token() string
	EnsureFresh(ctx context.Context) error
}

// Config holds client settings.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	Tokens   TokenSource
	HTTP     *http.Client
	Logger   *slog.Logger
}

// Client posts GraphQL operations to a single endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	tokens   TokenSource
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a client. A zero timeout means 15s.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.HTTP == nil {
		cfg.HTTP = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		tokens:   cfg.Tokens,
		http:     cfg.HTTP,
		logger:   cfg.Logger,
	}
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors gqlerror.List   `json:"errors"`
}

// Do runs doc with vars and decodes the data object into out. out may be nil.
func (c *Client) Do(ctx context.Context, doc Document, vars map[string]any, out any) error {
	return c.run(ctx, doc, vars, out, true)
}

// run is Do with control over the pre-request refresh. The token exchange
// itself must not trigger another exchange.
func (c *Client) run(ctx context.Context, doc Document, vars map[string]any, out any, refresh bool) error {
	data, err := c.do(ctx, doc, vars, refresh)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: %s: decode data: %w", doc.Name, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, doc Document, vars map[string]any, refresh bool) (json.RawMessage, error) {
	if refresh && c.tokens != nil {
		if err := c.tokens.EnsureFresh(ctx); err != nil {
			if errors.Is(err, apperr.ErrSessionExpired) {
				return nil, fmt.Errorf("%s: %w", doc.Name, err)
			}
			return nil, fmt.Errorf("api: %s: %w", doc.Name, err)
		}
	}

	body, err := json.Marshal(request{Query: doc.Text, OperationName: doc.Name, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("api: %s: encode request: %w", doc.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", doc.Name, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", doc.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("api: %s: read body: %w", doc.Name, err)
	}
	c.logger.Debug("graphql request",
		"operation", doc.Name,
		"request_id", reqID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w", doc.Name, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", doc.Name, ErrNotFound)
	case resp.StatusCode >= 300:
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("api: %s: decode response: %w", doc.Name, err)
	}
	if len(r.Errors) > 0 {
		return nil, classifyErrors(doc.Name, r.Errors)
	}
	return r.Data, nil
}

// classifyErrors maps GraphQL error extension codes onto the sentinels.
func classifyErrors(op string, errs gqlerror.List) error {
	for _, e := range errs {
		code, _ := e.Extensions["code"].(string)
		switch code {
		case "UNAUTHENTICATED", "FORBIDDEN":
			return fmt.Errorf("%s: %w: %s", op, ErrUnauthorized, e.Message)
		case "NOT_FOUND":
			return fmt.Errorf("%s: %w: %s", op, ErrNotFound, e.Message)
		}
	}
	return fmt.Errorf("api: %s: %w", op, errs)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
