package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/tinyland/lab/rally/pkg/apperr"
	"gitlab.com/tinyland/lab/rally/pkg/session"
)

type staticToken string

func (s staticToken) Token() string                         { return string(s) }
func (s staticToken) EnsureFresh(ctx context.Context) error { return nil }

type captured struct {
	header http.Header
	req    request
}

// newTestServer answers every request with status and body and records what
// it received.
func newTestServer(t *testing.T, status int, body string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL, Tokens: staticToken("tok-1"), Timeout: time.Second}), got
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		wantOp  string
	}{
		{"named query", `query A { a }`, false, "A"},
		{"mutation", `mutation B($x: ID!) { b(x: $x) { id } }`, false, "B"},
		{"anonymous", `{ a }`, true, ""},
		{"two operations", `query A { a } query B { b }`, true, ""},
		{"syntax error", `query A { a `, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && doc.Name != tt.wantOp {
				t.Errorf("Name = %q, want %q", doc.Name, tt.wantOp)
			}
		})
	}
}

func TestRequestHeadersAndBody(t *testing.T) {
	c, got := newTestServer(t, http.StatusOK, `{"data":{"viewer":{"spaces":[]}}}`)

	if _, err := c.Spaces(context.Background()); err != nil {
		t.Fatalf("Spaces: %v", err)
	}
	if got.header.Get("Authorization") != "Bearer tok-1" {
		t.Errorf("Authorization = %q", got.header.Get("Authorization"))
	}
	if got.header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got.req.OperationName != "Spaces" {
		t.Errorf("operationName = %q, want Spaces", got.req.OperationName)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Kind
	}{
		{http.StatusUnauthorized, apperr.SessionExpired},
		{http.StatusForbidden, apperr.SessionExpired},
		{http.StatusNotFound, apperr.NotFound},
		{http.StatusBadGateway, apperr.Transient},
	}
	for _, tt := range tests {
		c, _ := newTestServer(t, tt.status, `oops`)
		_, err := c.Spaces(context.Background())
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := apperr.Classify(err); got != tt.want {
			t.Errorf("status %d: Classify = %v, want %v", tt.status, got, tt.want)
		}
	}
	c, _ := newTestServer(t, http.StatusBadGateway, `oops`)
	_, err := c.Spaces(context.Background())
	if !IsStatus(err, http.StatusBadGateway) {
		t.Errorf("IsStatus(%v, 502) = false", err)
	}
}

func TestGraphQLErrorCodes(t *testing.T) {
	tests := []struct {
		code string
		want apperr.Kind
	}{
		{"UNAUTHENTICATED", apperr.SessionExpired},
		{"NOT_FOUND", apperr.NotFound},
		{"INTERNAL", apperr.Transient},
	}
	for _, tt := range tests {
		body := `{"data":null,"errors":[{"message":"nope","extensions":{"code":"` + tt.code + `"}}]}`
		c, _ := newTestServer(t, http.StatusOK, body)
		_, err := c.Feed(context.Background(), "acme")
		if got := apperr.Classify(err); got != tt.want {
			t.Errorf("code %s: Classify(%v) = %v, want %v", tt.code, err, got, tt.want)
		}
	}
}

func TestNullSpaceIsNotFound(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{"data":{"space":null,"posts":[]}}`)
	_, err := c.Feed(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Feed() = %v, want ErrNotFound", err)
	}
}

func TestNullPostIsNotFound(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{"data":{"space":{"id":"s1","slug":"acme"},"post":null}}`)
	_, err := c.Post(context.Background(), "acme", "p9")
	if apperr.Classify(err) != apperr.NotFound {
		t.Errorf("Post() = %v, want not found", err)
	}
}

func TestPostDecodes(t *testing.T) {
	body := `{"data":{"space":{"id":"s1","slug":"acme","name":"Acme"},
	  "post":{"post":{"id":"p1","spaceId":"s1","body":"hi"},
	          "author":{"id":"su1","handle":"ann"},
	          "replies":[{"reply":{"id":"r1","postId":"p1"},"author":{"id":"su2"}}]}}}`
	c, _ := newTestServer(t, http.StatusOK, body)

	res, err := c.Post(context.Background(), "acme", "p1")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.Space.Name != "Acme" || res.Post.Post.Body != "hi" || len(res.Post.Replies) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestNotificationsSinceSendsTimestamp(t *testing.T) {
	c, got := newTestServer(t, http.StatusOK, `{"data":{"notificationsSince":[{"notification":{"id":"n1","topic":"t"}}]}}`)
	since := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	ns, err := c.NotificationsSince(context.Background(), since)
	if err != nil {
		t.Fatalf("NotificationsSince: %v", err)
	}
	if len(ns) != 1 || ns[0].Notification.ID != "n1" {
		t.Errorf("notifications = %+v", ns)
	}
	if got.req.Variables["since"] != "2026-02-03T04:05:06Z" {
		t.Errorf("since = %v", got.req.Variables["since"])
	}
}

func TestMutateAddsClientID(t *testing.T) {
	c, got := newTestServer(t, http.StatusOK, `{"data":{"markPostAsRead":{"clientMutationId":"x"}}}`)

	res, err := c.Mutate(context.Background(), MarkPostAsReadMutation, map[string]any{"postId": "p1"})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if res.ClientID == "" || got.req.Variables["clientMutationId"] != res.ClientID {
		t.Errorf("client id not sent: result %q, sent %v", res.ClientID, got.req.Variables["clientMutationId"])
	}
	if got.req.Variables["postId"] != "p1" {
		t.Errorf("postId = %v", got.req.Variables["postId"])
	}
}

func TestMutateRejectsQuery(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{}`)
	if _, err := c.Mutate(context.Background(), SpacesQuery, nil); err == nil {
		t.Error("Mutate with a query document should fail")
	}
}

func TestRefreshToken(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{"data":{"refreshToken":{"token":"fresh"}}}`)
	tok, err := c.RefreshToken(context.Background(), "old")
	if err != nil || tok != "fresh" {
		t.Errorf("RefreshToken() = %q, %v", tok, err)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestExpiredTokenIsRefreshedBeforeRequest(t *testing.T) {
	stale := signedToken(t, time.Now().Add(-time.Minute))
	fresh := signedToken(t, time.Now().Add(time.Hour))

	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req)
		w.Header().Set("Content-Type", "application/json")
		if req.OperationName == RefreshTokenMutation.Name {
			refreshes.Add(1)
			if req.Variables["token"] != stale {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"data":{"refreshToken":{"token":"`+fresh+`"}}}`)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"viewer":{"spaces":[]}}}`)
	}))
	t.Cleanup(srv.Close)

	var c *Client
	sess := session.New(nil, session.WithRefresh(func(ctx context.Context, token string) (string, error) {
		return c.RefreshToken(ctx, token)
	}))
	if err := sess.SetToken(stale); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	c = NewClient(Config{Endpoint: srv.URL, Tokens: sess, Timeout: time.Second})

	if _, err := c.Spaces(context.Background()); err != nil {
		t.Fatalf("Spaces: %v", err)
	}
	if n := refreshes.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if sess.Token() != fresh {
		t.Error("session should hold the refreshed token")
	}

	if _, err := c.Spaces(context.Background()); err != nil {
		t.Fatalf("second Spaces: %v", err)
	}
	if n := refreshes.Load(); n != 1 {
		t.Errorf("fresh token was refreshed again, calls = %d", n)
	}
}

func TestRejectedRefreshIsSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	var c *Client
	sess := session.New(nil, session.WithRefresh(func(ctx context.Context, token string) (string, error) {
		return c.RefreshToken(ctx, token)
	}))
	_ = sess.SetToken(signedToken(t, time.Now().Add(-time.Minute)))
	c = NewClient(Config{Endpoint: srv.URL, Tokens: sess, Timeout: time.Second})

	_, err := c.Spaces(context.Background())
	if apperr.Classify(err) != apperr.SessionExpired {
		t.Errorf("Spaces() = %v, want session expired", err)
	}
}
