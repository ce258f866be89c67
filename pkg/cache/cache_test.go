package cache

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts ...func(*StoreConfig)) (*Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg := StoreConfig{
		Dir:        t.TempDir(),
		DefaultTTL: time.Hour,
		Now:        clk.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, clk
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	data := []byte(`{"name":"test","count":42}`)
	if err := s.Put("mykey", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get("mykey")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != string(data) {
		t.Errorf("round-trip mismatch: got %q, want %q", got, data)
	}
}

func TestPutStringGetString(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.PutString("greeting", "hello"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if got, ok := s.GetString("greeting"); !ok || got != "hello" {
		t.Errorf("GetString = %q, %v; want hello, true", got, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, _ := newTestStore(t)
	if _, ok := s.Get("nonexistent"); ok {
		t.Error("expected miss for nonexistent key")
	}
}

func TestExpiry(t *testing.T) {
	s, clk := newTestStore(t)

	if err := s.PutWithTTL("short", []byte("temp"), time.Minute); err != nil {
		t.Fatalf("PutWithTTL: %v", err)
	}
	if !s.Has("short") {
		t.Fatal("expected hit before TTL expires")
	}

	clk.Advance(time.Minute)
	if s.Has("short") {
		t.Error("expected miss once TTL has elapsed")
	}
	if len(s.Keys()) != 0 {
		t.Errorf("Keys() = %v, want none", s.Keys())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s, clk := newTestStore(t, func(cfg *StoreConfig) { cfg.DefaultTTL = 0 })

	if err := s.Put("forever", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clk.Advance(24 * 365 * time.Hour)
	if !s.Has("forever") {
		t.Error("expected zero-TTL entry to survive")
	}
}

func TestNegativeTTLDeletes(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Put("k", []byte("v"))

	if err := s.PutWithTTL("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("PutWithTTL: %v", err)
	}
	if s.Has("k") {
		t.Error("negative TTL should delete")
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Delete("ghost"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	_ = s.Put("doomed", []byte("value"))
	if err := s.Delete("doomed"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Has("doomed") {
		t.Error("expected miss after Delete")
	}
}

func TestKeys(t *testing.T) {
	s, _ := newTestStore(t)
	for _, k := range []string{"b", "a", "c"} {
		if err := s.PutString(k, k); err != nil {
			t.Fatalf("PutString: %v", err)
		}
	}
	got := s.Keys()
	sort.Strings(got)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Keys() = %v", got)
	}
}

func TestCorruptEntryIsDropped(t *testing.T) {
	s, _ := newTestStore(t)
	path := filepath.Join(s.cfg.Dir, hashKey("broken")+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if s.Has("broken") {
		t.Error("corrupt entry reported present")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry file should be removed")
	}
}

func TestReopenSweepsExpired(t *testing.T) {
	dir := t.TempDir()
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := NewStore(StoreConfig{Dir: dir, Now: clk.Now})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.PutWithTTL("old", []byte("x"), time.Minute)
	_ = s.PutWithTTL("new", []byte("y"), time.Hour)

	clk.Advance(10 * time.Minute)
	s2, err := NewStore(StoreConfig{Dir: dir, Now: clk.Now})
	if err != nil {
		t.Fatal(err)
	}
	if keys := s2.Keys(); len(keys) != 1 || keys[0] != "new" {
		t.Errorf("Keys() after reopen = %v, want [new]", keys)
	}
}

func TestTypedRoundTrip(t *testing.T) {
	type token struct {
		Value string `json:"value"`
		Exp   int64  `json:"exp"`
	}
	s, _ := newTestStore(t)

	want := token{Value: "abc", Exp: 42}
	if err := PutTyped(s, "tok", want); err != nil {
		t.Fatalf("PutTyped: %v", err)
	}
	got, ok := GetTyped[token](s, "tok")
	if !ok || got != want {
		t.Errorf("GetTyped = %+v, %v; want %+v", got, ok, want)
	}

	_ = s.PutString("raw", "not json")
	if _, ok := GetTyped[token](s, "raw"); ok {
		t.Error("GetTyped should fail on non-JSON data")
	}
}

func TestHashKeyStable(t *testing.T) {
	if hashKey("a/b") != hashKey("a/b") {
		t.Error("hashKey not deterministic")
	}
	if len(hashKey("anything")) != 16 {
		t.Errorf("hashKey length = %d, want 16", len(hashKey("anything")))
	}
}

func TestConcurrentPuts(t *testing.T) {
	s, _ := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.PutString("shared", "v")
		}()
	}
	wg.Wait()
	if !s.Has("shared") {
		t.Error("expected key after concurrent puts")
	}
}
