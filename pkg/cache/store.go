// Package cache is a small disk-backed key/value store with per-entry
// expiry. It holds the state the client keeps between runs: the session
// token and the last visited route. Server entities are never written here.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// StoreConfig holds configuration for a Store.
type StoreConfig struct {
	// Dir is where entry files live. It is created with 0700 permissions.
	Dir string

	// DefaultTTL applies to Put. Zero means entries never expire.
	DefaultTTL time.Duration

	// Now overrides the time source. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// entry is the on-disk shape of a single value.
type entry struct {
	Key     string `json:"key"`
	Expires int64  `json:"expires,omitempty"` // UnixNano, 0 = never
	Data    []byte `json:"data"`
}

// Store writes one file per key. Writes are atomic via temp-file-then-rename
// and the store is safe for concurrent use.
type Store struct {
	cfg StoreConfig
	mu  sync.Mutex
}

// NewStore opens (creating if needed) the store directory and drops entries
// that have already expired.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if cfg.DefaultTTL < 0 {
		cfg.DefaultTTL = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", cfg.Dir, err)
	}

	s := &Store{cfg: cfg}
	if n := s.Sweep(); n > 0 {
		cfg.Logger.Debug("cache: dropped expired entries", "count", n)
	}
	return s, nil
}

// Get returns the bytes stored under key. Missing, expired and corrupt
// entries all report false; expired and corrupt files are removed.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	e, err := readEntry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.cfg.Logger.Warn("cache: unreadable entry", "key", key, "error", err)
			_ = os.Remove(path)
		}
		return nil, false
	}
	if e.Key != key {
		return nil, false
	}
	if s.expired(e) {
		_ = os.Remove(path)
		return nil, false
	}
	return e.Data, true
}

// GetString returns the cached value as a string.
func (s *Store) GetString(key string) (string, bool) {
	data, ok := s.Get(key)
	if !ok {
		return "", false
	}
	return string(data), true
}

// Put stores value under key with the default TTL.
func (s *Store) Put(key string, value []byte) error {
	return s.PutWithTTL(key, value, s.cfg.DefaultTTL)
}

// PutString stores a string with the default TTL.
func (s *Store) PutString(key, value string) error {
	return s.Put(key, []byte(value))
}

// PutWithTTL stores value under key. A TTL of 0 never expires; a negative
// TTL deletes the key instead.
func (s *Store) PutWithTTL(key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return s.Delete(key)
	}
	e := entry{Key: key, Data: value}
	if ttl > 0 {
		e.Expires = s.cfg.Now().Add(ttl).UnixNano()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: marshal %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWrite(s.path(key), data, s.cfg.Dir); err != nil {
		return fmt.Errorf("cache: write %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// Has reports whether key exists and is not expired.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns all live keys in no particular order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	s.walk(func(path string, e entry) {
		if !s.expired(e) {
			keys = append(keys, e.Key)
		}
	})
	return keys
}

// Sweep removes expired and corrupt entries and returns how many it removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	s.walk(func(path string, e entry) {
		if s.expired(e) {
			_ = os.Remove(path)
			n++
		}
	})
	return n
}

func (s *Store) path(key string) string {
	return filepath.Join(s.cfg.Dir, hashKey(key)+".json")
}

func (s *Store) expired(e entry) bool {
	return e.Expires != 0 && s.cfg.Now().UnixNano() >= e.Expires
}

// walk calls fn for every decodable entry file. Corrupt files are removed.
// Caller must hold s.mu.
func (s *Store) walk(fn func(path string, e entry)) {
	files, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(s.cfg.Dir, name)
		e, err := readEntry(path)
		if err != nil {
			_ = os.Remove(path)
			continue
		}
		fn(path, e)
	}
}

func readEntry(path string) (entry, error) {
	var e entry
	data, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	return e, nil
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte, tmpDir string) error {
	tmp, err := os.CreateTemp(tmpDir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}
