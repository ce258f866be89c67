package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// GetTyped decodes a cached JSON value into T. It reports false when the key
// is missing, expired, or does not decode as T.
func GetTyped[T any](s *Store, key string) (T, bool) {
	var v T
	data, ok := s.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// PutTyped stores value as JSON with the default TTL.
func PutTyped[T any](s *Store, key string, value T) error {
	return PutTypedWithTTL(s, key, value, s.cfg.DefaultTTL)
}

// PutTypedWithTTL stores value as JSON with a custom TTL.
func PutTypedWithTTL[T any](s *Store, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %q: %w", key, err)
	}
	return s.PutWithTTL(key, data, ttl)
}
