package redis

import (
	"context"
	"errors"
	"time"
)

const (
	// currentSession names the pointer key holding the active session token.
	currentSession = "current"

	defaultSessionTTL = 12 * time.Hour
)

// SessionCache keeps the active CLI session. The blob is stored under
// session:<token> and session:current points at the token; both expire
// after the TTL.
type SessionCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionCache returns a session cache; a non-positive ttl means 12 hours.
func NewSessionCache(cache *Cache, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionCache{cache: cache, ttl: ttl}
}

// Put stores v as the active session under token.
func (s *SessionCache) Put(ctx context.Context, token string, v any) error {
	if token == "" {
		return ErrCacheKeyEmpty
	}
	if err := s.cache.setJSON(ctx, s.cache.sessionKey(token), v, s.ttl); err != nil {
		return err
	}
	return s.cache.setJSON(ctx, s.cache.sessionKey(currentSession), token, s.ttl)
}

// Current decodes the active session into dest. ErrCacheMiss means no
// session or an expired one.
func (s *SessionCache) Current(ctx context.Context, dest any) error {
	var token string
	if err := s.cache.getJSON(ctx, s.cache.sessionKey(currentSession), &token); err != nil {
		return err
	}
	if token == "" {
		return ErrCacheMiss
	}
	return s.cache.getJSON(ctx, s.cache.sessionKey(token), dest)
}

// Clear ends the active session.
func (s *SessionCache) Clear(ctx context.Context) error {
	var token string
	err := s.cache.getJSON(ctx, s.cache.sessionKey(currentSession), &token)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		return err
	}
	keys := []string{s.cache.sessionKey(currentSession)}
	if token != "" {
		keys = append(keys, s.cache.sessionKey(token))
	}
	return s.cache.client.Del(ctx, keys...).Err()
}
