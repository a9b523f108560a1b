package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ipms/placement-hub/internal/domain/opportunity"
	"github.com/ipms/placement-hub/internal/domain/user"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/redis"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSIONS
// One active session per data directory (or redis namespace). Every
// invocation of the binary resumes it.
// ══════════════════════════════════════════════════════════════════════════════

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("no active session; log in with `ipms login <userId>`")

// Session is the logged-in user's state between invocations.
type Session struct {
	Token  string    `json:"token"`
	UserID string    `json:"userId"`
	Role   user.Role `json:"role"`

	// MustChangePassword gates every command except passwd and logout.
	MustChangePassword bool `json:"mustChangePassword"`

	// Filter is the saved opportunity filter applied by listings.
	Filter opportunity.Filter `json:"filter"`

	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// NewSession starts a session for u.
func NewSession(u user.User, mustChange bool, now time.Time) *Session {
	return &Session{
		Token:              uuid.NewString(),
		UserID:             u.UserID(),
		Role:               u.Role(),
		MustChangePassword: mustChange,
		StartedAt:          now,
	}
}

// SessionStore persists the active session.
type SessionStore interface {
	// Load returns ErrNoSession when there is none or it expired.
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// ─── File store ──────────────────────────────────────────────────────────────

// FileSessionStore keeps the session as JSON next to the data files.
type FileSessionStore struct {
	path  string
	ttl   time.Duration
	clock timeutil.Clock
}

// NewFileSessionStore returns a store writing to path.
func NewFileSessionStore(path string, ttl time.Duration, clock timeutil.Clock) *FileSessionStore {
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	return &FileSessionStore{path: path, ttl: ttl, clock: clock}
}

func (f *FileSessionStore) Load(_ context.Context) (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.Token == "" {
		return nil, ErrNoSession
	}
	if !s.ExpiresAt.IsZero() && f.clock.Now().After(s.ExpiresAt) {
		_ = os.Remove(f.path)
		return nil, ErrNoSession
	}
	return &s, nil
}

func (f *FileSessionStore) Save(_ context.Context, s *Session) error {
	if f.ttl > 0 {
		s.ExpiresAt = f.clock.Now().Add(f.ttl)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileSessionStore) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ─── Redis store ─────────────────────────────────────────────────────────────

// RedisSessionStore keeps the session in redis with a TTL.
type RedisSessionStore struct {
	cache *redis.SessionCache
}

// NewRedisSessionStore wraps a session cache.
func NewRedisSessionStore(cache *redis.SessionCache) *RedisSessionStore {
	return &RedisSessionStore{cache: cache}
}

func (r *RedisSessionStore) Load(ctx context.Context) (*Session, error) {
	var s Session
	err := r.cache.Current(ctx, &s)
	if errors.Is(err, redis.ErrCacheMiss) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	return r.cache.Put(ctx, s.Token, s)
}

func (r *RedisSessionStore) Clear(ctx context.Context) error {
	return r.cache.Clear(ctx)
}
