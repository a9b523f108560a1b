// Package redis implements the Redis record store and the session cache of
// the placement hub.
//
// Key layout under the configured prefix:
//   - records:<collection>  list, header at index 0 (Store)
//   - session:current       token of the active CLI session (SessionCache)
//   - session:<token>       JSON session blob (SessionCache)
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/retry"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server "host:port".
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key, e.g. "ipms:".
	KeyPrefix string

	// Timeout bounds dialing, reads and writes.
	Timeout time.Duration
}

// DefaultConfig returns a local, unauthenticated setup.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "ipms:",
		Timeout:   3 * time.Second,
	}
}

var (
	// ErrCacheMiss is returned when the key does not exist or has expired.
	ErrCacheMiss = errors.New("cache: key not found")

	ErrCacheConnection    = errors.New("cache: connection failed")
	ErrCacheSerialization = errors.New("cache: serialization failed")
	ErrCacheKeyEmpty      = errors.New("cache: key cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Cache is a go-redis client bound to a key prefix.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache connects to Redis, retrying while the server comes up. Retries
// are left to the caller, so the client itself does not retry.
func NewCache(ctx context.Context, cfg Config, log *logger.Logger) (*Cache, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if log == nil {
		log = logger.Discard()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     2,
		MaxRetries:   -1,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	r := retry.ConnectRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("redis not reachable, retrying",
			logger.Int("attempt", attempt),
			logger.Err(err),
			logger.Duration("delay", delay),
		)
	})
	err := r.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrCacheConnection, err)
	}

	log.Debug("redis connected", logger.String("addr", cfg.Addr), logger.Int("db", cfg.DB))
	return newCache(client, cfg.KeyPrefix), nil
}

func newCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) recordsKey(collection string) string {
	return c.prefix + "records:" + collection
}

func (c *Cache) sessionKey(name string) string {
	return c.prefix + "session:" + name
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// ─── JSON values ─────────────────────────────────────────────────────────────

func (c *Cache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// getJSON decodes the value at key into dest, or returns ErrCacheMiss.
func (c *Cache) getJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// IsTransient reports whether err is a network failure worth retrying.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, redis.ErrClosed) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
