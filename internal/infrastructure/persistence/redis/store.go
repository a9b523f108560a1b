package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
	"github.com/ipms/placement-hub/pkg/retry"
)

// Store is a records.Store keeping each collection in one list. Element 0 is
// the header; each element is a JSON array of fields.
type Store struct {
	cache   *Cache
	retrier *retry.Retrier
}

// NewStore returns a store over cache.
func NewStore(cache *Cache) *Store {
	return &Store{cache: cache, retrier: retry.StoreRetrier()}
}

// Load reads the collection list. A missing key is an empty table.
func (s *Store) Load(ctx context.Context, collection string) (records.Table, error) {
	return retry.DoWithData(ctx, s.retrier, func(ctx context.Context) (records.Table, error) {
		items, err := s.cache.client.LRange(ctx, s.cache.recordsKey(collection), 0, -1).Result()
		if err != nil {
			return records.Table{}, classify(fmt.Errorf("redis: load %s: %w", collection, err))
		}

		var t records.Table
		for i, item := range items {
			var fields []string
			if err := json.Unmarshal([]byte(item), &fields); err != nil {
				return records.Table{}, fmt.Errorf("redis: decode %s[%d]: %w", collection, i, err)
			}
			if i == 0 {
				t.Header = fields
				continue
			}
			t.Rows = append(t.Rows, fields)
		}
		return t, nil
	})
}

// Save replaces the list atomically with DEL + RPUSH in one MULTI.
func (s *Store) Save(ctx context.Context, collection string, t records.Table) error {
	values := make([]any, 0, len(t.Rows)+1)
	for _, fields := range append([][]string{t.Header}, t.Rows...) {
		if fields == nil {
			fields = []string{}
		}
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("redis: encode %s: %w", collection, err)
		}
		values = append(values, string(data))
	}

	key := s.cache.recordsKey(collection)
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.cache.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			return nil
		})
		if err != nil {
			return classify(fmt.Errorf("redis: save %s: %w", collection, err))
		}
		return nil
	})
}

// Close closes the client.
func (s *Store) Close() error {
	return s.cache.Close()
}

func classify(err error) error {
	if IsTransient(err) {
		return retry.Retryable(err)
	}
	return err
}
