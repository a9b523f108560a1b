// Package memory implements the domain repositories as keyed in-memory
// collections. A repository bound to a records.Store writes its whole
// collection on every change and replaces its state from the store on Reload.
// Storage failures are logged and never returned to callers.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ipms/placement-hub/internal/domain/shared"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// Options configures a repository.
type Options struct {
	// Store persists the collection. Nil keeps the repository in memory only.
	Store records.Store

	Logger *logger.Logger

	// Location interprets stored dates and zone-less timestamps.
	Location *time.Location
}

func (o Options) logger() *logger.Logger {
	if o.Logger == nil {
		return logger.Discard()
	}
	return o.Logger
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return timeutil.DefaultZone
	}
	return o.Location
}

// codec converts entities of one collection to and from records.
type codec[T any] struct {
	header []string
	key    func(T) string
	clone  func(T) T
	encode func(T) []string

	// decode returns false for rows that cannot be used (no id).
	decode func(r records.Record, loc *time.Location) (T, bool)
}

// collection is the shared core of every repository.
type collection[T any] struct {
	name  string
	codec codec[T]
	store records.Store
	log   *logger.Logger
	loc   *time.Location
	ids   *shared.IDGenerator

	mu    sync.RWMutex
	items map[string]T
}

func newCollection[T any](name string, c codec[T], ids *shared.IDGenerator, opts Options) *collection[T] {
	return &collection[T]{
		name:  name,
		codec: c,
		store: opts.Store,
		log:   opts.logger().With(logger.Component("repository"), logger.Collection(name)),
		loc:   opts.location(),
		ids:   ids,
		items: make(map[string]T),
	}
}

func (c *collection[T]) put(ctx context.Context, item T) {
	c.mu.Lock()
	key := c.codec.key(item)
	c.items[key] = c.codec.clone(item)
	if c.ids != nil {
		c.ids.Seed(key)
	}
	table := c.tableLocked()
	c.mu.Unlock()

	c.persist(ctx, table)
}

func (c *collection[T]) remove(ctx context.Context, key string) {
	c.mu.Lock()
	if _, ok := c.items[key]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.items, key)
	table := c.tableLocked()
	c.mu.Unlock()

	c.persist(ctx, table)
}

func (c *collection[T]) get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.codec.clone(item), true
}

// all returns clones ordered by id. keep may be nil.
func (c *collection[T]) all(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.sortedKeysLocked()
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		item := c.items[k]
		if keep == nil || keep(item) {
			out = append(out, c.codec.clone(item))
		}
	}
	return out
}

func (c *collection[T]) count(keep func(T) bool) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, item := range c.items {
		if keep(item) {
			n++
		}
	}
	return n
}

func (c *collection[T]) next() string {
	return c.ids.Next()
}

// reload replaces the in-memory state with the stored table. On failure the
// current state is kept and a persistence error is returned.
func (c *collection[T]) reload(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	table, err := c.store.Load(ctx, c.name)
	if err != nil {
		c.log.Error("failed to load collection", logger.Err(err))
		return shared.WrapError(c.name, "Reload", shared.ErrPersistence, "failed to load "+c.name, err)
	}

	items := make(map[string]T, table.Len())
	skipped := 0
	for _, row := range table.Rows {
		item, ok := c.codec.decode(records.Record(row), c.loc)
		if !ok {
			skipped++
			continue
		}
		items[c.codec.key(item)] = item
	}
	if skipped > 0 {
		c.log.Warn("skipped unreadable rows", logger.Int("skipped", skipped))
	}

	c.mu.Lock()
	c.items = items
	if c.ids != nil {
		for k := range items {
			c.ids.Seed(k)
		}
	}
	c.mu.Unlock()

	c.log.Debug("collection loaded", logger.Int("rows", len(items)))
	return nil
}

func (c *collection[T]) persist(ctx context.Context, table records.Table) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, c.name, table); err != nil {
		c.log.Error("failed to save collection, keeping in-memory state",
			logger.Err(err),
			logger.Int("rows", table.Len()),
		)
	}
}

func (c *collection[T]) tableLocked() records.Table {
	keys := c.sortedKeysLocked()
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, c.codec.encode(c.items[k]))
	}
	return records.Table{Header: c.codec.header, Rows: rows}
}

func (c *collection[T]) sortedKeysLocked() []string {
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessID(keys[i], keys[j]) })
	return keys
}

// lessID orders ids by prefix, then numerically by trailing digits, so that
// O999 sorts before O1000.
func lessID(a, b string) bool {
	pa, na, okA := splitID(a)
	pb, nb, okB := splitID(b)
	if okA && okB && strings.EqualFold(pa, pb) && na != nb {
		return na < nb
	}
	return a < b
}

func splitID(id string) (string, int, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return id, 0, false
	}
	return id[:i], n, true
}

func blankID(domain, op, id string) error {
	if shared.IsBlank(id) {
		return shared.Validation(domain, op, "id is required")
	}
	return nil
}
