// Package cache keeps recently extracted fact records in a bounded LRU store
// shared by all extraction workers.
package cache

import (
	"container/list"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utapyngo/code-analyzer/internal/guard"
	"github.com/utapyngo/code-analyzer/internal/model"
)

// DefaultCapacity is used when a non-positive capacity is configured.
const DefaultCapacity = 100

// Key identifies one fact record. Changing any field is a different entry.
type Key struct {
	Path    string
	ModTime time.Time
	Mode    model.Mode
}

// id is the comparable form of Key. time.Time carries a monotonic reading
// and a location pointer, so it is reduced to nanoseconds here.
type id struct {
	path  string
	mtime int64
	mode  model.Mode
}

func (k Key) id() id {
	return id{path: k.Path, mtime: k.ModTime.UnixNano(), mode: k.Mode}
}

type entry struct {
	key   id
	facts *model.Facts
}

// store is the state protected by the guard. Front of order is most recent.
type store struct {
	items map[id]*list.Element
	order *list.List
}

func newStore(capacity int) store {
	return store{
		items: make(map[id]*list.Element, capacity),
		order: list.New(),
	}
}

// Cache is a capacity-bounded LRU of fact records, safe for concurrent use.
type Cache struct {
	capacity int
	state    *guard.Value[store]
	logger   *slog.Logger
	metrics  *metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics registers hit, miss and eviction counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		if reg != nil {
			c.metrics = newMetrics(reg)
		}
	}
}

// New creates a cache holding up to capacity records. A capacity of zero or
// less falls back to DefaultCapacity.
func New(capacity int, opts ...Option) *Cache {
	c := &Cache{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if capacity <= 0 {
		c.logger.Warn("cache.invalid_capacity",
			"capacity", capacity,
			"fallback", DefaultCapacity,
		)
		capacity = DefaultCapacity
	}
	c.capacity = capacity
	c.state = guard.New(newStore(capacity), func(s *store) {
		*s = newStore(capacity)
	})
	return c
}

// Capacity returns the maximum number of records kept.
func (c *Cache) Capacity() int { return c.capacity }

// Get returns a copy of the record stored under key. The copy is independent
// of the cache; later eviction or replacement does not affect it.
func (c *Cache) Get(key Key) (*model.Facts, bool) {
	k := key.id()
	var found *model.Facts
	c.state.Do(func(s *store) {
		if elem, ok := s.items[k]; ok {
			s.order.MoveToFront(elem)
			found = elem.Value.(*entry).facts
		}
	})

	if found == nil {
		c.metrics.miss()
		return nil, false
	}
	c.metrics.hit()
	return found.Clone(), true
}

// Put stores facts under key, evicting the least recently used record when
// the cache is full. The record must not be mutated after it is stored.
func (c *Cache) Put(key Key, facts *model.Facts) {
	if facts == nil {
		return
	}
	k := key.id()
	evicted := 0
	c.state.Do(func(s *store) {
		if elem, ok := s.items[k]; ok {
			s.order.MoveToFront(elem)
			elem.Value.(*entry).facts = facts
			return
		}
		for s.order.Len() >= c.capacity {
			oldest := s.order.Back()
			s.order.Remove(oldest)
			delete(s.items, oldest.Value.(*entry).key)
			evicted++
		}
		s.items[k] = s.order.PushFront(&entry{key: k, facts: facts})
	})
	c.metrics.evict(evicted)
}

// Len returns the number of stored records.
func (c *Cache) Len() int {
	var n int
	c.state.Do(func(s *store) { n = s.order.Len() })
	return n
}

// Purge drops every record.
func (c *Cache) Purge() {
	c.state.Do(func(s *store) { *s = newStore(c.capacity) })
}
