// Package cache holds the resources read from the backend until a mutation makes them stale.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// DefaultSize is the default number of cached resources.
const DefaultSize = 256

// Keys of the cached resources.
const (
	Items      = "inventory"
	Recoveries = "recoveries"
	Highlights = "highlights"
)

type (
	// A Store is a read cache keyed by logical resource.
	// It is safe for concurrent use.
	Store struct {
		lru        *lru.Cache[string, entry]
		ttl        time.Duration
		generation atomic.Uint64
		now        func() time.Time
	}

	entry struct {
		value     any
		expiresAt time.Time
	}
)

// Item returns the key of the item detail for the given id.
func Item(id string) string {
	return Items + "/" + id
}

// New returns a new Store holding up to size resources.
// A zero ttl keeps the resources until they are invalidated or evicted.
func New(size int, ttl time.Duration) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}

	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, errors.Wrap(err, "could not create cache")
	}

	return &Store{
		lru: l,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Get returns the cached value for the given key.
func (s *Store) Get(key string) (any, bool) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}

	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set caches the value for the given key.
func (s *Store) Set(key string, value any) {
	e := entry{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.lru.Add(key, e)
}

// Invalidate discards the given keys.
func (s *Store) Invalidate(keys ...string) {
	s.generation.Add(1)
	for _, key := range keys {
		s.lru.Remove(key)
	}
}

// Purge discards everything.
func (s *Store) Purge() {
	s.generation.Add(1)
	s.lru.Purge()
}

// Len returns the number of cached resources.
func (s *Store) Len() int {
	return s.lru.Len()
}

// Fetch returns the cached value for key or loads it.
// A value loaded while an invalidation happened is returned but not cached.
func Fetch[T any](ctx context.Context, s *Store, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := s.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	generation := s.generation.Load()
	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if s.generation.Load() == generation {
		s.Set(key, v)
	}
	return v, nil
}
