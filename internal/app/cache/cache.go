// Package cache holds projections fetched from the PMS, keyed by an opaque
// string such as tenant plus reservation id.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrNilFetch = errors.New("cache: fetch function required")

// FetchFunc loads the value for a key from the upstream. It receives a
// context detached from any single caller.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	expiresAt time.Time
	loaded    bool
}

// Store caches values per key. Concurrent misses for one key share a single
// upstream call. Every Set or Invalidate stamps the key with a new sequence
// number so that a fetch which started earlier never overwrites newer data.
// Keys without a stamp read as floor, the highest stamp pruned so far.
type Store[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu          sync.Mutex
	entries     map[string]entry[T]
	generations map[string]uint64
	seq         uint64
	floor       uint64
}

type Option[T any] func(*Store[T])

// WithClock overrides time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) { s.now = now }
}

func New[T any](ttl time.Duration, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		ttl:         ttl,
		now:         time.Now,
		entries:     make(map[string]entry[T]),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Peek returns the cached value without fetching. Expired entries are misses.
func (s *Store[T]) Peek(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.loaded || (s.ttl > 0 && !s.now().Before(e.expiresAt)) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Get returns the cached value or fetches it. If ctx ends before the fetch
// completes, Get returns ctx.Err() and the fetch keeps running for the other
// waiters and for the cache.
func (s *Store[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	if v, ok := s.Peek(key); ok {
		return v, nil
	}
	return s.load(ctx, key, fetch)
}

// Refresh always fetches, sharing any call already in flight for key.
func (s *Store[T]) Refresh(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	return s.load(ctx, key, fetch)
}

func (s *Store[T]) load(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	var zero T
	if fetch == nil {
		return zero, ErrNilFetch
	}
	gen := s.generation(key)
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		v, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		s.storeIfCurrent(key, gen, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Set stores a value the caller knows to be current, e.g. the projection the
// PMS returned from a mutation. It wins over any fetch still in flight.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(key)
	s.entries[key] = entry[T]{value: value, expiresAt: s.now().Add(s.ttl), loaded: true}
}

// Invalidate drops the entry and discards results of fetches already running.
func (s *Store[T]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(key)
	delete(s.entries, key)
	s.group.Forget(key)
}

// InvalidatePrefix drops every entry whose key starts with prefix. Fetches
// still running for keys that were never stored are discarded as well.
func (s *Store[T]) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	removed := 0
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			s.group.Forget(k)
			removed++
		}
	}
	for k := range s.generations {
		if strings.HasPrefix(k, prefix) {
			s.generations[k] = s.seq
		}
	}
	s.floor = s.seq
	return removed
}

// Len counts entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and forgets the stamps of keys that no
// longer hold an entry.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	if s.ttl > 0 {
		now := s.now()
		for k, e := range s.entries {
			if !now.Before(e.expiresAt) {
				delete(s.entries, k)
				removed++
			}
		}
	}
	for k, gen := range s.generations {
		if _, ok := s.entries[k]; ok {
			continue
		}
		if gen > s.floor {
			s.floor = gen
		}
		delete(s.generations, k)
	}
	return removed
}

func (s *Store[T]) bump(key string) {
	s.seq++
	s.generations[key] = s.seq
}

func (s *Store[T]) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stamp(key)
}

func (s *Store[T]) stamp(key string) uint64 {
	if gen, ok := s.generations[key]; ok {
		return gen
	}
	return s.floor
}

func (s *Store[T]) storeIfCurrent(key string, gen uint64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stamp(key) != gen {
		return
	}
	s.entries[key] = entry[T]{value: value, expiresAt: s.now().Add(s.ttl), loaded: true}
}
