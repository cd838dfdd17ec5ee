package memory

import (
	"context"
	"sync"
	"time"

	"pousada/internal/app/middleware"
)

// IdempotencyStore stores results in memory. Records older than TTL are
// treated as absent and dropped on the next write.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
	TTL   time.Duration
	Now   func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord), TTL: ttl, Now: time.Now}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, existing := range s.items {
		if s.expired(existing) {
			delete(s.items, k)
		}
	}
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	if s.TTL <= 0 {
		return false
	}
	return s.now().Sub(rec.OccurredAt) > s.TTL
}

func (s *IdempotencyStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
