package queries

import (
	"context"
	"fmt"
	"sync"
)

type rawHandler func(ctx context.Context, q Query) (any, error)

type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) RegisterRaw(key string, handler rawHandler) {
	if key == "" {
		panic("queries: empty key registration")
	}
	b.mu.Lock()
	b.handlers[key] = handler
	b.mu.Unlock()
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return h(ctx, query)
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	bus.RegisterRaw(key, func(ctx context.Context, raw Query) (any, error) {
		q, ok := any(raw).(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, q)
	})
}
