package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type rawHandler func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus keeps handlers in a map keyed by Command.Key.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

// RegisterRaw panics on an empty or duplicate key; both are wiring bugs.
func (b *InMemoryBus) RegisterRaw(key string, handler rawHandler) {
	if key == "" {
		panic("commands: empty key registration")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Errorf("%w: %s", ErrDuplicateKey, key))
	}
	b.handlers[key] = handler
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return h(ctx, cmd)
}

// Keys lists registered command keys in sorted order.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterHandler registers a typed handler under one or more keys. Several
// keys share one handler when a command type carries its key at runtime, as
// the lifecycle transitions do.
func RegisterHandler[C Command, R any](bus *InMemoryBus, handler Handler[C, R], keys ...string) {
	if bus == nil {
		panic("commands: nil bus")
	}
	if len(keys) == 0 {
		panic("commands: no keys for handler")
	}
	for _, key := range keys {
		key := key
		bus.RegisterRaw(key, func(ctx context.Context, raw Command) (any, error) {
			cmd, ok := any(raw).(C)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, key)
			}
			return handler.Handle(ctx, cmd)
		})
	}
}
