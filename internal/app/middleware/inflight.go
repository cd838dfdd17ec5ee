package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pousada/internal/app/commands"
)

var ErrActionInFlight = errors.New("middleware: another action is in flight for this reservation")

// ReservationScoped is implemented by mutations that target one reservation.
type ReservationScoped interface {
	InFlightKey() string
}

// InFlightRegistry tracks which reservations have a mutation being handled.
// It is the server-side counterpart of disabling the triggering control: a
// second mutation on the same reservation is refused, never queued.
type InFlightRegistry struct {
	mu     sync.Mutex
	active map[string]string
}

func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{active: make(map[string]string)}
}

// Acquire marks key busy with action. It returns false when key is already busy.
func (r *InFlightRegistry) Acquire(key, action string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[key]; busy {
		return false
	}
	r.active[key] = action
	return true
}

func (r *InFlightRegistry) Release(key string) {
	r.mu.Lock()
	delete(r.active, key)
	r.mu.Unlock()
}

// Busy returns the action in flight for key, if any.
func (r *InFlightRegistry) Busy(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	action, ok := r.active[key]
	return action, ok
}

func InFlight(registry *InFlightRegistry) CommandMiddleware {
	if registry == nil {
		panic("middleware: in-flight registry required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			scoped, ok := cmd.(ReservationScoped)
			if !ok || scoped.InFlightKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := scoped.InFlightKey()
			if !registry.Acquire(key, cmd.Key()) {
				current, _ := registry.Busy(key)
				return nil, fmt.Errorf("%w: %s", ErrActionInFlight, current)
			}
			defer registry.Release(key)
			return nextFn(ctx, cmd)
		})
	}
}
