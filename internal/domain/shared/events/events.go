package events

import "time"

// DomainEvent is a fact about an aggregate that the console observed after the
// PMS accepted a change.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects events raised by an aggregate until they are drained
// into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// Drain returns the pending events and forgets them.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
