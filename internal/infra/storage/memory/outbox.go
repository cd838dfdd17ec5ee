package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	appoutbox "pousada/internal/app/outbox"
)

var ErrOutboxRecordNotFound = errors.New("memory: outbox record not found")

type outboxState int

const (
	stateNew outboxState = iota
	stateClaimed
	stateSent
	stateFailed
)

type outboxItem struct {
	record    appoutbox.EventRecord
	state     outboxState
	attempts  int
	nextAt    time.Time
	claimedBy string
	lastError string
}

// Outbox keeps records in memory and serves them to the relay worker in
// insertion order. Sent records are dropped.
type Outbox struct {
	mu    sync.Mutex
	items []*outboxItem
	Now   func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{Now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, &outboxItem{record: record, state: stateNew, nextAt: o.now()})
	return nil
}

// Flush is a no-op: records are visible to the relay as soon as they are added.
func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*appoutbox.Claimed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, it := range o.items {
		if it.state != stateNew && it.state != stateFailed {
			continue
		}
		if it.nextAt.After(now) {
			continue
		}
		it.state = stateClaimed
		it.claimedBy = workerID
		return &appoutbox.Claimed{Record: it.record, Attempts: it.attempts}, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, it := range o.items {
		if it.record.ID == id {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return nil
		}
	}
	return ErrOutboxRecordNotFound
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, it := range o.items {
		if it.record.ID == id {
			it.state = stateFailed
			it.attempts++
			it.nextAt = next
			it.lastError = errMsg
			return nil
		}
	}
	return ErrOutboxRecordNotFound
}

// Pending reports how many records have not been sent yet.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

func (o *Outbox) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	_ appoutbox.Outbox = (*Outbox)(nil)
	_ appoutbox.Relay  = (*Outbox)(nil)
)
