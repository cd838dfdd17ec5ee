package outbox

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"pousada/internal/domain/shared/events"
)

// EventRecord is a domain event serialized for relaying to the broker.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox accepts records produced while handling a command.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Claimed is a record leased to a relay worker.
type Claimed struct {
	Record   EventRecord
	Attempts int
}

// Relay is the worker side of the outbox. Claim returns nil when nothing is due.
type Relay interface {
	Claim(ctx context.Context, workerID string) (*Claimed, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
	// Headers are copied onto every record, e.g. the tenant the event belongs to.
	Headers map[string]string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = v
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

// RecordDomainEvents encodes evs and adds them to box in order.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
