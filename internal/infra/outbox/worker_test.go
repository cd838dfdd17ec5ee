package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "pousada/internal/app/outbox"
	"pousada/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func newWorker(relay appoutbox.Relay, producer Producer, now func() time.Time) *Worker {
	return &Worker{
		Relay:       relay,
		Producer:    producer,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		TopicPrefix: "pousada.",
		ID:          "w1",
		Backoff:     []time.Duration{time.Second, time.Minute},
		Now:         now,
	}
}

func TestWorker_PublishesCloudEvent(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{
		ID:         "ev-1",
		Name:       "reservation.status_changed",
		Payload:    []byte(`{"reservation_id":"42","to":"checked_in"}`),
		OccurredAt: at,
		Aggregate:  "42",
		Headers:    map[string]string{"tenant_id": "p1"},
	}))
	producer := &fakeProducer{}
	w := newWorker(box, producer, time.Now)

	require.NoError(t, w.drain(ctx))
	require.Len(t, producer.sent, 1)
	msg := producer.sent[0]
	assert.Equal(t, "pousada.reservation.events.v1", msg.topic)
	assert.Equal(t, "42", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])
	assert.Equal(t, "p1", msg.headers["tenant_id"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "ev-1", evt["id"])
	assert.Equal(t, "reservation.status_changed.v1", evt["type"])
	assert.Equal(t, "p1", evt["tenantid"])
	data := evt["data"].(map[string]any)
	assert.Equal(t, "checked_in", data["to"])
	assert.Equal(t, 0, box.Pending())
}

func TestWorker_FailedPublishIsRescheduled(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	box := memory.NewOutbox()
	box.Now = clock
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "ev-1", Name: "reservation.created", Payload: []byte(`{}`)}))

	producer := &fakeProducer{err: errors.New("broker down")}
	w := newWorker(box, producer, clock)
	require.NoError(t, w.drain(ctx))
	assert.Equal(t, 1, box.Pending())

	producer.err = nil
	require.NoError(t, w.drain(ctx))
	assert.Empty(t, producer.sent, "retry is not due before the backoff elapses")

	now = now.Add(2 * time.Second)
	require.NoError(t, w.drain(ctx))
	assert.Len(t, producer.sent, 1)
	assert.Equal(t, 0, box.Pending())
}

func TestWorker_RequiresDependencies(t *testing.T) {
	w := &Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerNotConfigured)
}

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "reservation.events.v1", w.topicFor("reservation.created"))
	assert.Equal(t, "plain.events.v1", w.topicFor("plain"))
}
