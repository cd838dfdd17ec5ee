package outbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	appoutbox "pousada/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays outbox records to the broker wrapped in a CloudEvents
// envelope. A failed publish is rescheduled using Backoff.
type Worker struct {
	Relay       appoutbox.Relay
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Relay == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger().Error("outbox relay failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// drain publishes records until none is due.
func (w *Worker) drain(ctx context.Context) error {
	for {
		sent, err := w.processOnce(ctx)
		if err != nil || !sent {
			return err
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	claimed, err := w.Relay.Claim(ctx, w.ID)
	if err != nil || claimed == nil {
		return false, err
	}
	rec := claimed.Record
	topic := w.topicFor(rec.Name)
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		return true, w.fail(ctx, rec, claimed.Attempts, err)
	}
	if err := w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers); err != nil {
		return false, w.fail(ctx, rec, claimed.Attempts, err)
	}
	return true, w.Relay.MarkSent(ctx, rec.ID)
}

func (w *Worker) fail(ctx context.Context, rec appoutbox.EventRecord, attempts int, cause error) error {
	w.logger().Warn("outbox publish failed", "event_id", rec.ID, "event", rec.Name, "attempts", attempts+1, "error", cause)
	return w.Relay.MarkFailed(ctx, rec.ID, w.nextRetry(attempts), cause.Error())
}

func (w *Worker) formatPayload(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	var data map[string]any
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt.UTC().Format(time.RFC3339Nano),
		"datacontenttype": "application/json",
		"data":            data,
	}
	if tenant, ok := rec.Headers["tenant_id"]; ok {
		evt["tenantid"] = tenant
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "reservation.status_changed" to "<prefix>reservation.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://pousada-console"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// LogProducer writes events to the log instead of a broker. It is used when
// no Kafka brokers are configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("event published", "topic", topic, "key", key, "bytes", len(payload), "tenant_id", headers["tenant_id"])
	return nil
}
