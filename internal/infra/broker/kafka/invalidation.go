package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	"pousada/internal/domain/reservation"
)

var ErrUnroutableChange = errors.New("kafka: change notice without tenant or reservation")

// Invalidator drops a cached reservation so the next read goes to the PMS.
type Invalidator interface {
	Invalidate(tenantID string, id reservation.ID)
}

// changeNotice is the subset of an upstream change event the console reads.
// Both CloudEvents fields and the PMS feed field names are accepted.
type changeNotice struct {
	Subject   string `json:"subject"`
	TenantID  string `json:"tenantid"`
	PousadaID string `json:"pousadaId"`
	ReservaID string `json:"reservaId"`
	Data      struct {
		ReservationID string `json:"reservation_id"`
		ReservaID     string `json:"reservaId"`
	} `json:"data"`
}

// InvalidationHandler keeps cached reservations honest when the PMS changes
// them outside this console. Messages carry the tenant in the tenant_id
// header or body and the reservation id in the record key or body.
type InvalidationHandler struct {
	Cache  Invalidator
	Logger *slog.Logger
}

func (h InvalidationHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	tenant, id := route(msg)
	if tenant == "" || id == "" {
		return ErrUnroutableChange
	}
	h.Cache.Invalidate(tenant, reservation.ID(id))
	if h.Logger != nil {
		h.Logger.Debug("reservation invalidated by change feed", "tenant_id", tenant, "reservation_id", id)
	}
	return nil
}

func route(msg *sarama.ConsumerMessage) (tenant, id string) {
	for _, hdr := range msg.Headers {
		if hdr != nil && strings.EqualFold(string(hdr.Key), "tenant_id") {
			tenant = strings.TrimSpace(string(hdr.Value))
		}
	}
	id = strings.TrimSpace(string(msg.Key))

	var notice changeNotice
	if len(msg.Value) > 0 && json.Unmarshal(msg.Value, &notice) == nil {
		tenant = firstNonEmpty(tenant, notice.TenantID, notice.PousadaID)
		id = firstNonEmpty(id, notice.Subject, notice.ReservaID, notice.Data.ReservationID, notice.Data.ReservaID)
	}
	return tenant, id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
