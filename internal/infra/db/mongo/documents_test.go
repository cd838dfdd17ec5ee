package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"pousada/internal/app/middleware"
	domainauth "pousada/internal/domain/auth"
)

func TestSessionDocument_BSONRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sess := &domainauth.Session{
		Token:        "cs_abc",
		Bearer:       "pms-token",
		TenantID:     "p2",
		Tenants:      []domainauth.Tenant{{ID: "p1", Name: "Sol"}, {ID: "p2", Name: "Mar"}},
		OperatorID:   "7",
		OperatorName: "Rita",
		CreatedAt:    now,
		ExpiresAt:    now.Add(12 * time.Hour),
	}

	raw, err := bson.Marshal(newSessionDocument(sess))
	assert.NoError(t, err)
	var doc sessionDocument
	assert.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, sess, doc.toSession())
}

func TestIdempotencyDocument_KeepsFingerprint(t *testing.T) {
	rec := middleware.IdempotencyRecord{
		Key:         "reservations.create:k1",
		Command:     "reservations.create",
		Fingerprint: "abc",
		Payload:     []byte(`{"id":"1"}`),
		OccurredAt:  time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	doc := newIdempotencyDocument(rec, rec.OccurredAt)
	assert.Equal(t, rec.Key, doc.ID)
	assert.Equal(t, rec, doc.toRecord())
}
