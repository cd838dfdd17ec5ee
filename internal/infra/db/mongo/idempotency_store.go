package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pousada/internal/app/middleware"
)

const defaultIdempotencyTTL = 24 * time.Hour

type IdempotencyStore struct {
	col *mongo.Collection
}

// NewIdempotencyStore creates the collection indexes; expired keys are
// removed by the server through the TTL index.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	col := db.Collection("console_idempotency")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds()))},
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"key": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := newIdempotencyDocument(rec, time.Now().UTC())
	_, err := s.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	ID          string    `bson:"_id"`
	Key         string    `bson:"key"`
	Command     string    `bson:"command"`
	Fingerprint string    `bson:"fingerprint"`
	Payload     []byte    `bson:"payload"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newIdempotencyDocument(rec middleware.IdempotencyRecord, now time.Time) idempotencyDocument {
	return idempotencyDocument{
		ID:          rec.Key,
		Key:         rec.Key,
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		OccurredAt:  rec.OccurredAt,
		CreatedAt:   now,
	}
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:         d.Key,
		Command:     d.Command,
		Fingerprint: d.Fingerprint,
		Payload:     d.Payload,
		OccurredAt:  d.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
