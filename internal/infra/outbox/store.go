package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "pousada/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// claimLease is how long a claimed record stays with a worker before another
// worker may pick it up again.
const claimLease = time.Minute

// Store is the Mongo-backed outbox. Records are inserted as they are added,
// so Flush has nothing to do.
type Store struct {
	col *mongo.Collection
}

func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	col := db.Collection("console_outbox")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		{Keys: bson.D{{Key: "sent_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32((7 * 24 * time.Hour).Seconds())).SetSparse(true)},
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col}, nil
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *Store) Flush(context.Context) error {
	return nil
}

type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	CreatedAt   time.Time         `bson:"created_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      *time.Time        `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

func (d EventDocument) claimed() *appoutbox.Claimed {
	return &appoutbox.Claimed{
		Record: appoutbox.EventRecord{
			ID:         d.ID,
			Name:       d.Name,
			Payload:    d.Payload,
			OccurredAt: d.OccurredAt,
			Aggregate:  d.Aggregate,
			Headers:    d.Headers,
		},
		Attempts: d.Attempts,
	}
}

func (s *Store) Claim(ctx context.Context, workerID string) (*appoutbox.Claimed, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": bson.A{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-claimLease)}},
	}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc EventDocument
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.claimed(), nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": time.Now().UTC()}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           stateFailed,
			"next_attempt_at": next.UTC(),
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

var (
	_ appoutbox.Outbox = (*Store)(nil)
	_ appoutbox.Relay  = (*Store)(nil)
)
