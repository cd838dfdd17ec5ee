package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainauth "pousada/internal/domain/auth"
)

// SessionStore persists console sessions so they survive restarts. Documents
// expire on their expires_at through a zero-second TTL index.
type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(ctx context.Context, db *mongo.Database) (*SessionStore, error) {
	col := db.Collection("console_sessions")
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, err
	}
	return &SessionStore{col: col}, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil || session.Token == "" {
		return domainauth.ErrTokenRequired
	}
	doc := newSessionDocument(session)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var doc sessionDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(token)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	return doc.toSession(), nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": string(token)})
	return err
}

type tenantDocument struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`
}

type sessionDocument struct {
	ID           string           `bson:"_id"`
	Bearer       string           `bson:"bearer"`
	TenantID     string           `bson:"tenant_id"`
	Tenants      []tenantDocument `bson:"tenants"`
	OperatorID   string           `bson:"operator_id"`
	OperatorName string           `bson:"operator_name"`
	CreatedAt    time.Time        `bson:"created_at"`
	ExpiresAt    time.Time        `bson:"expires_at"`
}

func newSessionDocument(s *domainauth.Session) sessionDocument {
	doc := sessionDocument{
		ID:           string(s.Token),
		Bearer:       s.Bearer,
		TenantID:     s.TenantID,
		OperatorID:   s.OperatorID,
		OperatorName: s.OperatorName,
		CreatedAt:    s.CreatedAt.UTC(),
		ExpiresAt:    s.ExpiresAt.UTC(),
	}
	for _, t := range s.Tenants {
		doc.Tenants = append(doc.Tenants, tenantDocument{ID: t.ID, Name: t.Name})
	}
	return doc
}

func (d sessionDocument) toSession() *domainauth.Session {
	s := &domainauth.Session{
		Token:        domainauth.Token(d.ID),
		Bearer:       d.Bearer,
		TenantID:     d.TenantID,
		OperatorID:   d.OperatorID,
		OperatorName: d.OperatorName,
		CreatedAt:    d.CreatedAt.UTC(),
		ExpiresAt:    d.ExpiresAt.UTC(),
	}
	for _, t := range d.Tenants {
		s.Tenants = append(s.Tenants, domainauth.Tenant{ID: t.ID, Name: t.Name})
	}
	return s
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
