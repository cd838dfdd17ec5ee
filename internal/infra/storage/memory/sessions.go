package memory

import (
	"context"
	"sync"

	domainauth "pousada/internal/domain/auth"
)

// SessionStore keeps console sessions in process. Callers get copies so a
// tenant switch is only visible after Save.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domainauth.Token]domainauth.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[domainauth.Token]domainauth.Session)}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil || session.Token == "" {
		return domainauth.ErrTokenRequired
	}
	cp := *session
	cp.Tenants = append([]domainauth.Tenant(nil), session.Tenants...)
	s.mu.Lock()
	s.sessions[cp.Token] = cp
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	session.Tenants = append([]domainauth.Tenant(nil), session.Tenants...)
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
