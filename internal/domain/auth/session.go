package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrTokenRequired    = errors.New("auth: token is required")
	ErrTenantRequired   = errors.New("auth: tenant is required")
	ErrTenantNotAllowed = errors.New("auth: tenant not available for this operator")
	ErrTTLInvalid       = errors.New("auth: ttl must be positive")
	ErrSessionNotFound  = errors.New("auth: session not found")
	ErrConsoleToken     = errors.New("auth: console tokens cannot be passed through")
)

// ConsoleTokenPrefix marks tokens issued by the console. The PMS never
// issues them.
const ConsoleTokenPrefix = "cs_"

func IsConsoleToken(token string) bool {
	return strings.HasPrefix(strings.TrimSpace(token), ConsoleTokenPrefix)
}

// Token identifies a console session.
type Token string

// Tenant is a pousada the operator may act on.
type Tenant struct {
	ID   string
	Name string
}

// Session is the explicit context every PMS call is made with: the bearer the
// PMS issued at login and the pousada currently selected.
type Session struct {
	Token        Token
	Bearer       string
	TenantID     string
	Tenants      []Tenant
	OperatorID   string
	OperatorName string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type CreateSessionParams struct {
	Token        Token
	Bearer       string
	TenantID     string
	Tenants      []Tenant
	OperatorID   string
	OperatorName string
	TTL          time.Duration
	Now          time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return nil, ErrTokenRequired
	}
	bearer := strings.TrimSpace(params.Bearer)
	if bearer == "" {
		return nil, ErrTokenRequired
	}
	if params.TTL <= 0 {
		return nil, ErrTTLInvalid
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	s := &Session{
		Token:        Token(token),
		Bearer:       bearer,
		Tenants:      append([]Tenant(nil), params.Tenants...),
		OperatorID:   params.OperatorID,
		OperatorName: params.OperatorName,
		CreatedAt:    now,
		ExpiresAt:    now.Add(params.TTL),
	}
	tenant := strings.TrimSpace(params.TenantID)
	if tenant == "" && len(s.Tenants) == 1 {
		tenant = s.Tenants[0].ID
	}
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	if err := s.SelectTenant(tenant); err != nil {
		return nil, err
	}
	return s, nil
}

// Passthrough builds a short-lived session straight from request headers for
// clients that already hold a PMS bearer.
func Passthrough(bearer, tenantID string, now time.Time) (*Session, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, ErrTokenRequired
	}
	if IsConsoleToken(bearer) {
		return nil, ErrConsoleToken
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	now = now.UTC()
	return &Session{
		Bearer:    bearer,
		TenantID:  tenantID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}, nil
}

// SelectTenant switches the active pousada. When the PMS listed the tenants
// available to the operator, only those are accepted.
func (s *Session) SelectTenant(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrTenantRequired
	}
	if len(s.Tenants) > 0 {
		found := false
		for _, t := range s.Tenants {
			if t.ID == id {
				found = true
				break
			}
		}
		if !found {
			return ErrTenantNotAllowed
		}
	}
	s.TenantID = id
	return nil
}

func (s *Session) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
}
