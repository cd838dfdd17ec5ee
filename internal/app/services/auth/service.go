package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pousada/internal/app/policies"
	domainauth "pousada/internal/domain/auth"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service keeps console sessions. The PMS authenticates the operator; the
// console only remembers the bearer it issued and the selected pousada.
type Service struct {
	PMS        policies.AuthPort
	Sessions   domainauth.SessionStore
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

type LoginParams struct {
	Email    string
	Password string
	TenantID string
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*domainauth.Session, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" || params.Password == "" {
		return nil, ErrInvalidCredentials
	}
	grant, err := s.PMS.Login(ctx, policies.Credentials{Email: email, Password: params.Password})
	if err != nil {
		if errors.Is(err, policies.ErrUnauthorized) || policies.IsRejection(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:        domainauth.Token(token),
		Bearer:       grant.Bearer,
		TenantID:     params.TenantID,
		Tenants:      grant.Tenants,
		OperatorID:   grant.OperatorID,
		OperatorName: grant.OperatorName,
		TTL:          s.sessionTTL(),
		Now:          s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger().Info("operator authenticated", "operator_id", session.OperatorID, "tenant_id", session.TenantID)
	return session, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil {
		return err
	}
	s.logger().Info("session terminated")
	return nil
}

// Resolve returns the live session for token. Expired sessions are removed.
func (s *Service) Resolve(ctx context.Context, token string) (*domainauth.Session, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

// SwitchTenant changes the pousada every later call is scoped to.
func (s *Service) SwitchTenant(ctx context.Context, token, tenantID string) (*domainauth.Session, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	previous := session.TenantID
	if err := session.SelectTenant(tenantID); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger().Info("tenant switched", "operator_id", session.OperatorID, "from", previous, "to", session.TenantID)
	return session, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 12 * time.Hour
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.PMS == nil:
		return errors.New("auth: pms auth port required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
