package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"pousada/internal/app/commands"
	"pousada/internal/app/queries"
	"pousada/internal/domain/auth"
)

var ErrSessionRequired = errors.New("middleware: active session required")

// SessionScoped is implemented by messages that act on behalf of an operator.
type SessionScoped interface {
	SessionContext() auth.Session
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// SessionAuthorizer rejects scoped messages whose session lacks a bearer or a
// tenant, or has expired. Other messages pass through.
type SessionAuthorizer struct {
	Now func() time.Time
}

func (a SessionAuthorizer) Authorize(_ context.Context, message any) error {
	scoped, ok := message.(SessionScoped)
	if !ok {
		return nil
	}
	sess := scoped.SessionContext()
	if strings.TrimSpace(sess.Bearer) == "" || strings.TrimSpace(sess.TenantID) == "" {
		return ErrSessionRequired
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	if !sess.ExpiresAt.IsZero() && sess.Expired(now()) {
		return ErrSessionRequired
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
