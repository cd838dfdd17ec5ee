package policies

import (
	"context"

	domainauth "pousada/internal/domain/auth"
)

type Credentials struct {
	Email    string
	Password string
}

// Grant is what the PMS hands back on a successful login.
type Grant struct {
	Bearer       string
	OperatorID   string
	OperatorName string
	Tenants      []domainauth.Tenant
}

type AuthPort interface {
	Login(ctx context.Context, creds Credentials) (Grant, error)
}
