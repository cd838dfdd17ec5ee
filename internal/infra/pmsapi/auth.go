package pmsapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pousada/internal/app/policies"
	domainauth "pousada/internal/domain/auth"
)

var _ policies.AuthPort = (*Client)(nil)

func (c *Client) Login(ctx context.Context, creds policies.Credentials) (policies.Grant, error) {
	var out loginWire
	body := loginBodyWire{Email: creds.Email, Password: creds.Password}
	if _, err := c.do(ctx, nil, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return policies.Grant{}, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return policies.Grant{}, fmt.Errorf("%w: login without token", policies.ErrMalformed)
	}
	grant := policies.Grant{Bearer: out.Token}
	if out.Operator != nil {
		grant.OperatorID = out.Operator.ID.String()
		grant.OperatorName = strings.TrimSpace(out.Operator.Name)
	}
	for _, t := range out.Tenants {
		if t.ID.String() == "" {
			continue
		}
		grant.Tenants = append(grant.Tenants, domainauth.Tenant{ID: t.ID.String(), Name: strings.TrimSpace(t.Name)})
	}
	return grant, nil
}
