package dto

import (
	"time"

	domainauth "pousada/internal/domain/auth"
)

type TenantDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionView never exposes the PMS bearer.
type SessionView struct {
	Token        string      `json:"token,omitempty"`
	TenantID     string      `json:"tenant_id"`
	Tenants      []TenantDTO `json:"tenants"`
	OperatorID   string      `json:"operator_id,omitempty"`
	OperatorName string      `json:"operator_name,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

func MapSession(s *domainauth.Session, withToken bool) SessionView {
	view := SessionView{
		TenantID:     s.TenantID,
		Tenants:      make([]TenantDTO, 0, len(s.Tenants)),
		OperatorID:   s.OperatorID,
		OperatorName: s.OperatorName,
		ExpiresAt:    s.ExpiresAt,
	}
	if withToken {
		view.Token = string(s.Token)
	}
	for _, t := range s.Tenants {
		view.Tenants = append(view.Tenants, TenantDTO{ID: t.ID, Name: t.Name})
	}
	return view
}
