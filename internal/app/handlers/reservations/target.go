package reservations

import (
	"strings"

	"pousada/internal/app/validation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
)

// Target is embedded by every mutation on an existing reservation. It scopes
// the command to a session and marks the reservation busy while handled.
type Target struct {
	Session       domainauth.Session
	ReservationID reservation.ID
}

func (t Target) SessionContext() domainauth.Session { return t.Session }

func (t Target) InFlightKey() string {
	if t.ReservationID == "" {
		return ""
	}
	return CacheKey(t.Session.TenantID, t.ReservationID)
}

func (t Target) validateTarget() error {
	if strings.TrimSpace(string(t.ReservationID)) == "" {
		return validation.Single("id", "is required")
	}
	return nil
}
