package policies

import (
	"context"

	"github.com/shopspring/decimal"

	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
)

// CreateReservationRequest is what the PMS needs to open a reservation.
type CreateReservationRequest struct {
	GuestID       string
	Stay          daterange.DateRange
	Accommodation accommodation.Ref
	SalesChannel  string
	Payment       *InitialPayment
}

// InitialPayment is sent only when the stay was fully paid up front.
type InitialPayment struct {
	Method folio.PaymentMethod
	Amount decimal.NullDecimal
}

type CreateReservationResult struct {
	ID     reservation.ID
	Status reservation.Status
}

type ChargeRequest struct {
	Type        folio.EntryType
	Description string
	Amount      decimal.Decimal
	Quantity    int
}

type PaymentRequest struct {
	Method folio.PaymentMethod
	Amount decimal.Decimal
}

// ReservationsPort is the PMS REST collaborator. Every call is made on behalf
// of an explicit session and returns the refreshed projection the PMS holds.
type ReservationsPort interface {
	CreateReservation(ctx context.Context, sess domainauth.Session, req CreateReservationRequest) (CreateReservationResult, error)
	GetReservation(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error)
	CheckIn(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error)
	CheckOut(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error)
	Cancel(ctx context.Context, sess domainauth.Session, id reservation.ID, reason string) (reservation.Snapshot, error)
	ExtendStay(ctx context.Context, sess domainauth.Session, id reservation.ID, checkOut string) (reservation.Snapshot, error)
	ChangeAccommodation(ctx context.Context, sess domainauth.Session, id reservation.ID, ref accommodation.Ref) (reservation.Snapshot, error)
	AddCharge(ctx context.Context, sess domainauth.Session, id reservation.ID, req ChargeRequest) (reservation.Snapshot, error)
	AddPayment(ctx context.Context, sess domainauth.Session, id reservation.ID, req PaymentRequest) (reservation.Snapshot, error)
	ListAccommodationOptions(ctx context.Context, sess domainauth.Session, checkIn, checkOut string) ([]accommodation.Option, error)
}
