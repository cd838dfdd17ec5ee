package reservations

import (
	"context"

	"github.com/shopspring/decimal"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/middleware"
	"pousada/internal/app/policies"
	"pousada/internal/app/validation"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
	"pousada/internal/domain/shared/money"
)

const createReservationKey = "reservations.create"

type CreateReservationCommand struct {
	Session         domainauth.Session
	Draft           validation.Draft
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) SessionContext() domainauth.Session { return c.Session }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

// Fingerprint covers the tenant and the normalized draft.
func (c CreateReservationCommand) Fingerprint() string {
	return middleware.FingerprintOf(struct {
		Tenant string           `json:"tenant"`
		Draft  validation.Draft `json:"draft"`
	}{c.Session.TenantID, c.Draft.Normalize()})
}

func (c CreateReservationCommand) ResultPrototype() any { return &dto.CreatedReservation{} }

func (c CreateReservationCommand) Validate(v *validation.Validator) error { return v.Draft(c.Draft) }

type CreateReservationHandler struct {
	Workflow *Workflow
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*dto.CreatedReservation, error) {
	d := cmd.Draft.Normalize()
	stay, err := daterange.Parse(d.CheckIn, d.CheckOut)
	if err != nil {
		return nil, validation.Single("check_out", "must be after check-in")
	}
	ref, ok := accommodation.ParseSelection(d.Accommodation)
	if !ok {
		return nil, validation.Single("accommodation", "must be a valid accommodation selection")
	}
	req := policies.CreateReservationRequest{
		GuestID:       d.GuestID,
		Stay:          stay,
		Accommodation: ref,
		SalesChannel:  d.SalesChannel,
	}
	if d.FullyPaid {
		method, err := folio.ParsePaymentMethod(d.PaymentMethod)
		if err != nil {
			return nil, validation.Single("payment_method", "must be one of pix, cash, card, booking, airbnb")
		}
		payment := &policies.InitialPayment{Method: method}
		if d.PaymentAmount != "" {
			amount, err := money.Parse(d.PaymentAmount)
			if err != nil {
				return nil, validation.Single("payment_amount", "must be a positive amount")
			}
			payment.Amount = decimal.NewNullDecimal(amount)
		}
		req.Payment = payment
	}

	w := h.Workflow
	res, err := w.Port.CreateReservation(ctx, cmd.Session, req)
	if err != nil {
		w.Logger.Warn("create reservation failed", "tenant_id", cmd.Session.TenantID, "error", err)
		return nil, err
	}
	created := &reservation.Reservation{ID: res.ID}
	created.Record(reservation.Created{
		ReservationID: res.ID,
		GuestID:       d.GuestID,
		Status:        res.Status,
		CheckIn:       stay.CheckInString(),
		CheckOut:      stay.CheckOutString(),
		Accommodation: ref.Token(),
		At:            w.now(),
	})
	w.publish(ctx, cmd.Session.TenantID, created)
	w.Logger.Info("reservation created", "reservation_id", string(res.ID), "tenant_id", cmd.Session.TenantID, "status", string(res.Status))
	return &dto.CreatedReservation{ID: string(res.ID), Status: string(res.Status)}, nil
}

var _ commands.Handler[CreateReservationCommand, *dto.CreatedReservation] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = CreateReservationCommand{}
var _ middleware.SessionScoped = CreateReservationCommand{}
