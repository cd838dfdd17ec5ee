package reservations

import (
	"context"
	"fmt"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/policies"
	"pousada/internal/app/statement"
	"pousada/internal/app/validation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/money"
)

const (
	addChargeKey       = "reservations.add_charge"
	addPaymentKey      = "reservations.add_payment"
	exportStatementKey = "reservations.export_statement"
)

type AddChargeCommand struct {
	Target
	Charge validation.Charge
}

func (c AddChargeCommand) Key() string { return addChargeKey }

func (c AddChargeCommand) Validate(v *validation.Validator) error {
	if err := c.validateTarget(); err != nil {
		return err
	}
	return v.Charge(c.Charge)
}

type AddChargeHandler struct {
	Workflow *Workflow
}

func (h *AddChargeHandler) Handle(ctx context.Context, cmd AddChargeCommand) (*dto.ReservationView, error) {
	typ, err := folio.ParseEntryType(cmd.Charge.Type)
	if err != nil {
		return nil, validation.Single("type", "must be one of room_charge, product, adjustment")
	}
	amount, err := money.Parse(cmd.Charge.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, validation.Single("amount", "must be a positive amount")
	}
	qty := cmd.Charge.Quantity
	if qty <= 0 {
		qty = 1
	}
	req := policies.ChargeRequest{Type: typ, Description: cmd.Charge.Description, Amount: amount, Quantity: qty}
	w := h.Workflow
	return w.Mutate(ctx, cmd.Session, cmd.ReservationID, reservation.ActionAddCharge, nil, func(ctx context.Context) (reservation.Snapshot, error) {
		return w.Port.AddCharge(ctx, cmd.Session, cmd.ReservationID, req)
	})
}

type AddPaymentCommand struct {
	Target
	Payment validation.Payment
}

func (c AddPaymentCommand) Key() string { return addPaymentKey }

func (c AddPaymentCommand) Validate(v *validation.Validator) error {
	if err := c.validateTarget(); err != nil {
		return err
	}
	return v.Payment(c.Payment)
}

type AddPaymentHandler struct {
	Workflow *Workflow
}

func (h *AddPaymentHandler) Handle(ctx context.Context, cmd AddPaymentCommand) (*dto.ReservationView, error) {
	method, err := folio.ParsePaymentMethod(cmd.Payment.Method)
	if err != nil {
		return nil, validation.Single("method", "must be one of pix, cash, card, booking, airbnb")
	}
	amount, err := money.Parse(cmd.Payment.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, validation.Single("amount", "must be a positive amount")
	}
	req := policies.PaymentRequest{Method: method, Amount: amount}
	w := h.Workflow
	return w.Mutate(ctx, cmd.Session, cmd.ReservationID, reservation.ActionAddPayment, nil, func(ctx context.Context) (reservation.Snapshot, error) {
		return w.Port.AddPayment(ctx, cmd.Session, cmd.ReservationID, req)
	})
}

// ExportStatementCommand renders the current folio and stores it. It does
// not change the reservation, so it is not serialized with mutations.
type ExportStatementCommand struct {
	Session       domainauth.Session
	ReservationID reservation.ID
}

func (c ExportStatementCommand) Key() string { return exportStatementKey }

func (c ExportStatementCommand) SessionContext() domainauth.Session { return c.Session }

func (c ExportStatementCommand) Validate(*validation.Validator) error {
	return Target{ReservationID: c.ReservationID}.validateTarget()
}

type ExportStatementHandler struct {
	Workflow *Workflow
	Store    policies.StatementStore
}

func (h *ExportStatementHandler) Handle(ctx context.Context, cmd ExportStatementCommand) (*dto.StatementResult, error) {
	if h.Store == nil {
		return nil, ErrStatementsDisabled
	}
	w := h.Workflow
	r, err := w.Load(ctx, cmd.Session, cmd.ReservationID, true)
	if err != nil {
		return nil, err
	}
	data, err := statement.Render(r)
	if err != nil {
		return nil, fmt.Errorf("reservations: render statement: %w", err)
	}
	key := statement.ObjectKey(cmd.Session.TenantID, r, w.now())
	url, err := h.Store.Put(ctx, key, statement.ContentType, data)
	if err != nil {
		return nil, fmt.Errorf("reservations: store statement: %w", err)
	}
	w.Logger.Info("statement exported", "reservation_id", string(r.ID), "tenant_id", cmd.Session.TenantID, "key", key)
	return &dto.StatementResult{Key: key, URL: url, Lines: len(r.Folio.Entries) + len(r.Folio.Payments)}, nil
}

var _ commands.Handler[AddChargeCommand, *dto.ReservationView] = (*AddChargeHandler)(nil)
var _ commands.Handler[AddPaymentCommand, *dto.ReservationView] = (*AddPaymentHandler)(nil)
var _ commands.Handler[ExportStatementCommand, *dto.StatementResult] = (*ExportStatementHandler)(nil)
