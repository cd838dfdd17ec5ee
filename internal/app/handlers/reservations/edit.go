package reservations

import (
	"context"
	"strings"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/validation"
	"pousada/internal/domain/accommodation"
	"pousada/internal/domain/reservation"
)

const (
	extendStayKey          = "reservations.extend_stay"
	changeAccommodationKey = "reservations.change_accommodation"
)

// ExtendStayCommand moves the checkout of a reservation; check-in is kept.
type ExtendStayCommand struct {
	Target
	CheckOut string
}

func (c ExtendStayCommand) Key() string { return extendStayKey }

func (c ExtendStayCommand) Validate(v *validation.Validator) error {
	if err := c.validateTarget(); err != nil {
		return err
	}
	return v.Date("check_out", c.CheckOut)
}

type ExtendStayHandler struct {
	Workflow  *Workflow
	Validator *validation.Validator
}

func (h *ExtendStayHandler) Handle(ctx context.Context, cmd ExtendStayCommand) (*dto.ReservationView, error) {
	w := h.Workflow
	checkOut := strings.TrimSpace(cmd.CheckOut)
	precheck := func(r *reservation.Reservation) error {
		return h.validator().Extension(validation.Extension{CheckIn: r.Stay.CheckInString(), CheckOut: checkOut})
	}
	return w.Mutate(ctx, cmd.Session, cmd.ReservationID, reservation.ActionExtendStay, precheck, func(ctx context.Context) (reservation.Snapshot, error) {
		return w.Port.ExtendStay(ctx, cmd.Session, cmd.ReservationID, checkOut)
	})
}

func (h *ExtendStayHandler) validator() *validation.Validator {
	if h.Validator == nil {
		h.Validator = validation.New()
	}
	return h.Validator
}

type ChangeAccommodationCommand struct {
	Target
	Accommodation string
}

func (c ChangeAccommodationCommand) Key() string { return changeAccommodationKey }

func (c ChangeAccommodationCommand) Validate(v *validation.Validator) error {
	if err := c.validateTarget(); err != nil {
		return err
	}
	return v.Selection(c.Accommodation)
}

type ChangeAccommodationHandler struct {
	Workflow *Workflow
}

func (h *ChangeAccommodationHandler) Handle(ctx context.Context, cmd ChangeAccommodationCommand) (*dto.ReservationView, error) {
	ref, ok := accommodation.ParseSelection(cmd.Accommodation)
	if !ok {
		return nil, validation.Single("accommodation", "must be a valid accommodation selection")
	}
	w := h.Workflow
	return w.Mutate(ctx, cmd.Session, cmd.ReservationID, reservation.ActionChangeAccommodation, nil, func(ctx context.Context) (reservation.Snapshot, error) {
		return w.Port.ChangeAccommodation(ctx, cmd.Session, cmd.ReservationID, ref)
	})
}

var _ commands.Handler[ExtendStayCommand, *dto.ReservationView] = (*ExtendStayHandler)(nil)
var _ commands.Handler[ChangeAccommodationCommand, *dto.ReservationView] = (*ChangeAccommodationHandler)(nil)
