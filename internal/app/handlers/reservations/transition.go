package reservations

import (
	"context"
	"strings"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/middleware"
	"pousada/internal/app/validation"
	"pousada/internal/domain/reservation"
)

// TransitionKeys are the bus keys of the status-changing actions.
var TransitionKeys = []string{
	transitionKey(reservation.ActionCheckIn),
	transitionKey(reservation.ActionCheckOut),
	transitionKey(reservation.ActionCancel),
}

func transitionKey(a reservation.Action) string { return "reservations." + string(a) }

// TransitionCommand asks the PMS to check in, check out or cancel.
type TransitionCommand struct {
	Target
	Action reservation.Action
	Reason string
}

func (c TransitionCommand) Key() string { return transitionKey(c.Action) }

func (c TransitionCommand) Validate(*validation.Validator) error {
	if err := c.validateTarget(); err != nil {
		return err
	}
	if !c.Action.ChangesStatus() {
		return validation.Single("action", "must be check_in, check_out or cancel")
	}
	return nil
}

type TransitionHandler struct {
	Workflow *Workflow
}

func (h *TransitionHandler) Handle(ctx context.Context, cmd TransitionCommand) (*dto.ReservationView, error) {
	w := h.Workflow
	return w.Mutate(ctx, cmd.Session, cmd.ReservationID, cmd.Action, nil, func(ctx context.Context) (reservation.Snapshot, error) {
		switch cmd.Action {
		case reservation.ActionCheckIn:
			return w.Port.CheckIn(ctx, cmd.Session, cmd.ReservationID)
		case reservation.ActionCheckOut:
			return w.Port.CheckOut(ctx, cmd.Session, cmd.ReservationID)
		default:
			return w.Port.Cancel(ctx, cmd.Session, cmd.ReservationID, strings.TrimSpace(cmd.Reason))
		}
	})
}

var _ commands.Handler[TransitionCommand, *dto.ReservationView] = (*TransitionHandler)(nil)
var _ middleware.ReservationScoped = TransitionCommand{}
