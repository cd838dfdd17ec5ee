package reservation

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionCheckIn             Action = "check_in"
	ActionCheckOut            Action = "check_out"
	ActionCancel              Action = "cancel"
	ActionExtendStay          Action = "extend_stay"
	ActionChangeAccommodation Action = "change_accommodation"
	ActionAddCharge           Action = "add_charge"
	ActionAddPayment          Action = "add_payment"
)

// actionOrder is the order in which actions are presented.
var actionOrder = []Action{
	ActionCheckIn,
	ActionCheckOut,
	ActionCancel,
	ActionExtendStay,
	ActionChangeAccommodation,
	ActionAddCharge,
	ActionAddPayment,
}

type rule struct {
	from   []Status
	target Status // empty when the action keeps the status
}

var nonTerminal = []Status{StatusPending, StatusConfirmed, StatusCheckedIn}

var transitions = map[Action]rule{
	ActionCheckIn:             {from: []Status{StatusConfirmed}, target: StatusCheckedIn},
	ActionCheckOut:            {from: []Status{StatusCheckedIn}, target: StatusCheckedOut},
	ActionCancel:              {from: nonTerminal, target: StatusCanceled},
	ActionExtendStay:          {from: nonTerminal},
	ActionChangeAccommodation: {from: nonTerminal},
	ActionAddCharge:           {from: []Status{StatusCheckedIn}},
	ActionAddPayment:          {from: []Status{StatusCheckedIn}},
}

func ParseAction(raw string) (Action, error) {
	a := Action(strings.NewReplacer("-", "_").Replace(strings.ToLower(strings.TrimSpace(raw))))
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
	return a, nil
}

// ChangesStatus reports whether the action moves the reservation to another status.
func (a Action) ChangesStatus() bool {
	return transitions[a].target != ""
}

// Target is the status the PMS is expected to return after a successful
// action; actions that keep the status return the current one.
func (a Action) Target(current Status) Status {
	if t := transitions[a].target; t != "" {
		return t
	}
	return current
}

// Allows reports whether the action may be offered from status.
func Allows(status Status, action Action) bool {
	r, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == status {
			return true
		}
	}
	return false
}

// Check returns ErrActionNotAllowed wrapped with context when the action is
// not offered from status.
func Check(status Status, action Action) error {
	if _, ok := transitions[action]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if Allows(status, action) {
		return nil
	}
	if status.Terminal() {
		return fmt.Errorf("%w: %s from %s: %w", ErrActionNotAllowed, action, status, ErrReservationLocked)
	}
	return fmt.Errorf("%w: %s from %s", ErrActionNotAllowed, action, status)
}

// AvailableActions lists every action offered from status.
func AvailableActions(status Status) []Action {
	out := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if Allows(status, a) {
			out = append(out, a)
		}
	}
	return out
}

// AvailableTransitions lists only the status-changing actions offered from status.
func AvailableTransitions(status Status) []Action {
	out := make([]Action, 0, 2)
	for _, a := range AvailableActions(status) {
		if a.ChangesStatus() {
			out = append(out, a)
		}
	}
	return out
}
