package reservation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStatus     = errors.New("reservation: unknown status")
	ErrActionNotAllowed  = errors.New("reservation: action not allowed in current status")
	ErrUnknownAction     = errors.New("reservation: unknown action")
	ErrReservationLocked = errors.New("reservation: terminal reservations are read-only")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCanceled   Status = "canceled"
)

var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"pendente":    StatusPending,
	"confirmed":   StatusConfirmed,
	"confirmada":  StatusConfirmed,
	"checked_in":  StatusCheckedIn,
	"checkin":     StatusCheckedIn,
	"check_in":    StatusCheckedIn,
	"checked_out": StatusCheckedOut,
	"checkout":    StatusCheckedOut,
	"check_out":   StatusCheckedOut,
	"canceled":    StatusCanceled,
	"cancelled":   StatusCanceled,
	"cancelada":   StatusCanceled,
}

// ParseStatus normalizes the spellings the PMS has been seen to send.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Terminal statuses accept no further action.
func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCanceled
}

// PreStay covers both initial statuses the PMS may assign at creation.
func (s Status) PreStay() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCanceled:
		return true
	}
	return false
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusCheckedIn:
		return 2
	case StatusCheckedOut, StatusCanceled:
		return 3
	default:
		return -1
	}
}

// IsForward reports whether moving from one status to another follows the
// lifecycle order. Staying put counts as forward.
func IsForward(from, to Status) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	return to.rank() > from.rank()
}
