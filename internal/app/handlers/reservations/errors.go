package reservations

import "errors"

var ErrStatementsDisabled = errors.New("reservations: statement storage not configured")
