package policies

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransient    = errors.New("pms: upstream unavailable")
	ErrNotFound     = errors.New("pms: not found")
	ErrUnauthorized = errors.New("pms: session rejected")
	ErrMalformed    = errors.New("pms: malformed response")
)

// RejectionError is a structured refusal from the PMS, e.g. a check-in on a
// canceled reservation. The caller must resync from the PMS after seeing it.
type RejectionError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *RejectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("pms: rejected (%s): %s", e.Code, msg)
	}
	return "pms: rejected: " + msg
}

// IsRejection reports whether err carries a PMS refusal.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}
