package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"pousada/internal/app/commands"
	"pousada/internal/app/handlers/reservations"
	"pousada/internal/app/middleware"
	"pousada/internal/app/policies"
	"pousada/internal/app/queries"
	"pousada/internal/app/services/auth"
	"pousada/internal/app/validation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
)

// respondError maps application errors onto HTTP responses. Every error
// stays scoped to the request that triggered it.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var fields *validation.FieldErrors
	var rejection *policies.RejectionError
	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields.Fields})
	case errors.Is(err, reservation.ErrReservationLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "reservation is closed", "code": "locked"})
	case errors.Is(err, reservation.ErrActionNotAllowed):
		c.JSON(http.StatusConflict, gin.H{"error": "action not allowed in current status", "code": "not_allowed"})
	case errors.Is(err, middleware.ErrActionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "another action is in progress for this reservation", "code": "in_flight"})
	case errors.Is(err, middleware.ErrIdempotencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency key already used for another request", "code": "idempotency_conflict"})
	case errors.As(err, &rejection):
		status := rejection.StatusCode
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusConflict
		}
		body := gin.H{"error": rejection.Message, "code": "rejected"}
		if rejection.Message == "" {
			body["error"] = "rejected by the property system"
		}
		if rejection.Code != "" {
			body["upstream_code"] = rejection.Code
		}
		if len(rejection.Fields) > 0 {
			body["fields"] = rejection.Fields
		}
		c.JSON(status, body)
	case errors.Is(err, policies.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, policies.ErrUnauthorized),
		errors.Is(err, middleware.ErrSessionRequired),
		errors.Is(err, domainauth.ErrSessionNotFound),
		errors.Is(err, domainauth.ErrTokenRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, sign in again"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, domainauth.ErrTenantNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "tenant not available for this operator"})
	case errors.Is(err, domainauth.ErrTenantRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": gin.H{"tenant": "is required"}})
	case errors.Is(err, policies.ErrTransient), errors.Is(err, policies.ErrMalformed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "property system unavailable, try again", "code": "upstream"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "property system timed out, try again", "code": "upstream"})
	case errors.Is(err, reservations.ErrStatementsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "statement export is not configured"})
	case errors.Is(err, commands.ErrHandlerNotFound), errors.Is(err, queries.ErrHandlerNotFound):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "operation unavailable"})
	default:
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
