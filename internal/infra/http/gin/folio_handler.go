package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/handlers/reservations"
	"pousada/internal/app/validation"
	"pousada/internal/domain/reservation"
)

type FolioHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type chargeRequest struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Amount      amountInput `json:"amount"`
	Quantity    int         `json:"quantity"`
}

type paymentRequest struct {
	Method string      `json:"method"`
	Amount amountInput `json:"amount"`
}

func (h FolioHandler) AddCharge(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req chargeRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := reservations.AddChargeCommand{
		Target: target(c, sess),
		Charge: validation.Charge{
			Type:        req.Type,
			Description: req.Description,
			Amount:      string(req.Amount),
			Quantity:    req.Quantity,
		},
	}
	dispatchView(c, h.Commands, h.Logger, cmd)
}

func (h FolioHandler) AddPayment(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := reservations.AddPaymentCommand{
		Target:  target(c, sess),
		Payment: validation.Payment{Method: req.Method, Amount: string(req.Amount)},
	}
	dispatchView(c, h.Commands, h.Logger, cmd)
}

func (h FolioHandler) Statement(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	cmd := reservations.ExportStatementCommand{Session: sess, ReservationID: reservation.ID(c.Param("id"))}
	result, err := commands.Dispatch[reservations.ExportStatementCommand, *dto.StatementResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ FolioHTTP = FolioHandler{}
