package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/handlers/reservations"
	"pousada/internal/app/queries"
	"pousada/internal/app/validation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	GuestID       string      `json:"guest_id"`
	CheckIn       string      `json:"check_in"`
	CheckOut      string      `json:"check_out"`
	Accommodation string      `json:"accommodation"`
	SalesChannel  string      `json:"sales_channel"`
	FullyPaid     bool        `json:"fully_paid"`
	PaymentMethod string      `json:"payment_method"`
	PaymentAmount amountInput `json:"payment_amount"`
}

type previewRequest struct {
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Accommodation string `json:"accommodation"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type extendStayRequest struct {
	CheckOut string `json:"check_out"`
}

type changeAccommodationRequest struct {
	Accommodation string `json:"accommodation"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := reservations.CreateReservationCommand{
		Session: sess,
		Draft: validation.Draft{
			GuestID:       req.GuestID,
			CheckIn:       req.CheckIn,
			CheckOut:      req.CheckOut,
			Accommodation: req.Accommodation,
			SalesChannel:  req.SalesChannel,
			FullyPaid:     req.FullyPaid,
			PaymentMethod: req.PaymentMethod,
			PaymentAmount: string(req.PaymentAmount),
		},
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservations.CreateReservationCommand, *dto.CreatedReservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Get(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	q := reservations.GetReservationQuery{
		Session:       sess,
		ReservationID: reservation.ID(c.Param("id")),
		Fresh:         truthy(c.Query("fresh")),
	}
	view, err := queries.Ask[reservations.GetReservationQuery, *dto.ReservationView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h ReservationHandler) Preview(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req previewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	q := reservations.PreviewQuoteQuery{
		Session:       sess,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		Accommodation: req.Accommodation,
	}
	quote, err := queries.Ask[reservations.PreviewQuoteQuery, *dto.QuoteView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h ReservationHandler) CheckIn(c *gin.Context) {
	h.transition(c, reservation.ActionCheckIn, "")
}

func (h ReservationHandler) CheckOut(c *gin.Context) {
	h.transition(c, reservation.ActionCheckOut, "")
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, reservation.ActionCancel, req.Reason)
}

func (h ReservationHandler) transition(c *gin.Context, action reservation.Action, reason string) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	cmd := reservations.TransitionCommand{
		Target: target(c, sess),
		Action: action,
		Reason: reason,
	}
	dispatchView(c, h.Commands, h.Logger, cmd)
}

func (h ReservationHandler) ExtendStay(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req extendStayRequest
	if !bindJSON(c, &req) {
		return
	}
	dispatchView(c, h.Commands, h.Logger, reservations.ExtendStayCommand{Target: target(c, sess), CheckOut: req.CheckOut})
}

func (h ReservationHandler) ChangeAccommodation(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req changeAccommodationRequest
	if !bindJSON(c, &req) {
		return
	}
	dispatchView(c, h.Commands, h.Logger, reservations.ChangeAccommodationCommand{Target: target(c, sess), Accommodation: req.Accommodation})
}

func target(c *gin.Context, sess domainauth.Session) reservations.Target {
	return reservations.Target{Session: sess, ReservationID: reservation.ID(c.Param("id"))}
}

// dispatchView runs a reservation mutation and answers with the refreshed view.
func dispatchView[C commands.Command](c *gin.Context, bus commands.Bus, logger *slog.Logger, cmd C) {
	view, err := commands.Dispatch[C, *dto.ReservationView](c.Request.Context(), bus, cmd)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

var _ ReservationHTTP = ReservationHandler{}
