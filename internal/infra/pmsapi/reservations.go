package pmsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"pousada/internal/app/policies"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
)

var _ policies.ReservationsPort = (*Client)(nil)

func reservationPath(id reservation.ID, suffix string) string {
	return "/reservas/" + url.PathEscape(string(id)) + suffix
}

func (c *Client) CreateReservation(ctx context.Context, sess domainauth.Session, req policies.CreateReservationRequest) (policies.CreateReservationResult, error) {
	body := createWire{
		GuestID:        req.GuestID,
		CheckIn:        req.Stay.CheckInString(),
		CheckOut:       req.Stay.CheckOutString(),
		Accommodation:  accommodationWire{Kind: kindWire(req.Accommodation.Kind), ID: flexID(req.Accommodation.ID)},
		SalesChannelID: req.SalesChannel,
	}
	if req.Payment != nil {
		pay := &paymentBodyWire{Method: string(req.Payment.Method)}
		if req.Payment.Amount.Valid {
			amount := req.Payment.Amount.Decimal
			pay.Amount = &amount
		}
		body.Payment = pay
	}
	var out createdWire
	if _, err := c.do(ctx, &sess, http.MethodPost, "/reservas", nil, body, &out); err != nil {
		return policies.CreateReservationResult{}, err
	}
	if out.ID.String() == "" {
		return policies.CreateReservationResult{}, fmt.Errorf("%w: created reservation without id", policies.ErrMalformed)
	}
	result := policies.CreateReservationResult{ID: reservation.ID(out.ID.String())}
	if out.Status != "" {
		status, err := reservation.ParseStatus(out.Status)
		if err != nil {
			return policies.CreateReservationResult{}, fmt.Errorf("%w: %v", policies.ErrMalformed, err)
		}
		result.Status = status
	}
	return result, nil
}

func (c *Client) GetReservation(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error) {
	var out reservationWire
	status, err := c.do(ctx, &sess, http.MethodGet, reservationPath(id, ""), nil, nil, &out)
	if err != nil {
		return reservation.Snapshot{}, err
	}
	if status == http.StatusNoContent {
		return reservation.Snapshot{}, fmt.Errorf("%w: empty reservation body", policies.ErrMalformed)
	}
	return decodeSnapshot(out)
}

func (c *Client) CheckIn(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error) {
	return c.mutate(ctx, sess, id, http.MethodPost, "/check-in", nil)
}

func (c *Client) CheckOut(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error) {
	return c.mutate(ctx, sess, id, http.MethodPost, "/check-out", nil)
}

func (c *Client) Cancel(ctx context.Context, sess domainauth.Session, id reservation.ID, reason string) (reservation.Snapshot, error) {
	return c.mutate(ctx, sess, id, http.MethodPost, "/cancelar", cancelBodyWire{Reason: reason})
}

func (c *Client) ExtendStay(ctx context.Context, sess domainauth.Session, id reservation.ID, checkOut string) (reservation.Snapshot, error) {
	return c.mutate(ctx, sess, id, http.MethodPatch, "/datas", datesBodyWire{CheckOut: checkOut})
}

func (c *Client) ChangeAccommodation(ctx context.Context, sess domainauth.Session, id reservation.ID, ref accommodation.Ref) (reservation.Snapshot, error) {
	body := accommodationWire{Kind: kindWire(ref.Kind), ID: flexID(ref.ID)}
	return c.mutate(ctx, sess, id, http.MethodPatch, "/acomodacao", body)
}

func (c *Client) AddCharge(ctx context.Context, sess domainauth.Session, id reservation.ID, req policies.ChargeRequest) (reservation.Snapshot, error) {
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	body := chargeBodyWire{Type: string(req.Type), Description: req.Description, Amount: req.Amount, Quantity: qty}
	return c.mutate(ctx, sess, id, http.MethodPost, "/lancamentos", body)
}

func (c *Client) AddPayment(ctx context.Context, sess domainauth.Session, id reservation.ID, req policies.PaymentRequest) (reservation.Snapshot, error) {
	amount := req.Amount
	body := paymentBodyWire{Method: string(req.Method), Amount: &amount}
	return c.mutate(ctx, sess, id, http.MethodPost, "/pagamentos", body)
}

func (c *Client) ListAccommodationOptions(ctx context.Context, sess domainauth.Session, checkIn, checkOut string) ([]accommodation.Option, error) {
	query := url.Values{}
	if _, ok := daterange.ParseDate(checkIn); ok {
		query.Set("checkin", checkIn)
	}
	if _, ok := daterange.ParseDate(checkOut); ok {
		query.Set("checkout", checkOut)
	}
	var out []optionWire
	if _, err := c.do(ctx, &sess, http.MethodGet, "/acomodacoes/opcoes", query, nil, &out); err != nil {
		return nil, err
	}
	options := make([]accommodation.Option, 0, len(out))
	for _, w := range out {
		opt, ok := w.option()
		if !ok {
			c.Logger.Warn("pms option skipped", "id", w.ID.String(), "kind", w.Kind)
			continue
		}
		options = append(options, opt)
	}
	return options, nil
}

// mutate posts an action and returns the refreshed projection. When the PMS
// answers without a body the reservation is fetched again.
func (c *Client) mutate(ctx context.Context, sess domainauth.Session, id reservation.ID, method, suffix string, body any) (reservation.Snapshot, error) {
	var out reservationWire
	status, err := c.do(ctx, &sess, method, reservationPath(id, suffix), nil, body, &out)
	if err != nil {
		return reservation.Snapshot{}, err
	}
	if status == http.StatusNoContent || out.ID.String() == "" {
		return c.GetReservation(ctx, sess, id)
	}
	return decodeSnapshot(out)
}

func decodeSnapshot(w reservationWire) (reservation.Snapshot, error) {
	s, err := w.snapshot()
	if err != nil {
		return reservation.Snapshot{}, fmt.Errorf("%w: %v", policies.ErrMalformed, err)
	}
	return s, nil
}
