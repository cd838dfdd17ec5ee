package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"pousada/internal/domain/accommodation"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/money"
)

type AccommodationDTO struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Token string `json:"token"`
	Label string `json:"label,omitempty"`
}

type ChannelDTO struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type FolioLineDTO struct {
	Kind             string          `json:"kind"`
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	EntryType        string          `json:"entry_type,omitempty"`
	Method           string          `json:"method,omitempty"`
	Quantity         int             `json:"quantity,omitempty"`
	UnitValue        decimal.Decimal `json:"unit_value"`
	UnitValueDisplay string          `json:"unit_value_display"`
	Total            decimal.Decimal `json:"total"`
	TotalDisplay     string          `json:"total_display"`
	CreatedAt        time.Time       `json:"created_at"`
}

type FolioView struct {
	Lines          []FolioLineDTO  `json:"lines"`
	Charges        decimal.Decimal `json:"charges"`
	Paid           decimal.Decimal `json:"paid"`
	Balance        decimal.Decimal `json:"balance"`
	BalanceDisplay string          `json:"balance_display"`
	Frozen         bool            `json:"frozen"`
}

// ReservationView is everything the console needs to render one reservation:
// derived values and the actions to offer are computed once here.
type ReservationView struct {
	ID            string           `json:"id"`
	GuestID       string           `json:"guest_id"`
	GuestName     string           `json:"guest_name"`
	CheckIn       string           `json:"check_in"`
	CheckOut      string           `json:"check_out"`
	Nights        int              `json:"nights"`
	Accommodation AccommodationDTO `json:"accommodation"`
	Status        string           `json:"status"`
	SalesChannel  *ChannelDTO      `json:"sales_channel,omitempty"`
	Actions       []string         `json:"actions"`
	Transitions   []string         `json:"transitions"`
	Busy          bool             `json:"busy"`
	BusyAction    string           `json:"busy_action,omitempty"`
	Folio         FolioView        `json:"folio"`
	FetchedAt     time.Time        `json:"fetched_at"`
}

// MapReservation builds the view. busyAction is the mutation currently in
// flight for the reservation, if any; while one is, no action is offered.
func MapReservation(r *reservation.Reservation, busyAction string) ReservationView {
	view := ReservationView{
		ID:        string(r.ID),
		GuestID:   r.GuestID,
		GuestName: r.GuestName,
		CheckIn:   r.Stay.CheckInString(),
		CheckOut:  r.Stay.CheckOutString(),
		Nights:    r.Nights(),
		Accommodation: AccommodationDTO{
			Kind:  string(r.Accommodation.Kind),
			ID:    r.Accommodation.ID,
			Token: r.Accommodation.Token(),
			Label: r.AccommodationLabel,
		},
		Status:      string(r.Status),
		Actions:     []string{},
		Transitions: []string{},
		Busy:        busyAction != "",
		BusyAction:  busyAction,
		Folio:       MapFolio(r.Folio, r.FolioFrozen()),
		FetchedAt:   r.FetchedAt,
	}
	if r.SalesChannel != nil {
		view.SalesChannel = &ChannelDTO{ID: r.SalesChannel.ID, Name: r.SalesChannel.Name}
	}
	if !view.Busy {
		view.Actions = actionNames(r.AvailableActions())
		view.Transitions = actionNames(reservation.AvailableTransitions(r.Status))
	}
	return view
}

func MapFolio(l folio.Ledger, frozen bool) FolioView {
	lines := l.Lines()
	out := FolioView{
		Lines:          make([]FolioLineDTO, 0, len(lines)),
		Charges:        l.Charges(),
		Paid:           l.Paid(),
		Balance:        l.Balance(),
		BalanceDisplay: money.Format(l.Balance()),
		Frozen:         frozen,
	}
	for _, line := range lines {
		out.Lines = append(out.Lines, FolioLineDTO{
			Kind:             string(line.Kind),
			ID:               line.ID,
			Label:            line.Label,
			EntryType:        string(line.EntryType),
			Method:           string(line.Method),
			Quantity:         line.Quantity,
			UnitValue:        line.UnitValue,
			UnitValueDisplay: money.Format(line.UnitValue),
			Total:            line.Total,
			TotalDisplay:     money.Format(line.Total),
			CreatedAt:        line.CreatedAt,
		})
	}
	return out
}

func actionNames(actions []reservation.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return out
}

type CreatedReservation struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type OptionView struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Token       string          `json:"token"`
	Label       string          `json:"label"`
	Rate        decimal.Decimal `json:"rate"`
	RateDisplay string          `json:"rate_display"`
}

func MapOptions(opts []accommodation.Option) []OptionView {
	out := make([]OptionView, 0, len(opts))
	for _, o := range opts {
		out = append(out, OptionView{
			ID:          o.ID,
			Kind:        string(o.Kind),
			Token:       o.Ref().Token(),
			Label:       o.Label,
			Rate:        o.Rate,
			RateDisplay: money.Format(o.Rate),
		})
	}
	return out
}

// QuoteView is a provisional price. Rate and Total are null, and their
// display strings empty, whenever they cannot be known.
type QuoteView struct {
	CheckIn       string              `json:"check_in"`
	CheckOut      string              `json:"check_out"`
	MinCheckOut   string              `json:"min_check_out,omitempty"`
	Nights        int                 `json:"nights"`
	Accommodation string              `json:"accommodation"`
	Found         bool                `json:"found"`
	Label         string              `json:"label,omitempty"`
	Rate          decimal.NullDecimal `json:"rate"`
	RateDisplay   string              `json:"rate_display"`
	Total         decimal.NullDecimal `json:"total"`
	TotalDisplay  string              `json:"total_display"`
}

type StatementResult struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Lines int    `json:"lines"`
}
